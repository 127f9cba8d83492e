package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/middleware"
	"github.com/rclima/social-network-api/backend/internal/models"
	"github.com/rclima/social-network-api/backend/internal/repositories"
	"github.com/rclima/social-network-api/backend/validators"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// fakeUserRepo is an in-memory repositories.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User)}
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetUsersByIDs(ids []uint) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []models.User
	// Deliberately not in input order: callers must carry ordering.
	for _, user := range r.users {
		for _, id := range ids {
			if user.ID == id {
				users = append(users, *user)
				break
			}
		}
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) ListUsersExcluding(id uint) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []models.User
	for _, user := range r.users {
		if user.ID != id {
			users = append(users, *user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// fakeFollowRepo is an in-memory repositories.FollowRepository.
type fakeFollowRepo struct {
	mu     sync.Mutex
	nextID uint
	edges  []models.Follow
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{}
}

func (r *fakeFollowRepo) CreateFollow(follow *models.Follow) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, edge := range r.edges {
		if edge.FollowerID == follow.FollowerID && edge.FollowedID == follow.FollowedID {
			return false, nil
		}
	}
	r.nextID++
	follow.ID = r.nextID
	follow.CreatedAt = time.Unix(0, int64(r.nextID))
	r.edges = append(r.edges, *follow)
	return true, nil
}

func (r *fakeFollowRepo) DeleteFollow(followerID, followedID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, edge := range r.edges {
		if edge.FollowerID == followerID && edge.FollowedID == followedID {
			r.edges = append(r.edges[:i], r.edges[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFollowRepo) IsFollowing(followerID, followedID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, edge := range r.edges {
		if edge.FollowerID == followerID && edge.FollowedID == followedID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFollowRepo) FollowingEdges(followerID uint) ([]models.Follow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var edges []models.Follow
	for _, edge := range r.edges {
		if edge.FollowerID == followerID {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.After(edges[j].CreatedAt)
		}
		return edges[i].ID > edges[j].ID
	})
	return edges, nil
}

func (r *fakeFollowRepo) FollowerIDs(userID uint) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint
	for _, edge := range r.edges {
		if edge.FollowedID == userID {
			ids = append(ids, edge.FollowerID)
		}
	}
	return ids, nil
}

func (r *fakeFollowRepo) FollowerCounts() (map[uint]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[uint]int64)
	for _, edge := range r.edges {
		counts[edge.FollowedID]++
	}
	return counts, nil
}

func (r *fakeFollowRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.edges)
}

// fakeTokenRepo is an in-memory repositories.TokenRepository.
type fakeTokenRepo struct {
	mu      sync.Mutex
	n       int
	byToken map[string]uint
	byUser  map[uint]string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		byToken: make(map[string]uint),
		byUser:  make(map[uint]string),
	}
}

func (r *fakeTokenRepo) Issue(_ context.Context, userID uint) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.byUser[userID]; ok {
		return token, nil
	}
	r.n++
	token := fmt.Sprintf("opaque-token-%d", r.n)
	r.byToken[token] = userID
	r.byUser[userID] = token
	return token, nil
}

func (r *fakeTokenRepo) UserID(_ context.Context, token string) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.byToken[token]
	if !ok {
		return 0, repositories.ErrTokenNotFound
	}
	return userID, nil
}

func (r *fakeTokenRepo) Revoke(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.byUser[userID]
	if !ok {
		return repositories.ErrTokenNotFound
	}
	delete(r.byToken, token)
	delete(r.byUser, userID)
	return nil
}

// fakeMailer records recipients; safe for the fire-and-forget goroutine.
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendConfirmationEmail(to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) sentTo(to string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, addr := range m.sent {
		if addr == to {
			return true
		}
	}
	return false
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fakePictureStore records stored objects and serves canned URLs.
type fakePictureStore struct {
	mu    sync.Mutex
	err   error
	saved []string
}

func (s *fakePictureStore) SavePicture(_ context.Context, objectName string, _ io.Reader, _ int64, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, objectName)
	return "http://cdn.testserver/pictures/" + objectName, nil
}

// testEnv wires real routes and middleware over the fakes.
type testEnv struct {
	e       *echo.Echo
	users   *fakeUserRepo
	follows *fakeFollowRepo
	tokens  *fakeTokenRepo
	mail    *fakeMailer
	pics    *fakePictureStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		e:       echo.New(),
		users:   newFakeUserRepo(),
		follows: newFakeFollowRepo(),
		tokens:  newFakeTokenRepo(),
		mail:    &fakeMailer{},
		pics:    &fakePictureStore{},
	}
	env.e.Validator = validators.NewValidator()

	public := env.e.Group("/api/v1")
	session := env.e.Group("/api/v1", middleware.TokenAuth(env.tokens, env.users))
	confirmed := env.e.Group("/api/v1",
		middleware.TokenAuth(env.tokens, env.users),
		middleware.RequireEmailConfirmed(),
	)

	NewAuthHandler(env.users, env.tokens, env.mail, testSecret, "http://testserver").
		RegisterAuthRoutes(public, session)
	NewUserHandler(env.users, env.follows, env.pics).RegisterUserRoutes(confirmed)
	NewFollowHandler(env.follows, env.users).RegisterFollowRoutes(confirmed)

	return env
}

func (env *testEnv) createUser(t *testing.T, firstName, lastName, email, password string, confirmed bool) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:            email,
		FirstName:        firstName,
		LastName:         &lastName,
		PasswordHash:     string(hashed),
		IsActive:         true,
		IsEmailConfirmed: confirmed,
	}
	require.NoError(t, env.users.CreateUser(user))
	return user
}

func (env *testEnv) login(t *testing.T, userID uint) string {
	t.Helper()
	token, err := env.tokens.Issue(context.Background(), userID)
	require.NoError(t, err)
	return token
}

func (env *testEnv) follow(t *testing.T, followerID, followedID uint) {
	t.Helper()
	created, err := env.follows.CreateFollow(&models.Follow{
		FollowerID: followerID,
		FollowedID: followedID,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func (env *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
