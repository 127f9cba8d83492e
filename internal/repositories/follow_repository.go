package repositories

import (
	"github.com/rclima/social-network-api/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow-edge data operations
type FollowRepository interface {
	CreateFollow(follow *models.Follow) (bool, error)
	DeleteFollow(followerID, followedID uint) (bool, error)
	IsFollowing(followerID, followedID uint) (bool, error)
	FollowingEdges(followerID uint) ([]models.Follow, error)
	FollowerIDs(userID uint) ([]uint, error)
	FollowerCounts() (map[uint]int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts the edge if absent and reports whether a new row was
// created. A concurrent duplicate insert lands on the unique index and is
// reported as "already existed" rather than an error.
func (r *PostgresFollowRepository) CreateFollow(follow *models.Follow) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followed_id"}},
		DoNothing: true,
	}).Create(follow)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteFollow removes the edge if present and reports whether a row was
// deleted.
func (r *PostgresFollowRepository) DeleteFollow(followerID, followedID uint) (bool, error) {
	res := r.db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) IsFollowing(followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowingEdges returns the user's outgoing edges, most recent first.
func (r *PostgresFollowRepository) FollowingEdges(followerID uint) ([]models.Follow, error) {
	var edges []models.Follow
	err := r.db.Where("follower_id = ?", followerID).
		Order("created_at DESC, id DESC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// FollowerIDs returns the ids of the users following the given user.
func (r *PostgresFollowRepository) FollowerIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).
		Where("followed_id = ?", userID).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FollowerCounts returns the follower count per followed user. Users with no
// followers have no entry.
func (r *PostgresFollowRepository) FollowerCounts() (map[uint]int64, error) {
	var rows []struct {
		FollowedID uint
		N          int64
	}
	err := r.db.Model(&models.Follow{}).
		Select("followed_id, COUNT(*) AS n").
		Group("followed_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.FollowedID] = row.N
	}
	return counts, nil
}
