package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Email            string    `json:"email" gorm:"uniqueIndex;size:254"`
	FirstName        string    `json:"first_name" gorm:"size:25"`
	LastName         *string   `json:"last_name" gorm:"size:25"`
	PasswordHash     string    `json:"-"`
	IsActive         bool      `json:"-" gorm:"default:true"` // account-disable switch, independent of confirmation
	IsEmailConfirmed bool      `json:"-"`
	ProfilePicture   *string   `json:"profile_picture"`
	CreatedAt        time.Time `json:"created_at"`
}

// FullName is the "first last" display name used for search and name ordering.
func (u *User) FullName() string {
	if u.LastName == nil {
		return u.FirstName + " "
	}
	return u.FirstName + " " + *u.LastName
}

type SignUpRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"first_name" validate:"required,max=25"`
	LastName  *string `json:"last_name" validate:"omitempty,max=25"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

type PasswordChangeRequest struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,max=128"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

// ConfirmationClaims is the payload of the signed e-mail confirmation token.
type ConfirmationClaims struct {
	UID uint `json:"uid"`
	jwt.RegisteredClaims
}

// MyProfile is the authenticated user's own profile representation.
type MyProfile struct {
	ID             uint    `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
}

// UserProfile is another user's profile as seen by the authenticated actor.
type UserProfile struct {
	ID             uint    `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
	IsFollowingYou bool    `json:"is_following_you"`
}

// UserListItem is a row of the user directory listing.
type UserListItem struct {
	ID             uint    `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
	IsFollowingYou bool    `json:"is_following_you"`
	FollowersCount int64   `json:"followers_count"`
}

type UserListQueryParams struct {
	Search         string `query:"search" validate:"omitempty,max=100"`
	OrderingType   string `query:"ordering_type" validate:"omitempty,oneof=name followers_count"`
	IsFollowingYou *bool  `query:"is_following_you"`
	Page           *int   `query:"page" validate:"omitempty,min=1"`
	PageSize       *int   `query:"page_size" validate:"omitempty,min=1"`
}
