package models

import "time"

// Follow is a directed edge from a follower to a followed user. At most one
// edge may exist per ordered pair; the database enforces it via the composite
// unique index, which also makes concurrent "create if absent" race-safe.
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_followed"`
	FollowedID uint      `json:"followed_id" gorm:"index;uniqueIndex:idx_follower_followed"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followed User `json:"-" gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`
}

// FollowRequest toggles a follow edge. The flag is a pointer so that an
// explicit `false` still satisfies the required rule.
type FollowRequest struct {
	Follow *bool `json:"follow" validate:"required"`
}

// FollowedUser is a row of the following listing, annotated with whether the
// relationship is reciprocated.
type FollowedUser struct {
	ID             uint    `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
	IsMutual       bool    `json:"is_mutual"`
}

const (
	OrderingCreation  = "creation"
	OrderingName      = "name"
	OrderingFollowers = "followers_count"
)

type FollowingListQueryParams struct {
	Mutual       bool   `query:"mutual"`
	OrderingType string `query:"ordering_type" validate:"omitempty,oneof=creation name"`
	Search       string `query:"search" validate:"omitempty,max=100"`
	Page         *int   `query:"page" validate:"omitempty,min=1"`
	PageSize     *int   `query:"page_size" validate:"omitempty,min=1"`
}
