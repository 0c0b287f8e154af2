package models

import "time"

// PostVote is one user's vote on a post. (post_id, user_id) is unique.
type PostVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	PostID    int       `gorm:"uniqueIndex:idx_post_votes_post_user;not null" json:"postId"`
	UserID    int       `gorm:"uniqueIndex:idx_post_votes_post_user;index;not null" json:"userId"`
	Value     int       `gorm:"not null;check:value = 1 OR value = -1" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v PostVote) VoterID() int   { return v.UserID }
func (v PostVote) VoteValue() int { return v.Value }

// CommentVote is one user's vote on a comment. (comment_id, user_id) is unique.
type CommentVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CommentID int       `gorm:"uniqueIndex:idx_comment_votes_comment_user;not null" json:"commentId"`
	UserID    int       `gorm:"uniqueIndex:idx_comment_votes_comment_user;index;not null" json:"userId"`
	Value     int       `gorm:"not null;check:value = 1 OR value = -1" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v CommentVote) VoterID() int   { return v.UserID }
func (v CommentVote) VoteValue() int { return v.Value }

type VoteRequest struct {
	Value *int `json:"value" binding:"required"`
}
