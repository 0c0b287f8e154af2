package models

import "time"

type Comment struct {
	ID              int           `gorm:"primaryKey" json:"id"`
	Content         string        `gorm:"type:text;not null" json:"content"`
	PostID          int           `gorm:"index;not null" json:"postId"`
	ParentCommentID *int          `gorm:"index" json:"parentCommentId"`
	AuthorID        int           `gorm:"index;not null" json:"authorId"`
	Author          User          `gorm:"foreignKey:AuthorID" json:"-"`
	Votes           []CommentVote `gorm:"foreignKey:CommentID" json:"votes"`
	CreatedAt       time.Time     `gorm:"index" json:"createdAt"`
}

type CreateCommentRequest struct {
	PostID          *int   `json:"postId" binding:"required"`
	Content         string `json:"content" binding:"required"`
	ParentCommentID *int   `json:"parentCommentId"`
}
