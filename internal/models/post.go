package models

import "time"

type Post struct {
	ID        int        `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:300;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ImageURL  *string    `json:"imageUrl"`
	VideoURL  *string    `json:"videoUrl"`
	AuthorID  int        `gorm:"index;not null" json:"authorId"`
	Author    User       `gorm:"foreignKey:AuthorID" json:"-"`
	Votes     []PostVote `gorm:"foreignKey:PostID" json:"votes"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`

	// Filled from an aggregate query, not a column.
	CommentCount int `gorm:"-" json:"commentCount"`
}
