package models

import "time"

type User struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // bcrypt digest
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is a server-side login record. Token is the random session id, not
// the signed value handed to the client.
type Session struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"uniqueIndex;size:128;not null" json:"-"`
	UserID    int       `gorm:"index;not null" json:"userId"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserSummary is the public projection of a user embedded in posts and comments.
type UserSummary struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email}
}
