// Package repository provides the gorm-backed store for users, sessions,
// posts, comments and votes.
package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Repositories bundles every repository over one connection.
type Repositories struct {
	Users    UserRepository
	Sessions *SessionRepository
	Posts    PostRepository
	Comments CommentRepository
	Votes    VoteRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Sessions: NewSessionRepository(db),
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Votes:    NewVoteRepository(db),
	}
}

// notFound maps gorm's missing-row error onto a NotFound AppError and passes
// everything else through.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource)
	}
	return err
}
