// Package seed fills a database with fake users, posts, comment threads and
// votes for local development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/forum"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/repository"
)

// Password is shared by every seeded account.
const Password = "password123"

type Options struct {
	Users           int
	Posts           int
	CommentsPerPost int
	MaxDays         int
}

type Summary struct {
	Users, Posts, Comments, Votes int
}

type Seeder struct {
	db     *gorm.DB
	repos  *repository.Repositories
	hasher auth.Hasher
	faker  *gofakeit.Faker
	log    *slog.Logger
	now    time.Time
}

// New returns a seeder whose output is fully determined by seed.
func New(db *gorm.DB, hasher auth.Hasher, seed int64, log *slog.Logger) *Seeder {
	return &Seeder{
		db:     db,
		repos:  repository.New(db),
		hasher: hasher,
		faker:  gofakeit.New(seed),
		log:    log,
		now:    time.Now().UTC(),
	}
}

// Clear deletes every row the application owns.
func (s *Seeder) Clear(ctx context.Context) error {
	tables := database.Models()
	slices.Reverse(tables)
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range tables {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	if opts.MaxDays < 1 {
		opts.MaxDays = 30
	}

	digest, err := s.hasher.Hash(Password)
	if err != nil {
		return sum, err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := range opts.Users {
		u := &models.User{
			Email:        fmt.Sprintf("%s.%d@example.com", strings.ToLower(s.faker.FirstName()), i+1),
			PasswordHash: digest,
		}
		if err := s.repos.Users.Create(ctx, u); err != nil {
			return sum, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	for range opts.Posts {
		post := &models.Post{
			Title:     strings.TrimSuffix(s.faker.Sentence(s.faker.Number(3, 8)), "."),
			Content:   s.faker.Paragraph(1, 3, 12, "\n\n"),
			AuthorID:  s.pick(users).ID,
			CreatedAt: s.since(opts.MaxDays),
		}
		if err := s.repos.Posts.Create(ctx, post); err != nil {
			return sum, err
		}
		sum.Posts++

		n, err := s.seedThread(ctx, post, users, opts.CommentsPerPost)
		sum.Comments += n
		if err != nil {
			return sum, err
		}

		v, err := s.seedVotes(ctx, post.ID, users)
		sum.Votes += v
		if err != nil {
			return sum, err
		}
	}

	s.log.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("votes", sum.Votes),
	)
	return sum, nil
}

// seedThread adds up to limit comments, each replying to an earlier one about
// half the time.
func (s *Seeder) seedThread(ctx context.Context, post *models.Post, users []*models.User, limit int) (int, error) {
	if limit < 1 {
		return 0, nil
	}
	var ids []int
	at := post.CreatedAt
	for range s.faker.Number(0, limit) {
		at = at.Add(time.Duration(s.faker.Number(1, 180)) * time.Minute)
		c := &models.Comment{
			Content:   s.faker.Sentence(s.faker.Number(4, 20)),
			PostID:    post.ID,
			AuthorID:  s.pick(users).ID,
			CreatedAt: at,
		}
		if len(ids) > 0 && s.faker.Bool() {
			parent := ids[s.faker.Number(0, len(ids)-1)]
			c.ParentCommentID = &parent
		}
		if err := s.repos.Comments.Create(ctx, c); err != nil {
			return len(ids), err
		}
		ids = append(ids, c.ID)

		if s.faker.Number(0, 3) == 0 {
			if _, _, err := s.repos.Votes.VoteComment(ctx, c.ID, s.pick(users).ID, s.vote()); err != nil {
				return len(ids), err
			}
		}
	}
	return len(ids), nil
}

func (s *Seeder) seedVotes(ctx context.Context, postID int, users []*models.User) (int, error) {
	applied := 0
	for _, u := range users {
		if !s.faker.Bool() {
			continue
		}
		if _, _, err := s.repos.Votes.VotePost(ctx, postID, u.ID, s.vote()); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// vote leans positive, roughly three upvotes to one downvote.
func (s *Seeder) vote() int {
	if s.faker.Number(0, 3) == 0 {
		return forum.Downvote
	}
	return forum.Upvote
}

func (s *Seeder) pick(users []*models.User) *models.User {
	return users[s.faker.Number(0, len(users)-1)]
}

func (s *Seeder) since(maxDays int) time.Time {
	return s.now.Add(-time.Duration(s.faker.Number(0, maxDays*24*60)) * time.Minute)
}
