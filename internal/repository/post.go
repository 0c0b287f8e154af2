package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	// ListAll loads every post with author, votes and comment count. Feed
	// ranking sorts the full set in memory.
	ListAll(ctx context.Context) ([]models.Post, error)
	Exists(ctx context.Context, id int) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return r.db.WithContext(ctx).Preload("Author").Preload("Votes").First(post, post.ID).Error
}

func (r *postRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Votes", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&post, id).Error
	if err != nil {
		return nil, notFound(err, "Post")
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	post.CommentCount = int(count)
	return &post, nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Votes").
		Order("created_at desc").
		Order("id desc").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	var counts []struct {
		PostID int
		Count  int
	}
	err = r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, count(*) as count").
		Group("post_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	byPost := make(map[int]int, len(counts))
	for _, c := range counts {
		byPost[c.PostID] = c.Count
	}
	for i := range posts {
		posts[i].CommentCount = byPost[posts[i].ID]
	}
	return posts, nil
}

func (r *postRepository) Exists(ctx context.Context, id int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check post: %w", err)
	}
	return count > 0, nil
}
