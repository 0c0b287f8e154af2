package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/forum/backend/internal/forum"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

// voteAttempts bounds retries when two requests from the same user race on
// the same vote row and one loses.
const voteAttempts = 3

// errVoteConflict means the vote row changed between reading it and writing
// it; the transaction is rolled back and retried.
var errVoteConflict = errors.New("vote row changed concurrently")

// VoteRepository applies the toggle/flip vote transition atomically and
// returns the target's full vote set after the change.
type VoteRepository interface {
	VotePost(ctx context.Context, postID, userID, value int) (forum.Action, []models.PostVote, error)
	VoteComment(ctx context.Context, commentID, userID, value int) (forum.Action, []models.CommentVote, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) VotePost(ctx context.Context, postID, userID, value int) (forum.Action, []models.PostVote, error) {
	if err := forum.ValidateVote(value); err != nil {
		return 0, nil, err
	}

	var (
		action forum.Action
		votes  []models.PostVote
	)
	err := r.withRetry(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").Take(&models.Post{}, postID).Error; err != nil {
			return notFound(err, "Post")
		}
		var err error
		action, votes, err = castVote(tx, "post_id", postID, userID, value, func() *models.PostVote {
			return &models.PostVote{PostID: postID, UserID: userID, Value: value}
		})
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return action, votes, nil
}

func (r *voteRepository) VoteComment(ctx context.Context, commentID, userID, value int) (forum.Action, []models.CommentVote, error) {
	if err := forum.ValidateVote(value); err != nil {
		return 0, nil, err
	}

	var (
		action forum.Action
		votes  []models.CommentVote
	)
	err := r.withRetry(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").Take(&models.Comment{}, commentID).Error; err != nil {
			return notFound(err, "Comment")
		}
		var err error
		action, votes, err = castVote(tx, "comment_id", commentID, userID, value, func() *models.CommentVote {
			return &models.CommentVote{CommentID: commentID, UserID: userID, Value: value}
		})
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return action, votes, nil
}

// withRetry runs fn in a transaction, starting over when the transaction
// lost a race on the per-user vote row.
func (r *voteRepository) withRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for range voteAttempts {
		err = r.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, gorm.ErrDuplicatedKey) && !errors.Is(err, errVoteConflict) {
			return err
		}
	}
	return fmt.Errorf("vote retries exhausted: %w", err)
}

// castVote reads the caller's current vote on one target, applies the
// transition and reloads the target's votes, all through tx. The read takes a
// row lock where the dialect supports one; a write that touches no row means
// the lock was not enough and reports errVoteConflict.
func castVote[V any, PV interface {
	*V
	forum.Ballot
}](tx *gorm.DB, column string, targetID, userID, value int, build func() PV) (forum.Action, []V, error) {
	var existing V
	var current *int
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(column+" = ? AND user_id = ?", targetID, userID).
		Take(&existing).Error
	switch {
	case err == nil:
		v := PV(&existing).VoteValue()
		current = &v
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return 0, nil, fmt.Errorf("load vote: %w", err)
	}

	action := forum.Decide(current, value)
	var res *gorm.DB
	switch action {
	case forum.VoteCreated:
		res = tx.Create(build())
	case forum.VoteRemoved:
		res = tx.Delete(PV(&existing))
	case forum.VoteFlipped:
		res = tx.Model(PV(&existing)).Update("value", value)
	}
	if err := res.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%s vote: %w", action, err)
	}
	if res.RowsAffected != 1 {
		return 0, nil, errVoteConflict
	}

	var votes []V
	if err := tx.Where(column+" = ?", targetID).Order("id asc").Find(&votes).Error; err != nil {
		return 0, nil, fmt.Errorf("reload votes: %w", err)
	}
	return action, votes, nil
}
