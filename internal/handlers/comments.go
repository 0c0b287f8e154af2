package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/forum"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/observability"
	"github.com/emilythestrangee/forum/backend/internal/repository"
)

const maxCommentLength = 10000

type CommentHandler struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository
	log      *slog.Logger
}

func NewCommentHandler(d Deps) *CommentHandler {
	return &CommentHandler{
		posts:    d.Repos.Posts,
		comments: d.Repos.Comments,
		votes:    d.Repos.Votes,
		log:      d.Log,
	}
}

// CreateComment adds a comment to a post, optionally as a reply. Replies are
// accepted at any depth.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindingError(err, "Post ID and content are required"))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(c, h.log, models.NewValidationError("Comment cannot be empty"))
		return
	}
	if utf8.RuneCountInString(req.Content) > maxCommentLength {
		respondError(c, h.log, models.NewValidationError("Comment must be at most 10000 characters long"))
		return
	}

	ctx := c.Request.Context()
	postID := *req.PostID
	ok, err := h.posts.Exists(ctx, postID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !ok {
		respondError(c, h.log, models.NewNotFoundError("Post"))
		return
	}

	if req.ParentCommentID != nil {
		parent, err := h.comments.GetByID(ctx, *req.ParentCommentID)
		if models.IsKind(err, models.KindNotFound) || (err == nil && parent.PostID != postID) {
			respondError(c, h.log, models.NewNotFoundError("Parent comment"))
			return
		}
		if err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	comment := &models.Comment{
		Content:         req.Content,
		PostID:          postID,
		ParentCommentID: req.ParentCommentID,
		AuthorID:        user.UserID,
	}
	if err := h.comments.Create(ctx, comment); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": newCommentView(*comment, user.UserID)})
}

// VoteComment applies the caller's vote to a comment and returns the new score.
func (h *CommentHandler) VoteComment(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	value, err := bindVote(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	id, err := idParam(c, "id", "Comment")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	action, votes, err := h.votes.VoteComment(c.Request.Context(), id, user.UserID, value)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	observability.VotesTotal.WithLabelValues("comment", action.String()).Inc()
	c.JSON(http.StatusOK, gin.H{
		"score":    forum.NetScore(votes),
		"votes":    votes,
		"userVote": forum.OwnVote(votes, user.UserID),
	})
}
