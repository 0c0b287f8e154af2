package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/forum"
	"github.com/emilythestrangee/forum/backend/internal/media"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/observability"
	"github.com/emilythestrangee/forum/backend/internal/repository"
)

const (
	minTitleLength   = 3
	maxTitleLength   = 300
	maxContentLength = 40000

	// formOverhead is the room left beside the largest attachment for the
	// text fields and multipart framing.
	formOverhead = 1 << 20
	formMemory   = 32 << 20
)

type PostHandler struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository
	media    media.Storage
	log      *slog.Logger
	pageSize int
	timeout  time.Duration
	maxBody  int64
}

func NewPostHandler(d Deps) *PostHandler {
	return &PostHandler{
		posts:    d.Repos.Posts,
		comments: d.Repos.Comments,
		votes:    d.Repos.Votes,
		media:    d.Media,
		log:      d.Log,
		pageSize: d.PageSize,
		timeout:  d.RequestTimeout,
		maxBody:  d.MaxPostBody,
	}
}

// GetPosts returns one page of the feed, ordered by ?sort=hot|new.
func (h *PostHandler) GetPosts(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", h.pageSize)
	limit = min(limit, forum.MaxPageSize)
	policy := forum.ParseSort(c.Query("sort"))

	posts, err := h.posts.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ranked := forum.Rank(posts, policy, page, limit)
	viewer := auth.UserID(c.Request.Context())
	views := make([]postView, 0, len(ranked.Posts))
	for _, p := range ranked.Posts {
		views = append(views, newPostView(p, viewer))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": views,
		"pagination": gin.H{
			"page":       ranked.Page,
			"limit":      ranked.PageSize,
			"total":      ranked.Total,
			"totalPages": ranked.TotalPages,
			"sort":       policy,
		},
	})
}

// GetPost returns a single post with its comment thread.
func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := idParam(c, "id", "Post")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	post, err := h.posts.GetByID(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	comments, err := h.comments.ListByPost(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	// The count reported with a thread is the thread's own size.
	tree := forum.BuildTree(comments)
	post.CommentCount = forum.Count(tree)

	viewer := auth.UserID(ctx)
	c.JSON(http.StatusOK, gin.H{
		"post":     newPostView(*post, viewer),
		"comments": newThreadView(tree, viewer),
	})
}

// GetComments returns a post's comments as a flat, oldest-first list.
func (h *PostHandler) GetComments(c *gin.Context) {
	id, err := idParam(c, "id", "Post")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	ok, err := h.posts.Exists(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !ok {
		respondError(c, h.log, models.NewNotFoundError("Post"))
		return
	}

	comments, err := h.comments.ListByPost(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	viewer := auth.UserID(ctx)
	views := make([]commentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, newCommentView(cm, viewer))
	}
	c.JSON(http.StatusOK, gin.H{"comments": views})
}

// CreatePost creates a post from a multipart form with an optional image or
// video attachment. The route runs without the request timeout: the body is
// read first, and only the store calls after it are bounded.
func (h *PostHandler) CreatePost(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.readForm(c); err != nil {
		respondError(c, h.log, err)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	content := c.PostForm("content")
	if title == "" || strings.TrimSpace(content) == "" {
		respondError(c, h.log, models.NewValidationError("Title and content are required"))
		return
	}
	if utf8.RuneCountInString(title) < minTitleLength {
		respondError(c, h.log, models.NewValidationError("Title must be at least 3 characters long"))
		return
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		respondError(c, h.log, models.NewValidationError("Title must be at most 300 characters long"))
		return
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		respondError(c, h.log, models.NewValidationError("Content must be at most 40000 characters long"))
		return
	}

	image, err := formFile(c, "image")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	video, err := formFile(c, "video")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if image != nil && video != nil {
		respondError(c, h.log, models.NewValidationError("You can upload either an image or a video, not both"))
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	post := &models.Post{Title: title, Content: content, AuthorID: user.UserID}
	var stored string
	switch {
	case image != nil:
		stored, err = h.store(ctx, media.Image, image)
		post.ImageURL = &stored
	case video != nil:
		stored, err = h.store(ctx, media.Video, video)
		post.VideoURL = &stored
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.posts.Create(ctx, post); err != nil {
		if stored != "" {
			if rmErr := h.media.Remove(context.WithoutCancel(ctx), stored); rmErr != nil {
				h.log.WarnContext(ctx, "remove orphaned upload", slog.String("url", stored), slog.String("error", rmErr.Error()))
			}
		}
		respondError(c, h.log, err)
		return
	}

	h.log.InfoContext(ctx, "post created", slog.Int("post_id", post.ID))
	c.JSON(http.StatusCreated, gin.H{"post": newPostView(*post, user.UserID)})
}

// VotePost applies the caller's vote to a post and returns the new score.
func (h *PostHandler) VotePost(c *gin.Context) {
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
	id, err := idParam(c, "id", "Post")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	action, votes, err := h.votes.VotePost(c.Request.Context(), id, user.UserID, value)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	observability.VotesTotal.WithLabelValues("post", action.String()).Inc()
	c.JSON(http.StatusOK, gin.H{
		"score":    forum.NetScore(votes),
		"votes":    votes,
		"userVote": forum.OwnVote(votes, user.UserID),
	})
}

// readForm caps and parses the request body. A body over the cap is reported
// as an oversized attachment, since nothing else in the form can reach it.
func (h *PostHandler) readForm(c *gin.Context) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	err := c.Request.ParseMultipartForm(formMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return models.NewUploadError(fmt.Sprintf("File size exceeds %dMB limit", media.MaxVideoSize>>20))
	}
	return models.NewValidationError("Invalid multipart form")
}

func (h *PostHandler) store(ctx context.Context, kind media.Kind, fh *multipart.FileHeader) (string, error) {
	data, err := readUpload(fh, kind)
	if err == nil {
		var url string
		url, err = h.media.Store(ctx, kind, data, fh.Header.Get("Content-Type"))
		if err == nil {
			observability.UploadsTotal.WithLabelValues(string(kind), "stored").Inc()
			return url, nil
		}
	}
	observability.UploadsTotal.WithLabelValues(string(kind), "rejected").Inc()
	return "", err
}

// readUpload reads at most one byte past kind's limit so oversize files are
// rejected without being buffered whole.
func readUpload(fh *multipart.FileHeader, kind media.Kind) ([]byte, error) {
	if fh.Size > kind.MaxSize() {
		return nil, models.NewUploadError(fmt.Sprintf("File size exceeds %dMB limit", kind.MaxSize()>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, kind.MaxSize()+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// formFile returns the named non-empty file, or nil when absent or empty.
func formFile(c *gin.Context, name string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	if fh.Size == 0 {
		return nil, nil
	}
	return fh, nil
}

func bindVote(c *gin.Context) (int, error) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return 0, bindingError(err, "Vote value must be 1 (like) or -1 (dislike)")
	}
	if err := forum.ValidateVote(*req.Value); err != nil {
		return 0, err
	}
	return *req.Value, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
