package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/forum"
	"github.com/emilythestrangee/forum/backend/internal/media"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/repository"
	"github.com/emilythestrangee/forum/backend/internal/session"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
}

// Deps is everything the handlers need from the rest of the application.
type Deps struct {
	Repos    *repository.Repositories
	Sessions *session.Manager
	Hasher   auth.Hasher
	Media    media.Storage
	Log      *slog.Logger

	PageSize      int
	SecureCookies bool

	// RequestTimeout bounds the store calls of routes that read their own
	// body, starting once the body is in.
	RequestTimeout time.Duration
	// MaxPostBody caps a create-post request; zero means the largest
	// attachment plus form overhead.
	MaxPostBody int64
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.PageSize < 1 {
		d.PageSize = forum.DefaultPageSize
	}
	if d.MaxPostBody < 1 {
		d.MaxPostBody = media.MaxVideoSize + formOverhead
	}
	return &Handler{
		Auth:    NewAuthHandler(d),
		Post:    NewPostHandler(d),
		Comment: NewCommentHandler(d),
	}
}

// respondError aborts the request with err's status and JSON body. Anything
// that is not a client error is logged and answered with a generic 500.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	appErr, ok := models.AsAppError(err)
	if !ok {
		appErr = models.NewInternalError(err)
	}
	if appErr.Kind == models.KindInternal {
		log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.Status(), appErr.Response())
}

// bindingError turns a gin binding failure into a validation error. Missing
// or empty required fields get message; malformed bodies get a generic one.
func bindingError(err error, message string) *models.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return models.NewValidationError(message)
	}
	return models.NewValidationError("Invalid request body")
}

// idParam reads a numeric path parameter. Anything that cannot name a row is
// reported as the resource not existing.
func idParam(c *gin.Context, name, resource string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, models.NewNotFoundError(resource)
	}
	return id, nil
}

// currentUser returns the authenticated caller. Routes behind RequireAuth
// always have one.
func currentUser(c *gin.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		return auth.Identity{}, models.NewUnauthenticatedError("Not authenticated")
	}
	return id, nil
}
