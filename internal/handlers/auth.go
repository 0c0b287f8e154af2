package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/middleware"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/repository"
	"github.com/emilythestrangee/forum/backend/internal/session"
)

type AuthHandler struct {
	users    repository.UserRepository
	sessions *session.Manager
	hasher   auth.Hasher
	log      *slog.Logger
	secure   bool
}

func NewAuthHandler(d Deps) *AuthHandler {
	return &AuthHandler{
		users:    d.Repos.Users,
		sessions: d.Sessions,
		hasher:   d.Hasher,
		log:      d.Log,
		secure:   d.SecureCookies,
	}
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindingError(err, "Email and password are required"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !auth.ValidEmail(req.Email) {
		respondError(c, h.log, models.NewValidationError("Invalid email address"))
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		respondError(c, h.log, models.NewValidationError("Password must be at least 6 characters long"))
		return
	}

	digest, err := h.hasher.Hash(req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	user := &models.User{Email: req.Email, PasswordHash: digest}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		respondError(c, h.log, err)
		return
	}

	token, err := h.startSession(c, user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.InfoContext(c.Request.Context(), "user registered", slog.Int("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login checks credentials and starts a session. Unknown emails and wrong
// passwords get the same answer.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindingError(err, "Email and password are required"))
		return
	}

	invalid := models.NewUnauthenticatedError("Invalid email or password")
	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if models.IsKind(err, models.KindNotFound) {
		respondError(c, h.log, invalid)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ok, err := h.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !ok {
		respondError(c, h.log, invalid)
		return
	}

	token, err := h.startSession(c, user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout deletes the caller's session, if any, and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), middleware.TokenFromRequest(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	id, err := currentUser(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) startSession(c *gin.Context, userID int) (string, error) {
	token, expiresAt, err := h.sessions.Create(c.Request.Context(), userID)
	if err != nil {
		return "", err
	}
	h.setCookie(c, token, int(time.Until(expiresAt).Seconds()))
	return token, nil
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.secure, true)
}
