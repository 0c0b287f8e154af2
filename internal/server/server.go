package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/forum/backend/internal/config"
	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/handlers"
	"github.com/emilythestrangee/forum/backend/internal/middleware"
)

type Server struct {
	cfg      *config.Config
	db       database.Service
	handler  *handlers.Handler
	sessions middleware.Resolver
	log      *slog.Logger
}

// Deps are the collaborators the HTTP server routes to.
type Deps struct {
	DB       database.Service
	Handler  *handlers.Handler
	Sessions middleware.Resolver
	Log      *slog.Logger
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config, deps Deps) *http.Server {
	s := &Server{
		cfg:      cfg,
		db:       deps.DB,
		handler:  deps.Handler,
		sessions: deps.Sessions,
		log:      deps.Log,
	}

	// ReadTimeout covers the whole body, so it is sized for the largest
	// upload rather than for ordinary requests.
	return &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.UploadTimeout,
		WriteTimeout:      cfg.UploadTimeout + 30*time.Second,
		ErrorLog:          slog.NewLogLogger(deps.Log.Handler(), slog.LevelError),
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(s.log))
	r.Use(middleware.Metrics())

	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads", s.cfg.UploadDir)

	api := r.Group("/api")

	// Post creation reads a body of up to the video limit; the handler bounds
	// its own store calls once that body is in.
	uploads := api.Group("")
	uploads.Use(middleware.Session(s.sessions, s.log), middleware.RequireAuth())
	uploads.POST("/posts", s.handler.Post.CreatePost)

	api.Use(middleware.Timeout(s.cfg.RequestTimeout))
	api.Use(middleware.Session(s.sessions, s.log))
	{
		// Public routes
		api.POST("/auth/register", s.handler.Auth.Register)
		api.POST("/auth/login", s.handler.Auth.Login)
		api.POST("/auth/logout", s.handler.Auth.Logout)

		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/:id/comments", s.handler.Post.GetComments)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/auth/me", s.handler.Auth.Me)

			protected.POST("/posts/:id/vote", s.handler.Post.VotePost)

			protected.POST("/comments", s.handler.Comment.CreateComment)
			protected.POST("/comments/:id/vote", s.handler.Comment.VoteComment)
		}
	}

	return r
}

// corsConfig allows the configured origins with credentials. A wildcard is
// answered by echoing the caller's origin, since browsers refuse a literal
// "*" on credentialed requests.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	origins := s.cfg.AllowedOrigins()
	if slices.Contains(origins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) health(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": stats["status"], "database": stats})
}
