// Command seed populates the database with fake forum data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/config"
	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/logging"
	"github.com/emilythestrangee/forum/backend/internal/seed"
)

func main() {
	users := flag.Int("users", 20, "Number of users to create")
	posts := flag.Int("posts", 60, "Number of posts to create")
	comments := flag.Int("comments", 12, "Maximum comments per post")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logging.Setup(cfg.IsProduction())

	db, err := database.New(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	s := seed.New(db.GetDB(), auth.NewBcryptHasher(cfg.BcryptCost), *randSeed, log)
	if *clean {
		if err := s.Clear(ctx); err != nil {
			log.Error("cleanup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if _, err := s.Run(ctx, seed.Options{Users: *users, Posts: *posts, CommentsPerPost: *comments}); err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("all seeded users share one password", slog.String("password", seed.Password))
}
