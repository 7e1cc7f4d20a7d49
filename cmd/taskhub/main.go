package main

import (
	"context"
	"log"
	"time"

	"github.com/monocle-dev/taskhub/db"
	"github.com/monocle-dev/taskhub/internal/auth"
	"github.com/monocle-dev/taskhub/internal/cache"
	"github.com/monocle-dev/taskhub/internal/config"
	"github.com/monocle-dev/taskhub/internal/github"
	"github.com/monocle-dev/taskhub/internal/handlers"
	"github.com/monocle-dev/taskhub/internal/repository/memory"
	"github.com/monocle-dev/taskhub/internal/router"
	"github.com/monocle-dev/taskhub/internal/scheduler"
	"github.com/monocle-dev/taskhub/internal/services"
)

const cachePurgeInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	deps, err := openStore(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	jobs := scheduler.NewScheduler()
	defer jobs.Stop()

	deps.Cache, err = openCache(cfg.Cache, jobs)
	if err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}
	deps.Keys = cache.Keys{Prefix: cfg.Cache.Prefix}
	deps.TTL = cfg.Cache.TTL

	guard := services.NewOwnershipGuard(deps.Projects)

	hub := handlers.NewHub(cfg.AllowedOrigins, guard)
	deps.Notifier = hub

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, auth.DefaultTokenTTL)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	fetcher := github.NewClient(deps.Cache, deps.Keys, github.Options{
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHub.Timeout,
		TTL:     cfg.Cache.TTL,
	})

	users := services.NewUserService(deps.Users, auth.NewBcryptHasher())

	r := router.NewRouter(router.Dependencies{
		AllowedOrigins: cfg.AllowedOrigins,
		Tokens:         tokens,
		Users:          users,
		Auth:           handlers.NewAuthHandler(users, tokens, cfg.Domain),
		Projects: handlers.NewProjectHandler(
			services.NewProjectService(deps, guard),
			services.NewGitHubService(deps, guard, fetcher),
		),
		Tasks: handlers.NewTaskHandler(services.NewTaskService(deps, guard)),
		Hub:   hub,
	})

	log.Printf("TaskHub listening on port %s", cfg.Port)

	if err = r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openStore(cfg config.Database) (services.Deps, error) {
	if cfg.Driver == "memory" {
		log.Println("Using in-memory repositories; data will not survive a restart")
		return services.Deps{
			Projects: memory.NewProjectRepository(),
			Tasks:    memory.NewTaskRepository(),
			Users:    memory.NewUserRepository(),
		}, nil
	}

	gdb, err := db.Connect(cfg.Driver, cfg.URL)
	if err != nil {
		return services.Deps{}, err
	}

	if err := db.Migrate(gdb); err != nil {
		return services.Deps{}, err
	}

	return services.Deps{
		Projects: db.NewProjectRepository(gdb),
		Tasks:    db.NewTaskRepository(gdb),
		Users:    db.NewUserRepository(gdb),
	}, nil
}

func openCache(cfg config.Cache, jobs *scheduler.Scheduler) (cache.Cache, error) {
	if cfg.Driver == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		r, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	mem := cache.NewMemory()
	jobs.AddJob("cache-purge", cachePurgeInterval, func(context.Context) {
		if n := mem.Purge(); n > 0 {
			log.Printf("Purged %d expired cache entries", n)
		}
	})

	return mem, nil
}
