package app

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/database"
	dbpostgres "github.com/Hemanthmaddila/AI-agent/internal/database/postgres"
	"github.com/Hemanthmaddila/AI-agent/internal/interact"
	"github.com/Hemanthmaddila/AI-agent/internal/repository"
	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
	"github.com/Hemanthmaddila/AI-agent/internal/session"
	"github.com/Hemanthmaddila/AI-agent/internal/vision"
)

// Container holds the wired application graph. Postgres and Redis are
// optional backing services: the agent degrades to in-memory sessions and
// no persistence when either is unreachable, so a laptop run needs nothing
// but Chrome.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Redis redis.UniversalClient

	Sessions     session.Store
	Vision       *vision.Client
	Actor        *interact.Actor
	Orchestrator *scraper.Orchestrator
	Repo         *repository.PostingRepository
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Printf("[App] postgres unavailable, persistence disabled: %v", err)
	} else {
		c.DB = db
		c.Repo = repository.NewPostingRepository(db)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Printf("[App] redis unavailable, using in-memory session store: %v", err)
		_ = rdb.Close()
		c.Sessions = session.NewMemoryStore(cfg.Session.TTL)
	} else {
		c.Redis = rdb
		c.Sessions = session.NewRedisStore(rdb, cfg.Session.TTL, cfg.Session.EncryptionKey)
	}

	c.Vision = vision.NewClient(cfg.Vision.BaseURL, cfg.Vision.Model, cfg.Vision.Timeout, logger)
	c.Actor = interact.NewActor(c.Vision, interact.Config{
		MaxAttempts:         cfg.Scraper.MaxFallbackAttempts,
		ConfidenceThreshold: cfg.Scraper.ConfidenceThreshold,
		MinActionDelay:      cfg.Scraper.MinActionDelay,
		MaxActionDelay:      cfg.Scraper.MaxActionDelay,
	}, logger)

	orch := scraper.NewOrchestrator(scraper.OrchestratorConfig{
		MaxParallel:    cfg.Orchestrator.MaxParallel,
		AdapterTimeout: cfg.Orchestrator.AdapterTimeout,
	}, logger)
	orch.Register(scraper.NewLinkedInAdapter(cfg.Scraper, c.Actor, c.Sessions, logger))
	orch.Register(scraper.NewIndeedAdapter(cfg.Scraper, c.Actor, logger))
	orch.Register(scraper.NewRemoteCoAdapter(cfg.Scraper, logger))
	orch.Register(scraper.NewWellfoundAdapter(cfg.Scraper, c.Actor, logger))
	orch.Register(scraper.NewStackOverflowAdapter(cfg.Scraper, c.Actor, logger))
	c.Orchestrator = orch

	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
