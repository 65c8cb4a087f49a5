package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/app"
	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/database/migration"
	"github.com/Hemanthmaddila/AI-agent/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.Default()

	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	if c.DB != nil {
		migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := migration.Run(migCtx, c.DB.SQLDB()); err != nil {
			migCancel()
			log.Fatalf("migration failed: %v", err)
		}
		migCancel()
	}

	application, err := app.Bootstrap(c)
	if err != nil {
		log.Fatalf("failed to bootstrap app: %v", err)
	}

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(cfg.Scheduler, c.Orchestrator, c.Repo, logger)
		if err := sched.Start(schedCtx); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	addr, err := app.ListenAddr(cfg.HTTP.Port)
	if err != nil {
		log.Fatalf("invalid HTTP port: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Fiber.ShutdownWithContext(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
