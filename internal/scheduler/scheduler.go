// Package scheduler runs recurring background searches so the posting store
// stays fresh without anyone hitting the API.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
	"github.com/Hemanthmaddila/AI-agent/internal/repository"
	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
)

type Scheduler struct {
	cron   *cron.Cron
	orch   *scraper.Orchestrator
	repo   *repository.PostingRepository
	cfg    config.SchedulerConfig
	logger *log.Logger
}

func New(cfg config.SchedulerConfig, orch *scraper.Orchestrator, repo *repository.PostingRepository, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		orch:   orch,
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.orch == nil {
		return fmt.Errorf("nil scheduler/orchestrator")
	}
	if strings.TrimSpace(s.cfg.Keywords) == "" {
		return fmt.Errorf("scheduler enabled but no keywords configured")
	}

	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		s.runSearch(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logf("cron started | spec=%s keywords=%q", s.cfg.Spec, s.cfg.Keywords)
	return nil
}

func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logf("cron stopped")
}

func (s *Scheduler) runSearch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logf("scheduled search started")

	report := s.orch.Run(ctx, job.SearchRequest{
		Keywords: s.cfg.Keywords,
		Location: s.cfg.Location,
	})

	persisted := 0
	if s.repo != nil {
		n, err := s.repo.SaveAll(ctx, report.Postings)
		if err != nil {
			s.logf("persist postings: %v", err)
		}
		persisted = n
	}

	s.logf("scheduled search done | postings=%d duplicates_removed=%d persisted=%d elapsed=%s",
		len(report.Postings), report.DuplicatesRemoved, persisted, report.Elapsed)
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf("[Scheduler] "+format, args...)
	}
}
