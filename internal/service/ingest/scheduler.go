// internal/service/ingest/scheduler.go

package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

// SchedulerConfig contains configuration for scheduled polling
type SchedulerConfig struct {
	// Standard 5-field cron expression. Empty disables scheduling.
	Schedule   string
	Genders    []string
	Categories []string
}

// Scheduler runs catalog syncs and enrichment on a cron schedule
type Scheduler struct {
	ingester trend.Ingester
	config   SchedulerConfig
	logger   *zap.Logger
	cron     *cron.Cron
	parser   cron.Parser
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(ingester trend.Ingester, config SchedulerConfig, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	return &Scheduler{
		ingester: ingester,
		config:   config,
		logger:   logger.Named("scheduler"),
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger), cron.Recover(cron.DefaultLogger)),
		),
		parser: parser,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the polling job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	if s.config.Schedule == "" {
		s.logger.Info("Scheduled polling disabled")
		return nil
	}

	if _, err := s.parser.Parse(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.tick); err != nil {
		return fmt.Errorf("error scheduling ingestion: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduled polling started",
		zap.String("schedule", s.config.Schedule),
		zap.Strings("genders", s.config.Genders),
		zap.Strings("categories", s.config.Categories),
	)

	return nil
}

// Stop stops the cron loop and waits for a running tick to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()

	cronCtx := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one full polling pass: every gender, then every category
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, gender := range s.config.Genders {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.ingester.SyncTrends(ctx, gender); err != nil {
			s.logger.Error("Scheduled trend sync failed", zap.String("gender", gender), zap.Error(err))
		}
	}

	for _, category := range s.config.Categories {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.ingester.EnrichCategory(ctx, category); err != nil {
			s.logger.Error("Scheduled enrichment failed", zap.String("category", category), zap.Error(err))
		}
	}
}

func (s *Scheduler) tick() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.logger.Info("Scheduled polling tick")
	s.RunOnce(s.ctx)
}
