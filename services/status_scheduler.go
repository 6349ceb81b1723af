package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fieldbook/fieldbook-api/models"
)

// statusJobTimeout bounds one status sweep.
const statusJobTimeout = 30 * time.Second

// StatusScheduler periodically advances tournament statuses by date.
type StatusScheduler struct {
	scheduler gocron.Scheduler
	service   TournamentService
	logger    *slog.Logger
	now       func() time.Time
}

func NewStatusScheduler(service TournamentService, interval time.Duration, logger *slog.Logger) (*StatusScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("status scheduler interval must be positive, got %s", interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &StatusScheduler{
		scheduler: sched,
		service:   service,
		logger:    logger,
		now:       time.Now,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runOnce),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule status job: %w", err)
	}
	return s, nil
}

func (s *StatusScheduler) Start() {
	s.scheduler.Start()
}

func (s *StatusScheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}

func (s *StatusScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), statusJobTimeout)
	defer cancel()

	today := models.DateOf(s.now())
	changed, err := s.service.AutoUpdateStatuses(ctx, today)
	if err != nil {
		s.logger.Error("scheduler: status update failed", slog.Any("error", err))
		return
	}
	if changed > 0 {
		s.logger.Info("scheduler: tournament statuses updated",
			slog.Int("changed", changed),
			slog.String("today", today.String()),
		)
	}
}
