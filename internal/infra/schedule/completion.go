package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Completer closes confirmed bookings whose session is over.
type Completer interface {
	CompleteEnded(ctx context.Context, now time.Time) (int, error)
}

// CompletionScheduler runs the completion sweep on a cron schedule.
type CompletionScheduler struct {
	cron      *cron.Cron
	completer Completer
	logger    *slog.Logger
	now       func() time.Time
}

func NewCompletionScheduler(completer Completer, logger *slog.Logger) *CompletionScheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CompletionScheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		completer: completer,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the sweep under spec, runs it once right away and starts
// the cron loop.
func (s *CompletionScheduler) Start(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}
	s.logger.Info("completion sweep scheduled", "schedule", spec)
	s.RunOnce(ctx)
	s.cron.Start()
	return nil
}

func (s *CompletionScheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.completer.CompleteEnded(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("completion sweep failed", "completed", n, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("completion sweep finished", "completed", n)
	}
}

func (s *CompletionScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CompletionScheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
