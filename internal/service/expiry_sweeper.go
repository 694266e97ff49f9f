package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/pkg/jobs"
)

const expireJobType = "proposal.expire"

type proposalExpirer interface {
	ExpireOldProposals(ctx context.Context, asOf time.Time) (int, error)
}

// SweeperConfig configures the periodic expiry job.
type SweeperConfig struct {
	Interval   time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

// ExpirySweeper expires stale proposals on a fixed interval. Each tick is
// dispatched through a single worker queue so sweeps never overlap.
type ExpirySweeper struct {
	expirer  proposalExpirer
	queue    *jobs.Queue
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewExpirySweeper constructs a sweeper.
func NewExpirySweeper(expirer proposalExpirer, cfg SweeperConfig) *ExpirySweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &ExpirySweeper{
		expirer:  expirer,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	s.queue = jobs.NewQueue("expiry-sweeper", s.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     cfg.Logger,
	})
	return s
}

// RunOnce expires everything stale as of asOf.
func (s *ExpirySweeper) RunOnce(ctx context.Context, asOf time.Time) (int, error) {
	return s.expirer.ExpireOldProposals(ctx, asOf)
}

// Run sweeps immediately and then on every interval until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	s.queue.Start(ctx)
	defer s.queue.Stop()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.schedule()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.schedule()
		}
	}
}

func (s *ExpirySweeper) schedule() {
	asOf := s.now().UTC()
	err := s.queue.TryEnqueue(jobs.Job{ID: asOf.Format(time.RFC3339), Type: expireJobType, Payload: asOf})
	if errors.Is(err, jobs.ErrQueueFull) {
		s.logger.Debug("expiry sweep already pending, skipping tick")
		return
	}
	if err != nil {
		s.logger.Warn("failed to schedule expiry sweep", zap.Error(err))
	}
}

func (s *ExpirySweeper) handle(ctx context.Context, job jobs.Job) error {
	asOf, ok := job.Payload.(time.Time)
	if !ok {
		asOf = s.now().UTC()
	}
	_, err := s.RunOnce(ctx, asOf)
	return err
}
