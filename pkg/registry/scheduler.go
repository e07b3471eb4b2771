package registry

import (
	"context"
	"fmt"

	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler reloads a registry on a cron schedule. It is the way to pick up
// changes of sources that cannot be watched, such as S3 objects.
type Scheduler struct {
	registry *Registry
	cron     *cron.Cron
	logger   *logrus.Logger
	ctx      context.Context
}

// NewScheduler creates a scheduler for a standard five field cron spec or a
// descriptor such as "@every 5m".
func NewScheduler(registry *Registry, spec string, logger *logrus.Logger) (*Scheduler, error) {
	logger = observability.OrDefault(logger)
	cronLogger := cron.PrintfLogger(logger)
	s := &Scheduler{
		registry: registry,
		logger:   logger,
		ctx:      context.Background(),
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
	}

	if _, err := s.cron.AddFunc(spec, s.reload); err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) reload() {
	if _, err := s.registry.Reload(s.ctx, TriggerSchedule); err != nil {
		s.logger.WithError(err).Warn("Scheduled reload failed")
	}
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running reload to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("Started reload scheduler")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
