// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Func is one run of a job. It must return when ctx is done.
type Func func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

type Option func(*Scheduler)

// WithTimeout bounds each run. The default is one minute.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

func NewScheduler(opts ...Option) *Scheduler {
	log := cronLogger{logger.GetLogger().Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		timeout: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers fn under name on a cron spec such as "@every 15m".
func (s *Scheduler) Add(spec, name string, fn Func) error {
	_, err := s.cron.AddFunc(spec, func() { s.Run(name, fn) })
	if err != nil {
		return err
	}
	logger.GetLogger().Info("Job scheduled",
		zap.String("job", name),
		zap.String("spec", spec),
	)
	return nil
}

// Run executes fn once with the job timeout, recording the outcome.
func (s *Scheduler) Run(name string, fn Func) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.JobRun(name, err == nil)

	if err != nil {
		logger.GetLogger().Error("Job failed",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	logger.GetLogger().Debug("Job finished",
		zap.String("job", name),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logger.GetLogger().Warn("Jobs still running at shutdown")
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
