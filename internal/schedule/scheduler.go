package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named unit of periodic maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs maintenance jobs on standard 5-field cron
// expressions. A job still running when its next tick fires is skipped,
// never overlapped.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{cron: cron.New(cron.WithParser(parser))}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	var busy atomic.Bool
	if _, err := c.cron.AddFunc(spec, func() {
		c.runOnce(job, &busy)
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", job.Name()),
		zap.String("spec", spec),
	)
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) runOnce(job Job, busy *atomic.Bool) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
	if !busy.CompareAndSwap(false, true) {
		logger.Info("previous run still active, skipping tick")
		return
	}
	defer busy.Store(false)

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.Error("job run failed", zap.Error(err), zap.Duration("cost", time.Since(start)))
		return
	}
	logger.Info("job run finished", zap.Duration("cost", time.Since(start)))
}
