package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/packlane/packlane/internal/model"
	"github.com/packlane/packlane/internal/pkg/timeutil"
	"github.com/packlane/packlane/internal/repo"
)

// LockSweeper is implemented by the in-memory concurrency guard; the redis
// backend expires keys on its own.
type LockSweeper interface {
	Sweep()
}

// CloneSweepJob marks clone jobs stuck in running as abandoned. An
// abandoned job means the process died mid-clone and may have left a
// partial list graph behind. With purge enabled the partial graph is
// removed; by default it is only reported, since whether users should
// keep partial copies is a product decision.
type CloneSweepJob struct {
	jobs       *repo.CloneJobRepo
	lists      *repo.ListRepo
	categories *repo.CategoryRepo
	items      *repo.ItemRepo
	sweeper    LockSweeper
	maxAge     time.Duration
	purge      bool
}

func NewCloneSweepJob(jobs *repo.CloneJobRepo, lists *repo.ListRepo, categories *repo.CategoryRepo, items *repo.ItemRepo, sweeper LockSweeper, maxAge time.Duration, purge bool) *CloneSweepJob {
	return &CloneSweepJob{
		jobs:       jobs,
		lists:      lists,
		categories: categories,
		items:      items,
		sweeper:    sweeper,
		maxAge:     maxAge,
		purge:      purge,
	}
}

func (j *CloneSweepJob) Name() string {
	return "clone_sweep"
}

func (j *CloneSweepJob) Run(ctx context.Context) error {
	if j.sweeper != nil {
		j.sweeper.Sweep()
	}
	if j.jobs == nil {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	now := timeutil.NowUnix()
	cutoff := now - int64(maxAge/time.Second)
	stale, err := j.jobs.ListStaleRunning(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, staleJob := range stale {
		moved, err := j.jobs.UpdateStatusIf(ctx, staleJob.ID, model.CloneJobStatusRunning, model.CloneJobStatusAbandoned, now)
		if err != nil {
			return err
		}
		if !moved {
			// The clone finished between listing and marking.
			continue
		}
		logutil.GetLogger(ctx).Warn("abandoned clone job",
			zap.String("job_id", staleJob.ID),
			zap.String("user_id", staleJob.UserID),
			zap.String("source_list_id", staleJob.SourceListID),
			zap.String("new_list_id", staleJob.NewListID),
			zap.Bool("purge", j.purge),
		)
		if j.purge && staleJob.NewListID != "" {
			if err := j.purgeGraph(ctx, staleJob.NewListID); err != nil {
				return err
			}
		}
	}
	// Old terminal jobs are audit noise after a day.
	if _, err := j.jobs.DeleteBefore(ctx, now-int64((24*time.Hour)/time.Second)); err != nil {
		return err
	}
	return nil
}

func (j *CloneSweepJob) purgeGraph(ctx context.Context, listID string) error {
	if err := j.items.DeleteByList(ctx, listID); err != nil {
		return err
	}
	if err := j.categories.DeleteByList(ctx, listID); err != nil {
		return err
	}
	return j.lists.Delete(ctx, listID, timeutil.NowUnix())
}
