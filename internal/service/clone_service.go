package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/packlane/packlane/internal/guard"
	"github.com/packlane/packlane/internal/model"
	appErr "github.com/packlane/packlane/internal/pkg/errors"
	"github.com/packlane/packlane/internal/pkg/timeutil"
	"github.com/packlane/packlane/internal/repo"
)

const copyTitleSuffix = " (copy)"

type CloneService struct {
	lists        *repo.ListRepo
	categories   *repo.CategoryRepo
	items        *repo.ItemRepo
	globals      *repo.GlobalItemRepo
	jobs         *repo.CloneJobRepo
	shares       *ShareService
	guard        guard.Guard
	dedupeWindow time.Duration
}

func NewCloneService(lists *repo.ListRepo, categories *repo.CategoryRepo, items *repo.ItemRepo, globals *repo.GlobalItemRepo, jobs *repo.CloneJobRepo, shares *ShareService, g guard.Guard, dedupeWindow time.Duration) *CloneService {
	return &CloneService{
		lists:        lists,
		categories:   categories,
		items:        items,
		globals:      globals,
		jobs:         jobs,
		shares:       shares,
		guard:        g,
		dedupeWindow: dedupeWindow,
	}
}

type CopyResult struct {
	ListID  string `json:"list_id"`
	Created bool   `json:"created"`
}

// CopyListForUser materializes an independent copy of the shared list's
// entity graph for userID: a new list, cloned global item templates,
// cloned categories, and cloned items with their references remapped into
// the new graph. The writes have no transactional envelope; an
// interruption leaves a partial graph behind, which the clone job record
// and sweep job account for.
func (s *CloneService) CopyListForUser(ctx context.Context, tokenValue, userID string) (*CopyResult, error) {
	if userID == "" {
		return nil, appErr.ErrUnauthorized
	}
	token, err := s.shares.ResolveActive(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	src, err := s.lists.GetByID(ctx, token.ListID)
	if appErr.IsNotFound(err) {
		s.shares.logDenied(ctx, denyReasonListGone)
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	lockKey := guard.Key(userID, src.ID)
	acquired, err := s.guard.TryAcquire(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, appErr.ErrCopyInProgress
	}
	defer func() {
		if releaseErr := s.guard.Release(context.WithoutCancel(ctx), lockKey); releaseErr != nil {
			logutil.GetLogger(ctx).Warn("release copy lock failed", zap.Error(releaseErr))
		}
	}()

	// A retried request can land after the first copy finished and
	// released its lock. Catch it through the store while the duplicate
	// submission risk is still live.
	now := timeutil.NowUnix()
	since := now - int64(s.dedupeWindow/time.Second)
	recent, err := s.lists.FindRecentByTitles(ctx, userID, []string{src.Title, src.Title + copyTitleSuffix}, since)
	if err == nil {
		logutil.GetLogger(ctx).Info("copy short-circuited by dedupe window",
			zap.String("source_list_id", src.ID),
			zap.String("list_id", recent.ID),
		)
		return &CopyResult{ListID: recent.ID, Created: false}, nil
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}

	job := &model.CloneJob{
		ID:           newID(),
		UserID:       userID,
		SourceListID: src.ID,
		Status:       model.CloneJobStatusRunning,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	newListID, err := s.cloneGraph(ctx, src, userID, job.ID)
	if err != nil {
		if _, markErr := s.jobs.UpdateStatusIf(ctx, job.ID, model.CloneJobStatusRunning, model.CloneJobStatusFailed, timeutil.NowUnix()); markErr != nil {
			logutil.GetLogger(ctx).Warn("mark clone job failed", zap.Error(markErr))
		}
		return nil, err
	}
	if _, err := s.jobs.UpdateStatusIf(ctx, job.ID, model.CloneJobStatusRunning, model.CloneJobStatusDone, timeutil.NowUnix()); err != nil {
		logutil.GetLogger(ctx).Warn("mark clone job done", zap.Error(err))
	}
	logutil.GetLogger(ctx).Info("list copied",
		zap.String("source_list_id", src.ID),
		zap.String("list_id", newListID),
	)
	return &CopyResult{ListID: newListID, Created: true}, nil
}

func (s *CloneService) cloneGraph(ctx context.Context, src *model.List, userID, jobID string) (string, error) {
	categories, err := s.categories.ListByList(ctx, src.ID)
	if err != nil {
		return "", err
	}
	items, err := s.items.ListByList(ctx, src.ID)
	if err != nil {
		return "", err
	}

	now := timeutil.NowUnix()
	newList := &model.List{
		ID:          newID(),
		UserID:      userID,
		Title:       src.Title + copyTitleSuffix,
		Description: src.Description,
		Region:      src.Region,
		Currency:    src.Currency,
		State:       repo.ListStateNormal,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.lists.Create(ctx, newList); err != nil {
		return "", err
	}
	if err := s.jobs.SetNewListID(ctx, jobID, newList.ID, now); err != nil {
		logutil.GetLogger(ctx).Warn("record clone job list id", zap.Error(err))
	}

	globalMap, err := s.cloneGlobalItems(ctx, items, userID)
	if err != nil {
		return "", err
	}

	// Categories before items: items dereference the category mapping.
	categoryMap := make(map[string]string, len(categories))
	for _, category := range categories {
		newCategory := &model.Category{
			ID:       newID(),
			ListID:   newList.ID,
			UserID:   userID,
			Title:    category.Title,
			Position: category.Position,
			Ctime:    now,
			Mtime:    now,
		}
		if err := s.categories.Create(ctx, newCategory); err != nil {
			return "", err
		}
		categoryMap[category.ID] = newCategory.ID
	}

	for _, item := range items {
		newItem := item
		newItem.ID = newID()
		newItem.ListID = newList.ID
		newItem.UserID = userID
		newItem.CategoryID = categoryMap[item.CategoryID]
		newItem.Ctime = now
		newItem.Mtime = now
		if item.GlobalItemID != "" {
			if mapped, ok := globalMap[item.GlobalItemID]; ok {
				newItem.GlobalItemID = mapped
			}
			// No mapping means the template could not be loaded;
			// the item keeps the original reference rather than
			// losing it. The denormalized fields keep it rendering.
		}
		if err := s.items.Create(ctx, &newItem); err != nil {
			return "", err
		}
	}
	return newList.ID, nil
}

// cloneGlobalItems copies the distinct set of templates referenced by the
// source items, in first-reference order, and returns old id -> new id.
func (s *CloneService) cloneGlobalItems(ctx context.Context, items []model.Item, userID string) (map[string]string, error) {
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, item := range items {
		if item.GlobalItemID == "" {
			continue
		}
		if _, ok := seen[item.GlobalItemID]; ok {
			continue
		}
		seen[item.GlobalItemID] = struct{}{}
		ids = append(ids, item.GlobalItemID)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	sources, err := s.globals.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.GlobalItem, len(sources))
	for _, source := range sources {
		byID[source.ID] = source
	}
	now := timeutil.NowUnix()
	mapping := make(map[string]string, len(sources))
	for _, id := range ids {
		source, ok := byID[id]
		if !ok {
			// Dangling reference in the source graph; nothing to
			// clone for it.
			continue
		}
		clone := source
		clone.ID = newID()
		clone.UserID = userID
		clone.ImportedFromShare = 1
		clone.Ctime = now
		clone.Mtime = now
		if err := s.globals.Create(ctx, &clone); err != nil {
			return nil, err
		}
		mapping[id] = clone.ID
	}
	return mapping, nil
}
