package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/packlane/packlane/internal/model"
	"github.com/packlane/packlane/internal/pkg/dbutil"
	appErr "github.com/packlane/packlane/internal/pkg/errors"
)

var cloneJobColumns = []string{"id", "user_id", "source_list_id", "new_list_id", "status", "ctime", "mtime"}

type CloneJobRepo struct {
	db *sql.DB
}

func NewCloneJobRepo(db *sql.DB) *CloneJobRepo {
	return &CloneJobRepo{db: db}
}

func (r *CloneJobRepo) Create(ctx context.Context, job *model.CloneJob) error {
	data := map[string]interface{}{
		"id":             job.ID,
		"user_id":        job.UserID,
		"source_list_id": job.SourceListID,
		"new_list_id":    job.NewListID,
		"status":         job.Status,
		"ctime":          job.Ctime,
		"mtime":          job.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("clone_jobs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *CloneJobRepo) Get(ctx context.Context, jobID string) (*model.CloneJob, error) {
	where := map[string]interface{}{"id": jobID}
	sqlStr, args, err := builder.BuildSelect("clone_jobs", where, cloneJobColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var job model.CloneJob
	if err := rows.Scan(&job.ID, &job.UserID, &job.SourceListID, &job.NewListID, &job.Status, &job.Ctime, &job.Mtime); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *CloneJobRepo) SetNewListID(ctx context.Context, jobID, listID string, mtime int64) error {
	where := map[string]interface{}{"id": jobID}
	update := map[string]interface{}{"new_list_id": listID, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("clone_jobs", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// UpdateStatusIf transitions a job from one status to another, returning
// whether the transition happened. Sweep and completion race through here.
func (r *CloneJobRepo) UpdateStatusIf(ctx context.Context, jobID, fromStatus, toStatus string, mtime int64) (bool, error) {
	where := map[string]interface{}{"id": jobID, "status": fromStatus}
	update := map[string]interface{}{"status": toStatus, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("clone_jobs", where, update)
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListStaleRunning returns jobs still marked running that started before
// cutoff. These are interrupted clones.
func (r *CloneJobRepo) ListStaleRunning(ctx context.Context, cutoff int64) ([]model.CloneJob, error) {
	where := map[string]interface{}{
		"status":   model.CloneJobStatusRunning,
		"ctime <":  cutoff,
		"_orderby": "ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("clone_jobs", where, cloneJobColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	jobs := make([]model.CloneJob, 0)
	for rows.Next() {
		var job model.CloneJob
		if err := rows.Scan(&job.ID, &job.UserID, &job.SourceListID, &job.NewListID, &job.Status, &job.Ctime, &job.Mtime); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *CloneJobRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr, args := dbutil.Finalize("DELETE FROM clone_jobs WHERE ctime < ? AND status != ?", []interface{}{cutoff, model.CloneJobStatusRunning})
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
