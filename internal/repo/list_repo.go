package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/packlane/packlane/internal/model"
	"github.com/packlane/packlane/internal/pkg/dbutil"
	appErr "github.com/packlane/packlane/internal/pkg/errors"
)

const (
	ListStateNormal  = 1
	ListStateDeleted = 2
)

var listColumns = []string{"id", "user_id", "title", "description", "region", "currency", "state", "ctime", "mtime"}

type ListRepo struct {
	db *sql.DB
}

func NewListRepo(db *sql.DB) *ListRepo {
	return &ListRepo{db: db}
}

func (r *ListRepo) Create(ctx context.Context, list *model.List) error {
	data := map[string]interface{}{
		"id":          list.ID,
		"user_id":     list.UserID,
		"title":       list.Title,
		"description": list.Description,
		"region":      list.Region,
		"currency":    list.Currency,
		"state":       list.State,
		"ctime":       list.Ctime,
		"mtime":       list.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("lists", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// GetByID loads a list without an owner scope. Public share resolution and
// the clone engine read lists they do not own.
func (r *ListRepo) GetByID(ctx context.Context, listID string) (*model.List, error) {
	where := map[string]interface{}{
		"id":    listID,
		"state": ListStateNormal,
	}
	return r.selectOne(ctx, where)
}

func (r *ListRepo) GetByOwner(ctx context.Context, userID, listID string) (*model.List, error) {
	where := map[string]interface{}{
		"id":      listID,
		"user_id": userID,
		"state":   ListStateNormal,
	}
	return r.selectOne(ctx, where)
}

// FindRecentByTitles returns the newest list owned by userID whose title is
// one of titles and which was created at or after since. Used for the
// copy dedupe window.
func (r *ListRepo) FindRecentByTitles(ctx context.Context, userID string, titles []string, since int64) (*model.List, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"title in": titles,
		"ctime >=": since,
		"state":    ListStateNormal,
		"_orderby": "ctime desc",
		"_limit":   []uint{0, 1},
	}
	return r.selectOne(ctx, where)
}

func (r *ListRepo) Delete(ctx context.Context, listID string, mtime int64) error {
	where := map[string]interface{}{"id": listID}
	update := map[string]interface{}{"state": ListStateDeleted, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("lists", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ListRepo) selectOne(ctx context.Context, where map[string]interface{}) (*model.List, error) {
	sqlStr, args, err := builder.BuildSelect("lists", where, listColumns)
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
	var list model.List
	if err := rows.Scan(&list.ID, &list.UserID, &list.Title, &list.Description, &list.Region, &list.Currency, &list.State, &list.Ctime, &list.Mtime); err != nil {
		return nil, err
	}
	return &list, nil
}
