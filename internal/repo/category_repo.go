package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/packlane/packlane/internal/model"
	"github.com/packlane/packlane/internal/pkg/dbutil"
)

var categoryColumns = []string{"id", "list_id", "user_id", "title", "position", "ctime", "mtime"}

type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Create(ctx context.Context, category *model.Category) error {
	data := map[string]interface{}{
		"id":       category.ID,
		"list_id":  category.ListID,
		"user_id":  category.UserID,
		"title":    category.Title,
		"position": category.Position,
		"ctime":    category.Ctime,
		"mtime":    category.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("categories", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListByList returns the categories of a list in position order.
func (r *CategoryRepo) ListByList(ctx context.Context, listID string) ([]model.Category, error) {
	where := map[string]interface{}{
		"list_id":  listID,
		"_orderby": "position asc, ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("categories", where, categoryColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := make([]model.Category, 0)
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(&category.ID, &category.ListID, &category.UserID, &category.Title, &category.Position, &category.Ctime, &category.Mtime); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepo) DeleteByList(ctx context.Context, listID string) error {
	sqlStr, args := dbutil.Finalize("DELETE FROM categories WHERE list_id = ?", []interface{}{listID})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
