package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/packlane/packlane/internal/model"
	"github.com/packlane/packlane/internal/pkg/dbutil"
	appErr "github.com/packlane/packlane/internal/pkg/errors"
)

var globalItemColumns = []string{
	"id", "user_id", "name", "brand", "weight_grams", "price_cents",
	"link", "image", "affiliate_url", "affiliate_source", "imported_from_share",
	"ctime", "mtime",
}

type GlobalItemRepo struct {
	db *sql.DB
}

func NewGlobalItemRepo(db *sql.DB) *GlobalItemRepo {
	return &GlobalItemRepo{db: db}
}

func (r *GlobalItemRepo) Create(ctx context.Context, item *model.GlobalItem) error {
	data := map[string]interface{}{
		"id":                  item.ID,
		"user_id":             item.UserID,
		"name":                item.Name,
		"brand":               item.Brand,
		"weight_grams":        item.WeightGrams,
		"price_cents":         item.PriceCents,
		"link":                item.Link,
		"image":               item.Image,
		"affiliate_url":       item.AffiliateURL,
		"affiliate_source":    item.AffiliateSource,
		"imported_from_share": item.ImportedFromShare,
		"ctime":               item.Ctime,
		"mtime":               item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("global_items", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *GlobalItemRepo) GetByID(ctx context.Context, id string) (*model.GlobalItem, error) {
	items, err := r.ListByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

// ListByIDs loads templates without an owner scope; the clone engine reads
// templates belonging to the source list's owner.
func (r *GlobalItemRepo) ListByIDs(ctx context.Context, ids []string) ([]model.GlobalItem, error) {
	if len(ids) == 0 {
		return []model.GlobalItem{}, nil
	}
	where := map[string]interface{}{"id in": ids}
	sqlStr, args, err := builder.BuildSelect("global_items", where, globalItemColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.GlobalItem, 0, len(ids))
	for rows.Next() {
		var item model.GlobalItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Name, &item.Brand, &item.WeightGrams, &item.PriceCents,
			&item.Link, &item.Image, &item.AffiliateURL, &item.AffiliateSource, &item.ImportedFromShare,
			&item.Ctime, &item.Mtime,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
