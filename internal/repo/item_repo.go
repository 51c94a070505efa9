package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/packlane/packlane/internal/model"
	"github.com/packlane/packlane/internal/pkg/dbutil"
)

var itemColumns = []string{
	"id", "list_id", "category_id", "global_item_id", "user_id",
	"name", "brand", "notes", "weight_grams", "price_cents",
	"link", "image", "affiliate_url", "worn", "consumable",
	"quantity", "position", "ctime", "mtime",
}

type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

func (r *ItemRepo) Create(ctx context.Context, item *model.Item) error {
	data := map[string]interface{}{
		"id":             item.ID,
		"list_id":        item.ListID,
		"category_id":    item.CategoryID,
		"global_item_id": item.GlobalItemID,
		"user_id":        item.UserID,
		"name":           item.Name,
		"brand":          item.Brand,
		"notes":          item.Notes,
		"weight_grams":   item.WeightGrams,
		"price_cents":    item.PriceCents,
		"link":           item.Link,
		"image":          item.Image,
		"affiliate_url":  item.AffiliateURL,
		"worn":           item.Worn,
		"consumable":     item.Consumable,
		"quantity":       item.Quantity,
		"position":       item.Position,
		"ctime":          item.Ctime,
		"mtime":          item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("items", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListByList returns the items of a list in position order.
func (r *ItemRepo) ListByList(ctx context.Context, listID string) ([]model.Item, error) {
	where := map[string]interface{}{
		"list_id":  listID,
		"_orderby": "position asc, ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("items", where, itemColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Item, 0)
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(
			&item.ID, &item.ListID, &item.CategoryID, &item.GlobalItemID, &item.UserID,
			&item.Name, &item.Brand, &item.Notes, &item.WeightGrams, &item.PriceCents,
			&item.Link, &item.Image, &item.AffiliateURL, &item.Worn, &item.Consumable,
			&item.Quantity, &item.Position, &item.Ctime, &item.Mtime,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ItemRepo) DeleteByList(ctx context.Context, listID string) error {
	sqlStr, args := dbutil.Finalize("DELETE FROM items WHERE list_id = ?", []interface{}{listID})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
