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
	ShareTokenStateActive  = 1
	ShareTokenStateRevoked = 2
)

var shareTokenColumns = []string{"id", "list_id", "user_id", "token", "state", "revoked_at", "ctime", "mtime"}

type ShareTokenRepo struct {
	db *sql.DB
}

func NewShareTokenRepo(db *sql.DB) *ShareTokenRepo {
	return &ShareTokenRepo{db: db}
}

// Create inserts a new token record. The partial unique index on
// (list_id) WHERE state = 1 guarantees at most one active token per list;
// a concurrent insert loses with ErrConflict and should re-read.
func (r *ShareTokenRepo) Create(ctx context.Context, token *model.ShareToken) error {
	data := map[string]interface{}{
		"id":         token.ID,
		"list_id":    token.ListID,
		"user_id":    token.UserID,
		"token":      token.Token,
		"state":      token.State,
		"revoked_at": token.RevokedAt,
		"ctime":      token.Ctime,
		"mtime":      token.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("share_tokens", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ShareTokenRepo) GetByToken(ctx context.Context, tokenValue string) (*model.ShareToken, error) {
	where := map[string]interface{}{"token": tokenValue}
	return r.selectOne(ctx, where)
}

func (r *ShareTokenRepo) GetActiveByList(ctx context.Context, listID string) (*model.ShareToken, error) {
	where := map[string]interface{}{
		"list_id": listID,
		"state":   ShareTokenStateActive,
	}
	return r.selectOne(ctx, where)
}

// RevokeByList revokes the current active token of a list, if any.
// Revoking a list with no active token is a no-op.
func (r *ShareTokenRepo) RevokeByList(ctx context.Context, listID string, revokedAt int64) error {
	where := map[string]interface{}{
		"list_id": listID,
		"state":   ShareTokenStateActive,
	}
	update := map[string]interface{}{
		"state":      ShareTokenStateRevoked,
		"revoked_at": revokedAt,
		"mtime":      revokedAt,
	}
	sqlStr, args, err := builder.BuildUpdate("share_tokens", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ShareTokenRepo) selectOne(ctx context.Context, where map[string]interface{}) (*model.ShareToken, error) {
	sqlStr, args, err := builder.BuildSelect("share_tokens", where, shareTokenColumns)
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
	var token model.ShareToken
	if err := rows.Scan(&token.ID, &token.ListID, &token.UserID, &token.Token, &token.State, &token.RevokedAt, &token.Ctime, &token.Mtime); err != nil {
		return nil, err
	}
	return &token, nil
}
