package repo_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packlane/packlane/internal/model"
	appErr "github.com/packlane/packlane/internal/pkg/errors"
	"github.com/packlane/packlane/internal/pkg/timeutil"
	"github.com/packlane/packlane/internal/repo"
	"github.com/packlane/packlane/test/testutil"
)

func newTestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func seedList(t *testing.T, lists *repo.ListRepo, userID, title string) *model.List {
	t.Helper()
	now := timeutil.NowUnix()
	list := &model.List{
		ID:       newTestID(),
		UserID:   userID,
		Title:    title,
		Currency: "EUR",
		State:    repo.ListStateNormal,
		Ctime:    now,
		Mtime:    now,
	}
	require.NoError(t, lists.Create(context.Background(), list))
	return list
}

func newShareToken(listID, userID string) *model.ShareToken {
	now := timeutil.NowUnix()
	return &model.ShareToken{
		ID:     newTestID(),
		ListID: listID,
		UserID: userID,
		Token:  newTestID() + newTestID(),
		State:  repo.ShareTokenStateActive,
		Ctime:  now,
		Mtime:  now,
	}
}

func TestShareTokenRepoActiveUniquePerList(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	tokens := repo.NewShareTokenRepo(db)
	lists := repo.NewListRepo(db)
	list := seedList(t, lists, "user-1", "Alps Trip")

	first := newShareToken(list.ID, "user-1")
	require.NoError(t, tokens.Create(ctx, first))

	second := newShareToken(list.ID, "user-1")
	err := tokens.Create(ctx, second)
	require.ErrorIs(t, err, appErr.ErrConflict)

	active, err := tokens.GetActiveByList(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, first.Token, active.Token)
}

func TestShareTokenRepoRevokeThenReissue(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	tokens := repo.NewShareTokenRepo(db)
	lists := repo.NewListRepo(db)
	list := seedList(t, lists, "user-1", "Alps Trip")

	first := newShareToken(list.ID, "user-1")
	require.NoError(t, tokens.Create(ctx, first))

	revokedAt := timeutil.NowUnix()
	require.NoError(t, tokens.RevokeByList(ctx, list.ID, revokedAt))

	_, err := tokens.GetActiveByList(ctx, list.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// The revoked row survives for resolution logging.
	revoked, err := tokens.GetByToken(ctx, first.Token)
	require.NoError(t, err)
	require.Equal(t, repo.ShareTokenStateRevoked, revoked.State)
	require.Equal(t, revokedAt, revoked.RevokedAt)

	// Revoking again is a no-op.
	require.NoError(t, tokens.RevokeByList(ctx, list.ID, revokedAt+10))
	again, err := tokens.GetByToken(ctx, first.Token)
	require.NoError(t, err)
	require.Equal(t, revokedAt, again.RevokedAt)

	// With the partial index freed, a fresh token can be issued.
	replacement := newShareToken(list.ID, "user-1")
	require.NoError(t, tokens.Create(ctx, replacement))
	active, err := tokens.GetActiveByList(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, replacement.Token, active.Token)
}

func TestShareTokenRepoGetByTokenUnknown(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	tokens := repo.NewShareTokenRepo(db)
	_, err := tokens.GetByToken(context.Background(), "no-such-token")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestShareTokenRepoActivePerListIsolated(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	tokens := repo.NewShareTokenRepo(db)
	lists := repo.NewListRepo(db)

	listA := seedList(t, lists, "user-1", "Alps Trip")
	listB := seedList(t, lists, "user-1", "Desert Trip")

	require.NoError(t, tokens.Create(ctx, newShareToken(listA.ID, "user-1")))
	require.NoError(t, tokens.Create(ctx, newShareToken(listB.ID, "user-1")))
}
