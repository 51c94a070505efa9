package handler_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/packlane/packlane/internal/config"
	"github.com/packlane/packlane/internal/filestore"
	"github.com/packlane/packlane/internal/guard"
	"github.com/packlane/packlane/internal/handler"
	"github.com/packlane/packlane/internal/middleware"
	"github.com/packlane/packlane/internal/model"
	"github.com/packlane/packlane/internal/pkg/jwt"
	"github.com/packlane/packlane/internal/pkg/timeutil"
	"github.com/packlane/packlane/internal/repo"
	"github.com/packlane/packlane/internal/service"
	"github.com/packlane/packlane/test/testutil"
)

var testJWTSecret = []byte("test-secret")

type routerEnv struct {
	db         *sql.DB
	lists      *repo.ListRepo
	categories *repo.CategoryRepo
	items      *repo.ItemRepo
}

func newTestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setupRouter(t *testing.T) (http.Handler, *routerEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	lists := repo.NewListRepo(db)
	categories := repo.NewCategoryRepo(db)
	items := repo.NewItemRepo(db)
	globals := repo.NewGlobalItemRepo(db)
	tokens := repo.NewShareTokenRepo(db)
	jobs := repo.NewCloneJobRepo(db)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Dir:  t.TempDir(),
	})
	require.NoError(t, err)

	copyGuard := guard.NewMemoryGuard(5 * time.Second)
	shareService := service.NewShareService(lists, categories, items, tokens, store, 0, 0)
	cloneService := service.NewCloneService(lists, categories, items, globals, jobs, shareService, copyGuard, 5*time.Second)

	deps := handler.RouterDeps{
		Shares:    handler.NewShareHandler(shareService, cloneService),
		Files:     handler.NewFileHandler(store, 20*1024*1024),
		JWTSecret: testJWTSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	env := &routerEnv{db: db, lists: lists, categories: categories, items: items}
	return engine, env, cleanup
}

func authToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *routerEnv) seedList(t *testing.T, userID, title string) *model.List {
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
	require.NoError(t, e.lists.Create(context.Background(), list))
	return list
}

func (e *routerEnv) seedCategory(t *testing.T, list *model.List, title string, position int) *model.Category {
	t.Helper()
	now := timeutil.NowUnix()
	category := &model.Category{
		ID:       newTestID(),
		ListID:   list.ID,
		UserID:   list.UserID,
		Title:    title,
		Position: position,
		Ctime:    now,
		Mtime:    now,
	}
	require.NoError(t, e.categories.Create(context.Background(), category))
	return category
}

func (e *routerEnv) seedItem(t *testing.T, list *model.List, categoryID, name string, weight int) *model.Item {
	t.Helper()
	now := timeutil.NowUnix()
	item := &model.Item{
		ID:          newTestID(),
		ListID:      list.ID,
		CategoryID:  categoryID,
		UserID:      list.UserID,
		Name:        name,
		WeightGrams: weight,
		Quantity:    1,
		Ctime:       now,
		Mtime:       now,
	}
	require.NoError(t, e.items.Create(context.Background(), item))
	return item
}
