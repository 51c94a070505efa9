package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/packlane/packlane/internal/config"
	"github.com/packlane/packlane/internal/filestore"
	"github.com/packlane/packlane/internal/guard"
	"github.com/packlane/packlane/internal/handler"
	"github.com/packlane/packlane/internal/job"
	"github.com/packlane/packlane/internal/middleware"
	"github.com/packlane/packlane/internal/repo"
	"github.com/packlane/packlane/internal/schedule"
	"github.com/packlane/packlane/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "packlane",
		Short: "packlane backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run packlane server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("lock_backend", cfg.Share.LockBackend),
	)

	listRepo := repo.NewListRepo(db)
	categoryRepo := repo.NewCategoryRepo(db)
	itemRepo := repo.NewItemRepo(db)
	globalItemRepo := repo.NewGlobalItemRepo(db)
	shareTokenRepo := repo.NewShareTokenRepo(db)
	cloneJobRepo := repo.NewCloneJobRepo(db)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	lockTTL := time.Duration(cfg.Share.CopyLockTTLSeconds) * time.Second
	var copyGuard guard.Guard
	var memGuard *guard.MemoryGuard
	switch cfg.Share.LockBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Share.Redis.Addr,
			Password: cfg.Share.Redis.Password,
			DB:       cfg.Share.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		copyGuard = guard.NewRedisGuard(client, lockTTL)
	default:
		memGuard = guard.NewMemoryGuard(lockTTL)
		copyGuard = memGuard
	}

	shareService := service.NewShareService(
		listRepo, categoryRepo, itemRepo, shareTokenRepo, store,
		cfg.Share.SnapshotCacheSize,
		time.Duration(cfg.Share.SnapshotCacheTTLSeconds)*time.Second,
	)
	cloneService := service.NewCloneService(
		listRepo, categoryRepo, itemRepo, globalItemRepo, cloneJobRepo,
		shareService, copyGuard,
		time.Duration(cfg.Share.CopyDedupeWindowSeconds)*time.Second,
	)

	shareHandler := handler.NewShareHandler(shareService, cloneService)
	fileHandler := handler.NewFileHandler(store, int64(cfg.FileStore.MaxUploadMB)*1024*1024)

	scheduler := schedule.NewCronScheduler()
	var sweeper job.LockSweeper
	if memGuard != nil {
		sweeper = memGuard
	}
	sweepJob := job.NewCloneSweepJob(
		cloneJobRepo, listRepo, categoryRepo, itemRepo, sweeper,
		time.Duration(cfg.Jobs.CloneJobMaxAgeMinutes)*time.Minute,
		cfg.Jobs.PurgeAbandoned,
	)
	if err := scheduler.AddJob(sweepJob, cfg.Jobs.CloneSweepSpec); err != nil {
		return fmt.Errorf("schedule clone sweep: %w", err)
	}

	deps := handler.RouterDeps{
		Shares:                shareHandler,
		Files:                 fileHandler,
		JWTSecret:             []byte(cfg.JWTSecret),
		PublicRateLimitWindow: time.Duration(cfg.Share.PublicRateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	scheduler.Stop()
	return nil
}
