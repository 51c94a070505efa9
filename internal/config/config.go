package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database      DatabaseConfig   `json:"database"`
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Share         ShareConfig      `json:"share"`
	Jobs          JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
	DSN    string `json:"dsn"`
}

type FileStoreConfig struct {
	Type        string   `json:"type"`
	Dir         string   `json:"dir"`
	PublicURL   string   `json:"public_url"`
	MaxUploadMB int      `json:"max_upload_mb"`
	S3          S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	PublicURL string `json:"public_url"`
	UseSSL    bool   `json:"use_ssl"`
}

type ShareConfig struct {
	CopyLockTTLSeconds      int         `json:"copy_lock_ttl_seconds"`
	CopyDedupeWindowSeconds int         `json:"copy_dedupe_window_seconds"`
	SnapshotCacheSize       int         `json:"snapshot_cache_size"`
	SnapshotCacheTTLSeconds int         `json:"snapshot_cache_ttl_seconds"`
	PublicRateLimitSeconds  int         `json:"public_rate_limit_seconds"`
	LockBackend             string      `json:"lock_backend"`
	Redis                   RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type JobsConfig struct {
	CloneSweepSpec        string `json:"clone_sweep_spec"`
	CloneJobMaxAgeMinutes int    `json:"clone_job_max_age_minutes"`
	PurgeAbandoned        bool   `json:"purge_abandoned"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	switch cfg.Database.Driver {
	case "", "sqlite":
		cfg.Database.Driver = "sqlite"
		if cfg.Database.Path == "" {
			return nil, fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return nil, fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return nil, fmt.Errorf("database.driver must be sqlite or postgres")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local":
		if cfg.FileStore.Dir == "" {
			return nil, fmt.Errorf("file_store.dir is required for local store")
		}
	case "s3":
		if cfg.FileStore.S3.Endpoint == "" || cfg.FileStore.S3.Bucket == "" || cfg.FileStore.S3.SecretID == "" || cfg.FileStore.S3.SecretKey == "" {
			return nil, fmt.Errorf("file_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
	default:
		return nil, fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.FileStore.MaxUploadMB == 0 {
		cfg.FileStore.MaxUploadMB = 10
	}
	if cfg.Share.CopyLockTTLSeconds == 0 {
		cfg.Share.CopyLockTTLSeconds = 5
	}
	if cfg.Share.CopyDedupeWindowSeconds == 0 {
		cfg.Share.CopyDedupeWindowSeconds = 5
	}
	if cfg.Share.SnapshotCacheSize == 0 {
		cfg.Share.SnapshotCacheSize = 256
	}
	if cfg.Share.SnapshotCacheTTLSeconds == 0 {
		cfg.Share.SnapshotCacheTTLSeconds = 30
	}
	switch cfg.Share.LockBackend {
	case "":
		cfg.Share.LockBackend = "memory"
	case "memory":
	case "redis":
		if cfg.Share.Redis.Addr == "" {
			return nil, fmt.Errorf("share.redis.addr is required for redis lock backend")
		}
	default:
		return nil, fmt.Errorf("share.lock_backend must be memory or redis")
	}
	if cfg.Jobs.CloneSweepSpec == "" {
		cfg.Jobs.CloneSweepSpec = "*/5 * * * *"
	}
	if cfg.Jobs.CloneJobMaxAgeMinutes == 0 {
		cfg.Jobs.CloneJobMaxAgeMinutes = 30
	}
	return &cfg, nil
}
