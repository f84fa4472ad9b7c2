package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "RUNREWARD_"

// loadDotEnv loads path into the process environment. A missing file is not
// an error; variables already present in the environment are kept.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays RUNREWARD_* variables onto cfg.
func parseEnv(cfg *Config) error {
	strs := map[string]*string{
		"STORAGE_BACKEND":     &cfg.StorageBackend,
		"SQLITE_PATH":         &cfg.SQLitePath,
		"DATABASE_DSN":        &cfg.DatabaseDSN,
		"S3_ACCESS_KEY":       &cfg.S3AccessKey,
		"S3_SECRET_KEY":       &cfg.S3SecretKey,
		"S3_BUCKET":           &cfg.S3Bucket,
		"S3_REGION":           &cfg.S3Region,
		"S3_BASE_ENDPOINT":    &cfg.S3BaseEndpoint,
		"S3_PREFIX":           &cfg.S3Prefix,
		"MIRROR_BACKEND":      &cfg.MirrorBackend,
		"MIRROR_SQLITE_PATH":  &cfg.MirrorSQLitePath,
		"MIRROR_S3_PREFIX":    &cfg.MirrorS3Prefix,
		"SECRET_KEY":          &cfg.SecretKey,
		"ADMIN_PASSWORD":      &cfg.AdminPassword,
		"ADMIN_PASSWORD_HASH": &cfg.AdminPasswordHash,
		"NOTIFIER_PROVIDER":   &cfg.NotifierProvider,
		"EMAIL_FROM":          &cfg.EmailFrom,
		"EMAIL_FROM_NAME":     &cfg.EmailFromName,
		"LOG_LEVEL":           &cfg.LogLevel,
		"LOG_FORMAT":          &cfg.LogFormat,
		"METRICS_FILE":        &cfg.MetricsFile,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SESSION_TTL":       &cfg.SessionTTL,
		"RATE_LIMIT_WINDOW": &cfg.RateLimitWindow,
		"SYNC_INTERVAL":     &cfg.SyncInterval,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "RATE_LIMIT_MAX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT_MAX: %w", envPrefix, err)
		}
		cfg.RateLimitMax = n
	}

	return nil
}
