package config

import (
	"time"

	"github.com/spf13/pflag"
)

const (
	flagConfig  = "config"
	flagEnvFile = "env-file"
)

// RegisterFlags declares every configuration flag on fs, with the built-in
// defaults as help values.
//
// Short forms follow the server flags of earlier releases:
//
//	-c  config file        -s  storage backend     -d  database DSN
//	-k  session secret     -t  session TTL         -l  log level
func RegisterFlags(fs *pflag.FlagSet) {
	d := &Config{}
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to a JSON or YAML config file")
	fs.String(flagEnvFile, ".env", "path to a dotenv file")

	fs.StringP("storage", "s", d.StorageBackend, "storage backend: memory, sqlite, postgres, s3")
	fs.String("sqlite-path", d.SQLitePath, "SQLite database file")
	fs.StringP("database-dsn", "d", d.DatabaseDSN, "PostgreSQL DSN")
	fs.String("s3-access-key", d.S3AccessKey, "S3 access key")
	fs.String("s3-secret-key", d.S3SecretKey, "S3 secret key")
	fs.String("s3-bucket", d.S3Bucket, "S3 bucket")
	fs.String("s3-region", d.S3Region, "S3 region")
	fs.String("s3-endpoint", d.S3BaseEndpoint, "S3 base endpoint")
	fs.String("s3-prefix", d.S3Prefix, "S3 key prefix for the primary store")
	fs.String("mirror", d.MirrorBackend, "external sync mirror backend: memory, sqlite, postgres, s3")
	fs.String("mirror-sqlite-path", d.MirrorSQLitePath, "SQLite file of the mirror")
	fs.String("mirror-s3-prefix", d.MirrorS3Prefix, "S3 key prefix of the mirror")
	fs.StringP("secret-key", "k", d.SecretKey, "HMAC key for session tokens")
	fs.DurationP("session-ttl", "t", d.SessionTTL, "session token lifetime")
	fs.Int("rate-limit-max", d.RateLimitMax, "attempts allowed per window")
	fs.Duration("rate-limit-window", d.RateLimitWindow, "rate limit window")
	fs.String("admin-password", d.AdminPassword, "administrator password")
	fs.String("admin-password-hash", d.AdminPasswordHash, "administrator password hash (argon2id)")
	fs.String("notifier", d.NotifierProvider, "confirmation email provider")
	fs.String("email-from", d.EmailFrom, "sender address of confirmation emails")
	fs.String("email-from-name", d.EmailFromName, "sender display name")
	fs.Duration("sync-interval", d.SyncInterval, "external sync interval, 0 disables the worker")
	fs.StringP("log-level", "l", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: json, text, zap")
	fs.String("metrics-file", d.MetricsFile, "write Prometheus metrics to this file on exit")
}

// parseFlags copies the flags the user actually set onto cfg, leaving values
// from earlier sources untouched otherwise.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		"storage":             &cfg.StorageBackend,
		"sqlite-path":         &cfg.SQLitePath,
		"database-dsn":        &cfg.DatabaseDSN,
		"s3-access-key":       &cfg.S3AccessKey,
		"s3-secret-key":       &cfg.S3SecretKey,
		"s3-bucket":           &cfg.S3Bucket,
		"s3-region":           &cfg.S3Region,
		"s3-endpoint":         &cfg.S3BaseEndpoint,
		"s3-prefix":           &cfg.S3Prefix,
		"mirror":              &cfg.MirrorBackend,
		"mirror-sqlite-path":  &cfg.MirrorSQLitePath,
		"mirror-s3-prefix":    &cfg.MirrorS3Prefix,
		"secret-key":          &cfg.SecretKey,
		"admin-password":      &cfg.AdminPassword,
		"admin-password-hash": &cfg.AdminPasswordHash,
		"notifier":            &cfg.NotifierProvider,
		"email-from":          &cfg.EmailFrom,
		"email-from-name":     &cfg.EmailFromName,
		"log-level":           &cfg.LogLevel,
		"log-format":          &cfg.LogFormat,
		"metrics-file":        &cfg.MetricsFile,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	durations := map[string]*time.Duration{
		"session-ttl":       &cfg.SessionTTL,
		"rate-limit-window": &cfg.RateLimitWindow,
		"sync-interval":     &cfg.SyncInterval,
	}
	for name, dst := range durations {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed("rate-limit-max") {
		v, err := fs.GetInt("rate-limit-max")
		if err != nil {
			return err
		}
		cfg.RateLimitMax = v
	}

	return nil
}
