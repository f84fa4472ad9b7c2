package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runreward/runreward/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of Config. Pointer fields distinguish
// "absent" from "zero" so a partial file only overrides what it names.
type fileConfig struct {
	StorageBackend    *string         `json:"storage_backend" yaml:"storage_backend"`
	SQLitePath        *string         `json:"sqlite_path" yaml:"sqlite_path"`
	DatabaseDSN       *string         `json:"database_dsn" yaml:"database_dsn"`
	S3AccessKey       *string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket          *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3Prefix          *string         `json:"s3_prefix" yaml:"s3_prefix"`
	MirrorBackend     *string         `json:"mirror_backend" yaml:"mirror_backend"`
	MirrorSQLitePath  *string         `json:"mirror_sqlite_path" yaml:"mirror_sqlite_path"`
	MirrorS3Prefix    *string         `json:"mirror_s3_prefix" yaml:"mirror_s3_prefix"`
	SecretKey         *string         `json:"secret_key" yaml:"secret_key"`
	SessionTTL        *timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	RateLimitMax      *int            `json:"rate_limit_max" yaml:"rate_limit_max"`
	RateLimitWindow   *timex.Duration `json:"rate_limit_window" yaml:"rate_limit_window"`
	AdminPassword     *string         `json:"admin_password" yaml:"admin_password"`
	AdminPasswordHash *string         `json:"admin_password_hash" yaml:"admin_password_hash"`
	NotifierProvider  *string         `json:"notifier_provider" yaml:"notifier_provider"`
	EmailFrom         *string         `json:"email_from" yaml:"email_from"`
	EmailFromName     *string         `json:"email_from_name" yaml:"email_from_name"`
	SyncInterval      *timex.Duration `json:"sync_interval" yaml:"sync_interval"`
	LogLevel          *string         `json:"log_level" yaml:"log_level"`
	LogFormat         *string         `json:"log_format" yaml:"log_format"`
	MetricsFile       *string         `json:"metrics_file" yaml:"metrics_file"`
}

// parseFile overlays values from the JSON or YAML file at path. An empty
// path is a no-op. Files ending in .yaml or .yml are read as YAML, anything
// else as JSON.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	fc := &fileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.StorageBackend, fc.StorageBackend)
	setString(&cfg.SQLitePath, fc.SQLitePath)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.S3Prefix, fc.S3Prefix)
	setString(&cfg.MirrorBackend, fc.MirrorBackend)
	setString(&cfg.MirrorSQLitePath, fc.MirrorSQLitePath)
	setString(&cfg.MirrorS3Prefix, fc.MirrorS3Prefix)
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.AdminPassword, fc.AdminPassword)
	setString(&cfg.AdminPasswordHash, fc.AdminPasswordHash)
	setString(&cfg.NotifierProvider, fc.NotifierProvider)
	setString(&cfg.EmailFrom, fc.EmailFrom)
	setString(&cfg.EmailFromName, fc.EmailFromName)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.MetricsFile, fc.MetricsFile)

	if fc.SessionTTL != nil {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}
	if fc.RateLimitMax != nil {
		cfg.RateLimitMax = *fc.RateLimitMax
	}
	if fc.RateLimitWindow != nil {
		cfg.RateLimitWindow = fc.RateLimitWindow.Duration
	}
	if fc.SyncInterval != nil {
		cfg.SyncInterval = fc.SyncInterval.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
