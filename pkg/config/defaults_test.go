package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Namespace.Type != "memory" {
		t.Errorf("Expected namespace type 'memory', got %q", cfg.Namespace.Type)
	}
	if cfg.Blob.Type != "memory" {
		t.Errorf("Expected blob type 'memory', got %q", cfg.Blob.Type)
	}
	if cfg.Users == nil {
		t.Error("Expected users to be initialized to empty list")
	}
}

func TestApplyDefaults_LevelNormalization(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "ERROR", Format: "json", Output: "stderr"},
		Server:  ServerConfig{ShutdownTimeout: 10 * time.Second},
		Namespace: NamespaceConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": "/data/namespace"},
		},
		Blob: BlobConfig{Type: "s3"},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR', got %q", cfg.Logging.Level)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown_timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Namespace.Type != "badger" {
		t.Errorf("Expected namespace type 'badger', got %q", cfg.Namespace.Type)
	}
	if cfg.Namespace.Badger["db_path"] != "/data/namespace" {
		t.Errorf("Expected badger db_path preserved, got %v", cfg.Namespace.Badger["db_path"])
	}
	if cfg.Blob.Type != "s3" {
		t.Errorf("Expected blob type 's3', got %q", cfg.Blob.Type)
	}
}

func TestApplyDefaults_SeedsStoreSections(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Namespace.Badger["db_path"] == "" {
		t.Error("Expected badger db_path default to be seeded")
	}
	if cfg.Namespace.Postgres["max_open_conns"] != 10 {
		t.Errorf("Expected postgres max_open_conns 10, got %v", cfg.Namespace.Postgres["max_open_conns"])
	}
	if cfg.Blob.S3["key_prefix"] != "blobs/" {
		t.Errorf("Expected s3 key_prefix 'blobs/', got %v", cfg.Blob.S3["key_prefix"])
	}
}

func TestGetDefaultConfig_PassesValidation(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should pass validation: %v", err)
	}
}
