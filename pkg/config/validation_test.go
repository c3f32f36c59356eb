package config

import (
	"strings"
	"testing"
)

// validConfig returns a configuration that passes validation, for tests
// to break one field at a time.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for invalid log level, got nil")
	}
}

func TestValidate_LowercaseLogLevelAccepted(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "debug"

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected lowercase log level to pass, got: %v", err)
	}
}

func TestValidate_InvalidNamespaceType(t *testing.T) {
	cfg := validConfig()
	cfg.Namespace.Type = "sqlite"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for unknown namespace type, got nil")
	}
}

func TestValidate_InvalidBlobType(t *testing.T) {
	cfg := validConfig()
	cfg.Blob.Type = "gcs"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for unknown blob type, got nil")
	}
}

func TestValidate_ZeroShutdownTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for zero shutdown timeout, got nil")
	}
}

func TestValidate_InvalidUserEmail(t *testing.T) {
	cfg := validConfig()
	cfg.Users = []UserConfig{
		{Email: "not-an-email", ID: "4f5e6d7c-0000-4000-8000-000000000001"},
	}

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for malformed email, got nil")
	}
}

func TestValidate_InvalidUserID(t *testing.T) {
	cfg := validConfig()
	cfg.Users = []UserConfig{
		{Email: "alice@example.com", ID: "not-a-uuid"},
	}

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for malformed user id, got nil")
	}
}

func TestValidate_DuplicateUserEmail(t *testing.T) {
	cfg := validConfig()
	cfg.Users = []UserConfig{
		{Email: "alice@example.com", ID: "4f5e6d7c-0000-4000-8000-000000000001"},
		{Email: "Alice@Example.com", ID: "4f5e6d7c-0000-4000-8000-000000000002"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for duplicate email, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate email") {
		t.Errorf("Expected duplicate email error, got: %v", err)
	}
}

func TestValidate_DuplicateUserID(t *testing.T) {
	cfg := validConfig()
	cfg.Users = []UserConfig{
		{Email: "alice@example.com", ID: "4f5e6d7c-0000-4000-8000-000000000001"},
		{Email: "bob@example.com", ID: "4f5e6d7c-0000-4000-8000-000000000001"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for duplicate id, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate id") {
		t.Errorf("Expected duplicate id error, got: %v", err)
	}
}
