package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// pointConfigDirAt redirects the default config directory into a
// temporary directory for the duration of the test.
func pointConfigDirAt(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", dir)
}

func TestInitConfig_Success(t *testing.T) {
	pointConfigDirAt(t, t.TempDir())

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	// Verify config file was created
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"# Drivebox Configuration File",
		"logging:",
		"server:",
		"namespace:",
		"blob:",
		"users:",
	}
	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}
}

func TestInitConfig_SampleIsValidYAML(t *testing.T) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &doc); err != nil {
		t.Fatalf("Sample config is not valid YAML: %v", err)
	}

	for _, key := range []string{"logging", "server", "namespace", "blob", "users"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("Sample config missing top-level key %q", key)
		}
	}
}

func TestInitConfig_SampleLoads(t *testing.T) {
	pointConfigDirAt(t, t.TempDir())

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	// The generated sample must load and validate as-is
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Generated sample config failed to load: %v", err)
	}

	if cfg.Namespace.Type != "memory" {
		t.Errorf("Expected sample namespace type 'memory', got %q", cfg.Namespace.Type)
	}
	if cfg.Blob.Type != "memory" {
		t.Errorf("Expected sample blob type 'memory', got %q", cfg.Blob.Type)
	}
}

func TestInitConfig_RefusesOverwrite(t *testing.T) {
	pointConfigDirAt(t, t.TempDir())

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}

	// Second call without force must refuse
	if _, err := InitConfig(false); err == nil {
		t.Fatal("Expected error when config file already exists, got nil")
	}

	// With force it overwrites
	if _, err := InitConfig(true); err != nil {
		t.Errorf("Expected forced overwrite to succeed, got: %v", err)
	}
}

func TestInitConfig_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	pointConfigDirAt(t, filepath.Join(tmpDir, "nested", "not-yet-created"))

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("Config file was not created: %v", err)
	}
}
