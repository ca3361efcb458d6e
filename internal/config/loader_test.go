package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// Loader tests share viper's global instance and must not run in parallel.

func TestLoadConfig_FileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "feastflow.yaml")
	body := "api:\n  base_url: http://api.internal:8080/api\n  breaker:\n    max_failures: 3\nstorage:\n  driver: memory\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FEASTFLOW_API_TIMEOUT", "4s")
	t.Setenv("FEASTFLOW_TRACE", "true")

	InitViper(path)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.API.BaseURL != "http://api.internal:8080/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Breaker.MaxFailures != 3 {
		t.Errorf("MaxFailures = %d, want 3", cfg.API.Breaker.MaxFailures)
	}
	if cfg.API.Timeout != "4s" {
		t.Errorf("Timeout = %q, want env override %q", cfg.API.Timeout, "4s")
	}
	if !cfg.Trace {
		t.Error("Trace should be enabled from the environment")
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Driver = %q, want %q", cfg.Storage.Driver, DriverMemory)
	}
	if ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed() = %q, want %q", ConfigFileUsed(), path)
	}
}

func TestLoadConfig_InvalidFileFailsValidation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "feastflow.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  driver: floppy\n"), 0600); err != nil {
		t.Fatal(err)
	}

	InitViper(path)
	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() should reject an unknown storage driver")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "feastflow.yaml")
	if err := os.WriteFile(path, []byte("api: [unterminated\n"), 0600); err != nil {
		t.Fatal(err)
	}

	InitViper(path)
	if _, err := LoadConfigRaw(); err == nil {
		t.Fatal("LoadConfigRaw() should fail on malformed YAML")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FEASTFLOW_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FEASTFLOW_TEST_DOTENV", "")
	os.Unsetenv("FEASTFLOW_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv("FEASTFLOW_TEST_DOTENV"); got != "from-file" {
		t.Errorf("FEASTFLOW_TEST_DOTENV = %q, want %q", got, "from-file")
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) = %v, want nil", err)
	}
}
