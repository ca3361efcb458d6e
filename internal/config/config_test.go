package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.API.BaseURL != "http://localhost:5000/api" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://localhost:5000/api")
	}
	if cfg.API.Breaker.MaxFailures != 5 {
		t.Errorf("Breaker.MaxFailures = %d, want 5", cfg.API.Breaker.MaxFailures)
	}
	if cfg.Push.Event != "orderStatusUpdated" {
		t.Errorf("Push.Event = %q, want %q", cfg.Push.Event, "orderStatusUpdated")
	}
	if cfg.Storage.Driver != DriverFile {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverFile)
	}
	if !strings.HasSuffix(cfg.Storage.Path, "state.json") {
		t.Errorf("Storage.Path = %q, want a state.json file", cfg.Storage.Path)
	}
	if cfg.Storage.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty for the file driver", cfg.Storage.RedisAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
}

func TestConfig_SetDefaults_PerDriver(t *testing.T) {
	t.Parallel()

	sqlite := Config{Storage: StorageConfig{Driver: DriverSQLite}}
	sqlite.SetDefaults()
	if !strings.HasSuffix(sqlite.Storage.Path, "state.db") {
		t.Errorf("sqlite Storage.Path = %q, want a state.db file", sqlite.Storage.Path)
	}

	redis := Config{Storage: StorageConfig{Driver: DriverRedis}}
	redis.SetDefaults()
	if redis.Storage.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("RedisAddr = %q, want %q", redis.Storage.RedisAddr, "127.0.0.1:6379")
	}
}

func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		API:      APIConfig{BaseURL: "https://shop.example.com/api", Timeout: "3s"},
		Storage:  StorageConfig{Driver: DriverMemory, Path: "/tmp/x"},
		Checkout: CheckoutConfig{PaymentDelay: "500ms"},
		LogLevel: "debug",
	}
	cfg.SetDefaults()

	if cfg.API.BaseURL != "https://shop.example.com/api" {
		t.Errorf("BaseURL was overwritten: got %q", cfg.API.BaseURL)
	}
	if cfg.APITimeout() != 3*time.Second {
		t.Errorf("APITimeout = %v, want 3s", cfg.APITimeout())
	}
	if cfg.PaymentDelay() != 500*time.Millisecond {
		t.Errorf("PaymentDelay = %v, want 500ms", cfg.PaymentDelay())
	}
	if cfg.Storage.Path != "/tmp/x" {
		t.Errorf("Storage.Path was overwritten: got %q", cfg.Storage.Path)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel was overwritten: got %q", cfg.LogLevel)
	}
}

func TestConfig_PushURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base, push, want string
	}{
		{"http://localhost:5000/api", "", "http://localhost:5000"},
		{"http://localhost:5000/api/", "", "http://localhost:5000"},
		{"https://shop.example.com", "", "https://shop.example.com"},
		{"http://localhost:5000/api", "http://push.example.com", "http://push.example.com"},
	}
	for _, tt := range tests {
		cfg := Config{API: APIConfig{BaseURL: tt.base}, Push: PushConfig{URL: tt.push}}
		if got := cfg.PushURL(); got != tt.want {
			t.Errorf("PushURL(%q, %q) = %q, want %q", tt.base, tt.push, got, tt.want)
		}
	}
}

func TestConfig_DurationsInvalid(t *testing.T) {
	t.Parallel()

	cfg := Config{API: APIConfig{Timeout: "soon", Breaker: BreakerConfig{OpenTimeout: ""}}}
	if cfg.APITimeout() != 0 {
		t.Errorf("APITimeout = %v, want 0 for invalid input", cfg.APITimeout())
	}
	if cfg.BreakerOpenTimeout() != 0 {
		t.Errorf("BreakerOpenTimeout = %v, want 0 for empty input", cfg.BreakerOpenTimeout())
	}
}

func TestFindConfigFileInPaths_EmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := locateConfig([]string{dir})
	if got != "" {
		t.Errorf("locateConfig(empty dir) = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_MatchesYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "feastflow.yml")
	_ = os.WriteFile(cfgPath, []byte("api:\n  timeout: 5s\n"), 0644)

	got := locateConfig([]string{dir})
	if got != cfgPath {
		t.Errorf("locateConfig = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_IgnoresNoExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// Simulate the binary: a file named "feastflow" with no extension
	_ = os.WriteFile(filepath.Join(dir, "feastflow"), []byte("\x7fELF binary"), 0755)

	got := locateConfig([]string{dir})
	if got != "" {
		t.Errorf("locateConfig matched binary = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_PrefersYAMLOverYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "feastflow.yaml")
	ymlPath := filepath.Join(dir, "feastflow.yml")
	_ = os.WriteFile(yamlPath, []byte("log_level: info\n"), 0644)
	_ = os.WriteFile(ymlPath, []byte("log_level: debug\n"), 0644)

	got := locateConfig([]string{dir})
	if got != yamlPath {
		t.Errorf("locateConfig = %q, want %q (.yaml preferred)", got, yamlPath)
	}
}
