package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FEASTFLOW_API_BASE_URL.
const EnvPrefix = "FEASTFLOW"

// InitViper points viper at configFile, or at the first feastflow.yaml or
// feastflow.yml found in the search directories, and enables FEASTFLOW_*
// overrides. Only YAML extensions are matched so the feastflow binary in
// the working directory is never read as config.
func InitViper(configFile string) {
	if configFile == "" {
		configFile = locateConfig(searchDirs())
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("feastflow")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}
}

// envKeys are bound explicitly so nested keys absent from the file still
// pick up their variables, e.g. FEASTFLOW_STORAGE_DRIVER.
var envKeys = []string{
	"api.base_url", "api.timeout", "api.breaker.max_failures", "api.breaker.open_timeout",
	"push.url", "push.event",
	"storage.driver", "storage.path", "storage.redis_addr", "storage.namespace",
	"checkout.payment_delay",
	"metrics.addr",
	"log_level", "trace",
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func searchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".feastflow"))
	}
	switch {
	case runtime.GOOS != "windows":
		dirs = append(dirs, "/etc/feastflow")
	case os.Getenv("ProgramData") != "":
		dirs = append(dirs, filepath.Join(os.Getenv("ProgramData"), "feastflow"))
	}
	return dirs
}

// locateConfig returns the first feastflow.yaml or feastflow.yml in dirs,
// preferring .yaml within a directory, or "".
func locateConfig(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range []string{"feastflow.yaml", "feastflow.yml"} {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// LoadConfig is LoadConfigRaw followed by Validate.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration and applies defaults without
// validating, so CLI flags can still override fields.
func LoadConfigRaw() (*Config, error) {
	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	return cfg, nil
}

// ConfigFileUsed is the file viper read, or "" for environment-only config.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
