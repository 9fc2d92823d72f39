package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvConfigPath is the environment variable naming an explicit config file.
// When set, the file must exist and parse; a missing explicit file is an
// error rather than a silent fallback.
const EnvConfigPath = "FORMFLOW_CONFIG_PATH"

// Loader handles Viper-based configuration loading.
//
// Create with [NewLoader] and call [Loader.Load] once at startup.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a [Loader] with defaults, environment binding, and
// config file search paths registered.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults := DefaultConfig()
	v.SetDefault("schema_path", defaults.SchemaPath)
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("sessions_dir", defaults.SessionsDir)
	v.SetDefault("output.plain", defaults.Output.Plain)

	v.SetEnvPrefix("FORMFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load reads configuration from the highest-priority source available.
//
// An explicit file named by FORMFLOW_CONFIG_PATH must load successfully.
// Otherwise the search paths (user config directory, then the working
// directory) are tried, and a missing config file falls back to defaults
// without error.
func (l *Loader) Load() (*Config, error) {
	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		l.v.SetConfigFile(explicit)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", explicit, err)
		}
		return l.unmarshal()
	}

	l.v.SetConfigName("formflow")
	if userDir, err := os.UserConfigDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(userDir, "formflow"))
	}
	l.v.AddConfigPath(".")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}
