// Package conf handles the configuration of the application.
// Settings are loaded from a YAML config file with viper, validated, and
// exposed through a process-wide accessor.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/plancheck/plancheck/internal/errors"
)

// SetbackSettings configures the compliance checker.
type SetbackSettings struct {
	// MinDistance is the minimum required clearance between a building and
	// a property boundary, in drawing units.
	MinDistance float64 `yaml:"mindistance" validate:"gt=0"`
}

// ConversionSettings configures the remote CAD conversion API client.
type ConversionSettings struct {
	BaseURL      string        `yaml:"baseurl" validate:"required,url"`
	APIKey       string        `yaml:"apikey"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	PollInterval time.Duration `yaml:"pollinterval" validate:"gt=0"`
	CacheTTL     time.Duration `yaml:"cachettl" validate:"gt=0"`
}

// WebServerSettings configures the HTTP service.
type WebServerSettings struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port" validate:"required"`
	BodyLimit string `yaml:"bodylimit" validate:"required"`
}

// Settings is the root configuration for the application.
type Settings struct {
	Debug      bool               `yaml:"debug"`
	WorkDir    string             `yaml:"workdir" validate:"required"`
	Setback    SetbackSettings    `yaml:"setback"`
	Conversion ConversionSettings `yaml:"conversion"`
	WebServer  WebServerSettings  `yaml:"webserver"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and returns the populated settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the current settings instance, or nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetSettings replaces the current settings instance. Intended for tests.
func SetSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the default configuration paths for the
// current operating system. If a config.yaml is found in one of them, only
// that path is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	configPaths := []string{
		filepath.Join(homeDir, ".config", "plancheck"),
		"/etc/plancheck",
		".",
	}

	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// createDefaultConfig writes a config file populated with defaults to the
// first default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(configPaths[0], 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", configPaths[0]).
			Build()
	}

	defaults := DefaultSettings()
	out, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", configPath).
			Build()
	}

	return nil
}
