package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultReleasesRepo       = "UE4SS-RE/RE-UE4SS"
	DefaultUserAgent          = "ue4ss-installer/dev"
	DefaultHTTPTimeoutSeconds = 60
)

// Config holds all configuration for the application.
// Values are loaded by Viper from a config file and/or environment variables.
type Config struct {
	HomeDir            string `mapstructure:"UE4SS_INSTALLER_HOME"`
	ReleasesRepo       string `mapstructure:"UE4SS_RELEASES_REPO"` // owner/name on GitHub
	GitHubToken        string `mapstructure:"GITHUB_TOKEN"`
	UserAgent          string `mapstructure:"USERAGENT"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	SteamRoot          string `mapstructure:"STEAM_ROOT"`
	LogDir             string `mapstructure:"LOG_DIR"`
	DatabasePath       string `mapstructure:"-"` // Derived from HomeDir
	TempDir            string `mapstructure:"-"` // Derived from HomeDir
}

var envKeys = []string{
	"UE4SS_INSTALLER_HOME",
	"UE4SS_RELEASES_REPO",
	"GITHUB_TOKEN",
	"USERAGENT",
	"HTTP_TIMEOUT_SECONDS",
	"STEAM_ROOT",
	"LOG_DIR",
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)   // Path to look for the config file in
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")  // REQUIRED if the config file does not have the extension in the name

	vipErr := viper.ReadInConfig()
	if _, ok := vipErr.(viper.ConfigFileNotFoundError); ok {
		slog.Debug("Config file (.env) not found, relying on environment variables.")
	} else if vipErr != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vipErr)
	}

	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(strings.ToLower(key), key); err != nil {
			slog.Warn("Unable to bind env var", "key", key, "error", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", err)
	}

	processConfigDefaults(&config)
	if err := validateAndEnsureDirectories(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// processConfigDefaults fills in every value the user left unset.
func processConfigDefaults(config *Config) {
	if config.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			config.HomeDir = filepath.Join(home, ".ue4ss-installer")
		} else {
			slog.Warn("Unable to determine user home directory", "error", err)
		}
	}
	if config.ReleasesRepo == "" {
		config.ReleasesRepo = DefaultReleasesRepo
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.HTTPTimeoutSeconds <= 0 {
		config.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if config.LogDir == "" && config.HomeDir != "" {
		config.LogDir = filepath.Join(config.HomeDir, "logs")
	}
}

// validateAndEnsureDirectories checks required values, creates the data
// directory and derives the paths that live inside it.
func validateAndEnsureDirectories(config *Config) error {
	if config.HomeDir == "" {
		slog.Error("UE4SS_INSTALLER_HOME is not set")
		return fmt.Errorf("UE4SS_INSTALLER_HOME is required")
	}
	if _, _, err := config.RepoOwnerName(); err != nil {
		return err
	}

	if err := os.MkdirAll(config.HomeDir, 0755); err != nil {
		slog.Error("Failed to create data directory", "path", config.HomeDir, "error", err)
		return err
	}

	config.DatabasePath = filepath.Join(config.HomeDir, "settings.db")
	config.TempDir = filepath.Join(config.HomeDir, "temp")
	return nil
}

// RepoOwnerName splits ReleasesRepo into its GitHub owner and repository.
func (c Config) RepoOwnerName() (string, string, error) {
	parts := strings.Split(c.ReleasesRepo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("UE4SS_RELEASES_REPO must look like owner/name, got %q", c.ReleasesRepo)
	}
	return parts[0], parts[1], nil
}
