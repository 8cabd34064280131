// Package config provides Viper-based hierarchical configuration management.
// The loaded Config is immutable and injected into the orchestrator at
// startup; there is no process-wide configuration singleton.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Storage struct {
		IncomingBucket  string `mapstructure:"incoming_bucket"`
		ProcessedBucket string `mapstructure:"processed_bucket"`
		IncomingPrefix  string `mapstructure:"incoming_prefix"`
		DuplicatePrefix string `mapstructure:"duplicate_prefix"`
		ReportPrefix    string `mapstructure:"report_prefix"`
	} `mapstructure:"storage"`

	Mapping struct {
		Key string `mapstructure:"key"`
	} `mapstructure:"mapping"`

	Properties struct {
		File string `mapstructure:"file"`
	} `mapstructure:"properties"`

	Retry struct {
		MaxAttempts int     `mapstructure:"max_attempts"`
		BaseDelayMs int     `mapstructure:"base_delay_ms"`
		Multiplier  float64 `mapstructure:"multiplier"`
		MaxDelayMs  int     `mapstructure:"max_delay_ms"`
	} `mapstructure:"retry"`

	Notify struct {
		Recipients []string `mapstructure:"recipients"`
	} `mapstructure:"notify"`
}

// BaseDelay returns the configured retry base delay as a duration.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the configured retry delay cap as a duration.
func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
}

// InitializeConfig loads configuration hierarchically: defaults, then an
// optional config file found on the search path, then NIGHTAUDIT_*
// environment variables.
func InitializeConfig() (*Config, error) {
	return loadConfig("")
}

// InitializeConfigFromFile loads configuration from an explicitly named
// config file instead of the search path. The file must exist.
func InitializeConfigFromFile(configFile string) (*Config, error) {
	return loadConfig(configFile)
}

func loadConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.nightaudit")
		v.AddConfigPath(".nightaudit")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NIGHTAUDIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if configFile != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
		// Missing config file is fine; defaults and env vars apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.incoming_bucket", "")
	v.SetDefault("storage.processed_bucket", "")
	v.SetDefault("storage.incoming_prefix", "daily-files/")
	v.SetDefault("storage.duplicate_prefix", "duplicates/")
	v.SetDefault("storage.report_prefix", "reports/")

	v.SetDefault("mapping.key", "mapping/account-mapping.xlsx")
	v.SetDefault("properties.file", "properties.yaml")

	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.base_delay_ms", 200)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.max_delay_ms", 5000)

	v.SetDefault("notify.recipients", []string{})
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}
	if config.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got: %d", config.Retry.MaxAttempts)
	}
	if config.Retry.Multiplier < 1.0 {
		return fmt.Errorf("retry.multiplier must be >= 1.0, got: %f", config.Retry.Multiplier)
	}
	if !strings.HasSuffix(config.Storage.IncomingPrefix, "/") {
		return fmt.Errorf("storage.incoming_prefix must end with '/', got: %s", config.Storage.IncomingPrefix)
	}
	return nil
}

// ConfigureLoggingFromConfig builds the shared logrus logger from the Config.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
