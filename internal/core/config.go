// Package core contains the business logic of taskday: the task store and
// its lifecycle rules, completion statistics, configuration loading and the
// single-instance lock.
package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/taskday/pkg/models"
)

// ConfigFileName is the base name (without extension) of the config file.
const ConfigFileName = "config"

// ConfigurationManager loads and validates config.yaml from the base path.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// config.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		StoreFile:      "tasks.json",
		ExtendedFields: false,
		ErrorPolicy:    models.PolicySilent,
		StatsWindow:    30,
		EventsEnabled:  true,
		Alerts: models.AlertConfig{
			MaxBacklogSize:   20,
			OverdueDays:      0,
			StaleBacklogDays: 30,
		},
	}
}

// LoadGlobalConfig reads config.yaml from the base path. If the file does
// not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("TASKDAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.file", cfg.StoreFile)
	v.SetDefault("store.extended_fields", cfg.ExtendedFields)
	v.SetDefault("errors.policy", string(cfg.ErrorPolicy))
	v.SetDefault("stats.window_days", cfg.StatsWindow)
	v.SetDefault("events.enabled", cfg.EventsEnabled)
	v.SetDefault("alerts.max_backlog_size", cfg.Alerts.MaxBacklogSize)
	v.SetDefault("alerts.overdue_days", cfg.Alerts.OverdueDays)
	v.SetDefault("alerts.stale_backlog_days", cfg.Alerts.StaleBacklogDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.yaml: %w", err)
		}
	}

	cfg.StoreFile = v.GetString("store.file")
	cfg.ExtendedFields = v.GetBool("store.extended_fields")
	cfg.ErrorPolicy = models.ErrorPolicy(strings.ToLower(v.GetString("errors.policy")))
	cfg.StatsWindow = v.GetInt("stats.window_days")
	cfg.EventsEnabled = v.GetBool("events.enabled")
	cfg.Alerts.MaxBacklogSize = v.GetInt("alerts.max_backlog_size")
	cfg.Alerts.OverdueDays = v.GetInt("alerts.overdue_days")
	cfg.Alerts.StaleBacklogDays = v.GetInt("alerts.stale_backlog_days")

	return cfg, nil
}

// ValidateConfig checks cfg for invalid values and returns an error listing
// every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.StoreFile) == "" {
		errs = append(errs, "store.file must not be empty")
	} else if strings.ContainsAny(cfg.StoreFile, `/\`) {
		errs = append(errs, fmt.Sprintf("store.file %q must be a file name, not a path", cfg.StoreFile))
	}

	if cfg.ErrorPolicy != models.PolicySilent && cfg.ErrorPolicy != models.PolicyStrict {
		errs = append(errs, fmt.Sprintf("errors.policy %q is invalid, must be one of: silent, strict", cfg.ErrorPolicy))
	}

	if cfg.StatsWindow < 1 {
		errs = append(errs, fmt.Sprintf("stats.window_days must be at least 1, got %d", cfg.StatsWindow))
	}

	if cfg.Alerts.MaxBacklogSize < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_backlog_size must be non-negative, got %d", cfg.Alerts.MaxBacklogSize))
	}
	if cfg.Alerts.OverdueDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.overdue_days must be non-negative, got %d", cfg.Alerts.OverdueDays))
	}
	if cfg.Alerts.StaleBacklogDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.stale_backlog_days must be non-negative, got %d", cfg.Alerts.StaleBacklogDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
