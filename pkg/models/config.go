package models

// ErrorPolicy controls how presentation adapters report lookup misses and
// failed saves returned by the task store.
type ErrorPolicy string

const (
	// PolicySilent absorbs not-found and persist failures, matching the
	// behaviour of older taskday releases.
	PolicySilent ErrorPolicy = "silent"
	// PolicyStrict surfaces them as command errors.
	PolicyStrict ErrorPolicy = "strict"
)

// AlertConfig holds the thresholds used by the alert engine, read from the
// alerts section of config.yaml.
type AlertConfig struct {
	MaxBacklogSize   int // alerts.max_backlog_size
	OverdueDays      int // alerts.overdue_days
	StaleBacklogDays int // alerts.stale_backlog_days
}

// GlobalConfig holds settings read from config.yaml in the base directory.
// Each field is filled from the config key named beside it.
type GlobalConfig struct {
	StoreFile      string      // store.file
	ExtendedFields bool        // store.extended_fields
	ErrorPolicy    ErrorPolicy // errors.policy
	StatsWindow    int         // stats.window_days
	EventsEnabled  bool        // events.enabled
	Alerts         AlertConfig
}
