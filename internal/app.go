// Package internal provides the App struct that wires all components of
// taskday together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/taskday/internal/cli"
	"github.com/valter-silva-au/taskday/internal/core"
	"github.com/valter-silva-au/taskday/internal/observability"
	"github.com/valter-silva-au/taskday/internal/storage"
	"github.com/valter-silva-au/taskday/pkg/models"
)

// App holds all service dependencies of taskday.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Repository storage.TaskRepository

	// Core services
	Store core.TaskStore

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator

	unlock func() error
}

// NewApp creates and wires all components of taskday. basePath is the
// directory holding the task file, config.yaml, the event log and the
// instance lock. NewApp fails with core.ErrAlreadyRunning if another
// process holds the lock.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		// Use defaults if the config file cannot be read.
		globalCfg = core.DefaultGlobalConfig()
	}
	if err := app.ConfigMgr.ValidateConfig(globalCfg); err != nil {
		return nil, err
	}
	app.Config = globalCfg

	// --- Single instance ---
	app.unlock, err = core.AcquireInstanceLock(basePath)
	if err != nil {
		return nil, err
	}

	// --- Observability ---
	if globalCfg.EventsEnabled {
		eventLogPath := filepath.Join(basePath, observability.DefaultEventLogName)
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without diagnostics if the log can't be created.
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Storage layer ---
	app.Repository = storage.NewTaskRepository(
		filepath.Join(basePath, globalCfg.StoreFile),
		storage.EncodeOptions{ExtendedFields: globalCfg.ExtendedFields},
	)

	// --- Core services ---
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.Store = core.NewTaskStore(core.TaskStoreConfig{
		Repository: app.Repository,
		Events:     evtAdapter,
	})

	app.AlertEngine = observability.NewAlertEngine(app.Store, app.EventLog, observability.AlertThresholds{
		MaxBacklogSize:   globalCfg.Alerts.MaxBacklogSize,
		OverdueDays:      globalCfg.Alerts.OverdueDays,
		StaleBacklogDays: globalCfg.Alerts.StaleBacklogDays,
	})

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Store = app.Store
	cli.Policy = globalCfg.ErrorPolicy
	cli.StatsWindow = globalCfg.StatsWindow
	cli.ExtendedFields = globalCfg.ExtendedFields
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	if loadErr := app.Store.LoadErr(); loadErr != nil && globalCfg.ErrorPolicy == models.PolicyStrict {
		fmt.Fprintf(os.Stderr, "Warning: %v; starting with an empty task list\n", loadErr)
	}

	return app, nil
}

// Close releases resources held by the App: the event log file handle and
// the instance lock. It is safe to call Close more than once.
func (a *App) Close() error {
	var firstErr error
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil {
			firstErr = err
		}
		a.EventLog = nil
	}
	if a.unlock != nil {
		if err := a.unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.unlock = nil
	}
	return firstErr
}

// ResolveBasePath determines the taskday data directory. It checks the
// TASKDAY_HOME env var, then falls back to "taskday" under the user config
// directory, and finally to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("TASKDAY_HOME"); home != "" {
		return home
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskday")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelFor(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
