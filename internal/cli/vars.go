package cli

import (
	"github.com/valter-silva-au/taskday/internal/core"
	"github.com/valter-silva-au/taskday/internal/observability"
	"github.com/valter-silva-au/taskday/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Store    core.TaskStore

	// Policy decides whether lookup misses and failed saves are reported.
	Policy models.ErrorPolicy = models.PolicySilent
	// StatsWindow is the default number of days shown by "td stats".
	StatsWindow = 30
	// ExtendedFields reports whether the task file keeps descriptions and
	// priorities.
	ExtendedFields bool

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)
