package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/valter-silva-au/taskday/pkg/models"
	"gopkg.in/yaml.v3"
)

// Export formats supported by ExportTasks.
const (
	FormatNative = "native"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatTOML   = "toml"
)

// ExportFormats lists the accepted export format names.
var ExportFormats = []string{FormatNative, FormatJSON, FormatYAML, FormatTOML}

// exportRecord is the portable shape of a task used by the structured
// export formats. Dates are written as plain strings so every format
// renders them identically.
type exportRecord struct {
	ID          string `yaml:"id" json:"id" toml:"id"`
	Title       string `yaml:"title" json:"title" toml:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Priority    string `yaml:"priority" json:"priority" toml:"priority"`
	CreatedAt   string `yaml:"created_at" json:"created_at" toml:"created_at"`
	DueDate     string `yaml:"due_date,omitempty" json:"due_date,omitempty" toml:"due_date,omitempty"`
	CompletedAt string `yaml:"completed_at,omitempty" json:"completed_at,omitempty" toml:"completed_at,omitempty"`
	Completed   bool   `yaml:"completed" json:"completed" toml:"completed"`
	Backlog     bool   `yaml:"backlog" json:"backlog" toml:"backlog"`
}

type exportFile struct {
	Version string         `yaml:"version" json:"version" toml:"version"`
	Tasks   []exportRecord `yaml:"tasks" json:"tasks" toml:"tasks"`
}

// ExportTasks renders tasks in the named format. The native format is the
// task file format with extended fields enabled.
func ExportTasks(tasks []models.Task, format string) ([]byte, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == FormatNative {
		return EncodeTasks(tasks, EncodeOptions{ExtendedFields: true}), nil
	}

	f := exportFile{Version: "1.0", Tasks: make([]exportRecord, len(tasks))}
	for i, t := range tasks {
		f.Tasks[i] = toExportRecord(t)
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("exporting tasks as JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(&f)
		if err != nil {
			return nil, fmt.Errorf("exporting tasks as YAML: %w", err)
		}
		return data, nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return nil, fmt.Errorf("exporting tasks as TOML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use one of %s)", format, strings.Join(ExportFormats, ", "))
	}
}

func toExportRecord(t models.Task) exportRecord {
	r := exportRecord{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
		CreatedAt:   t.CreatedAt.Format(dateTimeLayout),
		Completed:   t.IsCompleted,
		Backlog:     t.IsInBacklog,
	}
	if t.DueDate != nil {
		r.DueDate = t.DueDate.Format(dateLayout)
	}
	if t.CompletedAt != nil {
		r.CompletedAt = t.CompletedAt.Format(dateTimeLayout)
	}
	return r
}
