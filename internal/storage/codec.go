package storage

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskday/pkg/models"
)

// Layouts of the task file. They match files written by earlier taskday
// releases and must not change.
const (
	dateTimeLayout = "2006-01-02T15:04:05"
	dateLayout     = "2006-01-02"
	nullToken      = "null"
)

// Field keys of a task record, in the order they are written.
const (
	keyID          = "Id"
	keyTitle       = "Title"
	keyDescription = "Description"
	keyPriority    = "Priority"
	keyCreatedAt   = "CreatedAt"
	keyDueDate     = "DueDate"
	keyCompletedAt = "CompletedAt"
	keyIsCompleted = "IsCompleted"
	keyIsInBacklog = "IsInBacklog"
)

// Additional layouts accepted when reading timestamps written by other tools.
var dateTimeInputLayouts = []string{
	dateTimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// EncodeOptions controls the optional parts of the task file format.
type EncodeOptions struct {
	// ExtendedFields adds Description and Priority to every record. Files
	// written without it are byte-identical to the seven-field format.
	ExtendedFields bool
}

// EncodeTasks renders tasks in the task file format: a bracketed list of
// brace-delimited records, one "Key": value field per line. Tags are never
// written.
func EncodeTasks(tasks []models.Task, opts EncodeOptions) []byte {
	var b strings.Builder
	b.WriteString("[\n")
	for i, t := range tasks {
		b.WriteString("  {\n")
		writeField(&b, keyID, quote(t.ID.String()), true)
		writeField(&b, keyTitle, quote(EscapeTitle(t.Title)), true)
		if opts.ExtendedFields {
			writeField(&b, keyDescription, quote(EscapeTitle(t.Description)), true)
			writeField(&b, keyPriority, quote(t.Priority.String()), true)
		}
		writeField(&b, keyCreatedAt, quote(t.CreatedAt.Format(dateTimeLayout)), true)
		writeField(&b, keyDueDate, optionalTime(t.DueDate, dateLayout), true)
		writeField(&b, keyCompletedAt, optionalTime(t.CompletedAt, dateTimeLayout), true)
		writeField(&b, keyIsCompleted, boolToken(t.IsCompleted), true)
		writeField(&b, keyIsInBacklog, boolToken(t.IsInBacklog), false)
		if i < len(tasks)-1 {
			b.WriteString("  },\n")
		} else {
			b.WriteString("  }\n")
		}
	}
	b.WriteString("]\n")
	return []byte(b.String())
}

func writeField(b *strings.Builder, key, value string, more bool) {
	b.WriteString(`    "`)
	b.WriteString(key)
	b.WriteString(`": `)
	b.WriteString(value)
	if more {
		b.WriteByte(',')
	}
	b.WriteByte('\n')
}

func quote(s string) string {
	return `"` + s + `"`
}

func optionalTime(t *time.Time, layout string) string {
	if t == nil {
		return nullToken
	}
	return quote(t.Format(layout))
}

func boolToken(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// EscapeTitle escapes backslash, double quote, newline, carriage return and
// tab. Backslash is replaced first so the escapes it introduces are not
// escaped again.
func EscapeTitle(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return strings.ReplaceAll(s, "\t", `\t`)
}

// UnescapeTitle reverses EscapeTitle in a single left-to-right pass. Unknown
// escape sequences are kept as written.
func UnescapeTitle(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
	return b.String()
}

// DecodeTasks parses the task file format. It never fails: unknown keys are
// ignored, malformed ids, dates or booleans leave the field at its zero
// value and invalid UTF-8 is replaced with U+FFFD. A "{" inside an open
// record starts the record over, and a record still open at the end of the
// input is dropped while the complete records before it are kept. Blank
// input yields an empty slice.
func DecodeTasks(data []byte) []models.Task {
	tasks := []models.Task{}
	text := strings.ToValidUTF8(string(data), string(utf8.RuneError))
	if strings.TrimSpace(text) == "" {
		return tasks
	}

	var current *models.Task
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "{":
			current = &models.Task{Priority: models.PriorityMedium, Tags: []string{}}
		case trimmed == "}" || trimmed == "},":
			if current != nil {
				tasks = append(tasks, *current)
				current = nil
			}
		case current != nil && strings.Contains(trimmed, ":"):
			key, value, _ := strings.Cut(trimmed, ":")
			applyField(current, unquote(strings.TrimSpace(key)), strings.TrimSpace(value))
		}
	}
	return tasks
}

func applyField(t *models.Task, key, raw string) {
	value, isNull := fieldValue(raw)
	switch key {
	case keyID:
		if id, err := uuid.Parse(value); err == nil {
			t.ID = id
		}
	case keyTitle:
		t.Title = UnescapeTitle(value)
	case keyDescription:
		if !isNull {
			t.Description = UnescapeTitle(value)
		}
	case keyPriority:
		if p, err := models.ParsePriority(value); err == nil {
			t.Priority = p
		}
	case keyCreatedAt:
		if ts, ok := parseDateTime(value); ok {
			t.CreatedAt = ts
		}
	case keyDueDate:
		if isNull {
			return
		}
		if ts, ok := parseDate(value); ok {
			t.DueDate = &ts
		}
	case keyCompletedAt:
		if isNull {
			return
		}
		if ts, ok := parseDateTime(value); ok {
			t.CompletedAt = &ts
		}
	case keyIsCompleted:
		t.IsCompleted = value == "true"
	case keyIsInBacklog:
		t.IsInBacklog = value == "true"
	}
}

// fieldValue strips one trailing separator and one pair of surrounding
// quotes. The bare null token reports isNull.
func fieldValue(raw string) (value string, isNull bool) {
	raw = strings.TrimSuffix(raw, ",")
	raw = strings.TrimSpace(raw)
	if raw == nullToken {
		return "", true
	}
	return unquote(raw), false
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func parseDateTime(s string) (time.Time, bool) {
	for _, layout := range dateTimeInputLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, true
		}
	}
	if ts, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	ts, ok := parseDateTime(s)
	if !ok {
		return time.Time{}, false
	}
	return models.DateOf(ts), true
}
