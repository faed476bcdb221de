package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskday/pkg/models"
)

const twoTaskFile = `[
  {
    "Id": "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
    "Title": "Buy milk",
    "CreatedAt": "2025-03-14T09:30:00",
    "DueDate": null,
    "CompletedAt": null,
    "IsCompleted": false,
    "IsInBacklog": true
  },
  {
    "Id": "9b2c6f1a-7d3e-4c55-8a41-2f0e6d9c1b7a",
    "Title": "Fix \"login\" \\ bug\nthen deploy",
    "CreatedAt": "2025-03-13T08:00:05",
    "DueDate": "2025-03-14",
    "CompletedAt": "2025-03-14T17:45:10",
    "IsCompleted": true,
    "IsInBacklog": false
  }
]
`

func local(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.Local)
}

func twoTasks() []models.Task {
	due := local(2025, 3, 14, 0, 0, 0)
	done := local(2025, 3, 14, 17, 45, 10)
	return []models.Task{
		{
			ID:          uuid.MustParse("3f2504e0-4f89-41d3-9a0c-0305e82c3301"),
			Title:       "Buy milk",
			CreatedAt:   local(2025, 3, 14, 9, 30, 0),
			IsInBacklog: true,
			Priority:    models.PriorityMedium,
			Tags:        []string{"ignored"},
		},
		{
			ID:          uuid.MustParse("9b2c6f1a-7d3e-4c55-8a41-2f0e6d9c1b7a"),
			Title:       "Fix \"login\" \\ bug\nthen deploy",
			CreatedAt:   local(2025, 3, 13, 8, 0, 5),
			DueDate:     &due,
			CompletedAt: &done,
			IsCompleted: true,
			Priority:    models.PriorityHigh,
		},
	}
}

func TestEncodeTasks_Format(t *testing.T) {
	got := string(EncodeTasks(twoTasks(), EncodeOptions{}))
	if got != twoTaskFile {
		t.Errorf("unexpected encoding:\n--- got ---\n%s\n--- want ---\n%s", got, twoTaskFile)
	}
}

func TestEncodeTasks_Empty(t *testing.T) {
	for _, tasks := range [][]models.Task{nil, {}} {
		got := string(EncodeTasks(tasks, EncodeOptions{}))
		if got != "[\n]\n" {
			t.Errorf("expected empty list markers, got %q", got)
		}
	}
}

func TestEncodeTasks_DropsSubSecondPrecision(t *testing.T) {
	task := twoTasks()[0]
	task.CreatedAt = task.CreatedAt.Add(750 * time.Millisecond)

	got := string(EncodeTasks([]models.Task{task}, EncodeOptions{}))
	if !strings.Contains(got, `"CreatedAt": "2025-03-14T09:30:00",`) {
		t.Errorf("expected second-precision timestamp, got:\n%s", got)
	}
}

func TestEncodeTasks_ExtendedFields(t *testing.T) {
	tasks := twoTasks()
	tasks[1].Description = "after\tlunch"

	got := string(EncodeTasks(tasks, EncodeOptions{ExtendedFields: true}))

	wantLines := []string{
		`    "Title": "Buy milk",`,
		`    "Description": "",`,
		`    "Priority": "Medium",`,
		`    "Description": "after\tlunch",`,
		`    "Priority": "High",`,
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("expected line %q in:\n%s", line, got)
		}
	}

	// Description and Priority follow Title directly.
	titleAt := strings.Index(got, `"Title": "Buy milk"`)
	descAt := strings.Index(got, `"Description": ""`)
	createdAt := strings.Index(got, `"CreatedAt": "2025-03-14T09:30:00"`)
	if !(titleAt < descAt && descAt < createdAt) {
		t.Errorf("expected Title, Description, CreatedAt order, got offsets %d %d %d", titleAt, descAt, createdAt)
	}
}

func TestEncodeTasks_NeverWritesTags(t *testing.T) {
	got := string(EncodeTasks(twoTasks(), EncodeOptions{ExtendedFields: true}))
	if strings.Contains(got, "Tags") || strings.Contains(got, "ignored") {
		t.Errorf("tags must not be encoded:\n%s", got)
	}
}

func TestDecodeTasks_Format(t *testing.T) {
	tasks := DecodeTasks([]byte(twoTaskFile))
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	want := twoTasks()
	for i := range want {
		assertSameTask(t, tasks[i], want[i])
	}
	if tasks[1].Priority != models.PriorityMedium {
		t.Errorf("expected Medium priority when the field is absent, got %s", tasks[1].Priority)
	}
	if tasks[0].Tags == nil || len(tasks[0].Tags) != 0 {
		t.Errorf("expected empty tag list, got %#v", tasks[0].Tags)
	}
}

func TestDecodeTasks_EmptyInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t\n"},
		{"list markers only", "[\n]\n"},
		{"list markers on one line", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := DecodeTasks([]byte(tt.input))
			if tasks == nil || len(tasks) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", tasks)
			}
		})
	}
}

func TestDecodeTasks_MalformedFieldsKeepDefaults(t *testing.T) {
	input := `[
  {
    "Id": "not-a-uuid",
    "Title": "Broken fields",
    "CreatedAt": "yesterday",
    "DueDate": "2025-13-45",
    "CompletedAt": "soon",
    "IsCompleted": "maybe",
    "IsInBacklog": TRUE
  }
]`
	tasks := DecodeTasks([]byte(input))
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.ID != uuid.Nil {
		t.Errorf("expected nil id, got %s", got.ID)
	}
	if got.Title != "Broken fields" {
		t.Errorf("expected title to survive, got %q", got.Title)
	}
	if !got.CreatedAt.IsZero() || got.DueDate != nil || got.CompletedAt != nil {
		t.Errorf("expected zero timestamps, got %v %v %v", got.CreatedAt, got.DueDate, got.CompletedAt)
	}
	if got.IsCompleted || got.IsInBacklog {
		t.Error("expected false flags for malformed booleans")
	}
}

func TestDecodeTasks_IgnoresUnknownKeysAndOutsideLines(t *testing.T) {
	input := `[
  "Stray": "outside any record",
  {
    "Id": "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
    "Colour": "blue",
    "Title": "Known",
    "Tags": ["a", "b"],
    "IsInBacklog": true
  },
]`
	tasks := DecodeTasks([]byte(input))
	if len(tasks) != 1 || tasks[0].Title != "Known" || !tasks[0].IsInBacklog {
		t.Fatalf("unexpected result: %+v", tasks)
	}
}

func TestDecodeTasks_TitleWithColonsAndCommas(t *testing.T) {
	input := `[
  {
    "Id": "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
    "Title": "Meeting: 10:30, room 4,",
    "CreatedAt": "2025-03-14T09:30:00"
  }
]`
	tasks := DecodeTasks([]byte(input))
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Meeting: 10:30, room 4," {
		t.Errorf("unexpected title %q", tasks[0].Title)
	}
	if !tasks[0].CreatedAt.Equal(local(2025, 3, 14, 9, 30, 0)) {
		t.Errorf("unexpected CreatedAt %v", tasks[0].CreatedAt)
	}
}

func TestDecodeTasks_ExtendedFields(t *testing.T) {
	input := `[
  {
    "Id": "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
    "Title": "Plan trip",
    "Description": "book \"cheap\" flights",
    "Priority": "Urgent",
    "CreatedAt": "2025-03-14T09:30:00",
    "DueDate": null,
    "CompletedAt": null,
    "IsCompleted": false,
    "IsInBacklog": true
  }
]`
	tasks := DecodeTasks([]byte(input))
	if tasks[0].Description != `book "cheap" flights` {
		t.Errorf("unexpected description %q", tasks[0].Description)
	}
	if tasks[0].Priority != models.PriorityUrgent {
		t.Errorf("expected Urgent, got %s", tasks[0].Priority)
	}
}

func TestDecodeTasks_AcceptsCRLF(t *testing.T) {
	input := strings.ReplaceAll(twoTaskFile, "\n", "\r\n")
	tasks := DecodeTasks([]byte(input))
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if !tasks[1].IsCompleted || tasks[0].IsCompleted {
		t.Error("expected boolean fields to survive CRLF line endings")
	}
}

func TestDecodeTasks_RecoversFromBrokenStructure(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantTitles []string
	}{
		{
			name:       "record reopened before it was closed",
			input:      "[\n  {\n    \"Title\": \"a\"\n  {\n    \"Title\": \"b\"\n  }\n]\n",
			wantTitles: []string{"b"},
		},
		{
			name:       "unterminated last record",
			input:      "[\n  {\n    \"Title\": \"a\"\n  },\n  {\n    \"Title\": \"b\",\n",
			wantTitles: []string{"a"},
		},
		{
			name:       "only an unterminated record",
			input:      "[\n  {\n    \"Title\": \"cut off",
			wantTitles: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := DecodeTasks([]byte(tt.input))
			if len(tasks) != len(tt.wantTitles) {
				t.Fatalf("expected %d tasks, got %d: %+v", len(tt.wantTitles), len(tasks), tasks)
			}
			for i, want := range tt.wantTitles {
				if tasks[i].Title != want {
					t.Errorf("task %d title = %q, want %q", i, tasks[i].Title, want)
				}
			}
		})
	}
}

func TestDecodeTasks_TruncatedFileKeepsEarlierRecords(t *testing.T) {
	truncated := twoTaskFile[:len(twoTaskFile)-40]
	tasks := DecodeTasks([]byte(truncated))
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	assertSameTask(t, tasks[0], twoTasks()[0])
}

func TestDecodeTasks_InvalidUTF8IsReplaced(t *testing.T) {
	tasks := twoTasks()
	tasks[0].Title = "Caf\xe9 au lait"
	data := EncodeTasks(tasks, EncodeOptions{})

	got := DecodeTasks(data)
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].Title != "Caf\uFFFD au lait" {
		t.Errorf("title = %q, want invalid byte replaced with U+FFFD", got[0].Title)
	}
	assertSameTask(t, got[1], tasks[1])
}

func TestDecodeTasks_Garbage(t *testing.T) {
	inputs := []string{
		"this is not a task file",
		"\x00\x01\x02 binary",
		"}}}}",
		"<tasks><task/></tasks>",
	}
	for _, in := range inputs {
		tasks := DecodeTasks([]byte(in))
		if len(tasks) != 0 {
			t.Errorf("DecodeTasks(%q) = %d tasks, want 0", in, len(tasks))
		}
	}
}

func TestEscapeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`back\slash`, `back\\slash`},
		{`say "hi"`, `say \"hi\"`},
		{"a\nb\rc\td", `a\nb\rc\td`},
		{`\n literal`, `\\n literal`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeTitle(tt.in); got != tt.want {
			t.Errorf("EscapeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnescapeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`back\\slash`, `back\slash`},
		{`say \"hi\"`, `say "hi"`},
		{`a\nb\rc\td`, "a\nb\rc\td"},
		{`\\n literal`, `\n literal`},
		{`unknown \x escape`, `unknown \x escape`},
		{`trailing \`, `trailing \`},
	}
	for _, tt := range tests {
		if got := UnescapeTitle(tt.in); got != tt.want {
			t.Errorf("UnescapeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// assertSameTask compares the fields the codec preserves.
func assertSameTask(t *testing.T, got, want models.Task) {
	t.Helper()
	if got.ID != want.ID {
		t.Errorf("ID = %s, want %s", got.ID, want.ID)
	}
	if got.Title != want.Title {
		t.Errorf("Title = %q, want %q", got.Title, want.Title)
	}
	if !got.CreatedAt.Equal(want.CreatedAt.Truncate(time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if !sameOptionalTime(got.DueDate, want.DueDate, dateLayout) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, want.DueDate)
	}
	if !sameOptionalTime(got.CompletedAt, want.CompletedAt, dateTimeLayout) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, want.CompletedAt)
	}
	if got.IsCompleted != want.IsCompleted {
		t.Errorf("IsCompleted = %v, want %v", got.IsCompleted, want.IsCompleted)
	}
	if got.IsInBacklog != want.IsInBacklog {
		t.Errorf("IsInBacklog = %v, want %v", got.IsInBacklog, want.IsInBacklog)
	}
}

func sameOptionalTime(a, b *time.Time, layout string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(layout) == b.Format(layout)
}
