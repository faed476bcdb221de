package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/taskday/pkg/models"
)

// DefaultTaskFileName is the name of the task file inside the base directory.
const DefaultTaskFileName = "tasks.json"

// TaskRepository reads and writes the whole task collection at once.
type TaskRepository interface {
	// Load returns the tasks stored on disk. A missing file is not an
	// error and yields an empty slice. If the file cannot be read the
	// returned slice is empty and the error says why.
	Load() ([]models.Task, error)
	// Save replaces the file contents with the encoded tasks. The file is
	// written to a temporary sibling and renamed into place.
	Save(tasks []models.Task) error
	// Path returns the location of the backing file.
	Path() string
}

type fileTaskRepository struct {
	path string
	opts EncodeOptions
}

// NewTaskRepository creates a TaskRepository backed by the file at path.
func NewTaskRepository(path string, opts EncodeOptions) TaskRepository {
	return &fileTaskRepository{path: path, opts: opts}
}

func (r *fileTaskRepository) Path() string {
	return r.path
}

func (r *fileTaskRepository) Load() ([]models.Task, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Task{}, nil
		}
		return []models.Task{}, fmt.Errorf("loading tasks: %w", err)
	}
	return DecodeTasks(data), nil
}

func (r *fileTaskRepository) Save(tasks []models.Task) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return fmt.Errorf("saving tasks: creating directory: %w", err)
	}
	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, EncodeTasks(tasks, r.opts), 0o600); err != nil {
		return fmt.Errorf("saving tasks: writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving tasks: renaming: %w", err)
	}
	return nil
}
