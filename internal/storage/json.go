package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"taskmgr/internal/task"
)

//go:embed tasks.schema.json
var collectionSchemaSource string

var collectionSchema = jsonschema.MustCompileString("tasks.schema.json", collectionSchemaSource)

// JSONFile keeps the collection as one indented JSON array.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) (*JSONFile, error) {
	if path == "" {
		return nil, errors.New("data path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONFile{path: path}, nil
}

func (f *JSONFile) Path() string {
	return f.path
}

func (f *JSONFile) Load() ([]task.Task, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(bytes.TrimSpace(data)) == 0) {
		if err := f.Save(nil); err != nil {
			return nil, err
		}
		return []task.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}

	tasks, err := decodeCollection(data)
	if err != nil {
		if serr := f.Save(nil); serr != nil {
			return nil, serr
		}
		return []task.Task{}, &CorruptError{Path: f.path, Err: err}
	}
	return tasks, nil
}

func decodeCollection(data []byte) ([]task.Task, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := collectionSchema.Validate(doc); err != nil {
		return nil, err
	}
	tasks := []task.Task{}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so readers see either the old or the new collection.
func (f *JSONFile) Save(tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tasks-*.tmp")
	if err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		cleanup()
		return fmt.Errorf("write tasks: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("write tasks: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write tasks: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write tasks: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write tasks: %w", err)
	}
	return nil
}

func (f *JSONFile) Close() error {
	return nil
}
