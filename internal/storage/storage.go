// Package storage persists the whole task collection. Every Save replaces
// the stored collection; there are no partial updates.
package storage

import (
	"errors"
	"fmt"

	"taskmgr/internal/task"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

var (
	ErrCorrupt     = errors.New("stored tasks are corrupt")
	ErrWrongFormat = errors.New("file belongs to a different storage backend")
)

// CorruptError is returned by Load after unreadable content was replaced
// with an empty collection. The accompanying task slice is empty and valid.
// Backup names the file the unreadable content was moved to, if any.
type CorruptError struct {
	Path   string
	Backup string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Backup != "" {
		return fmt.Sprintf("%s: %v (storage reset to empty, old file kept as %s)", e.Path, e.Err, e.Backup)
	}
	return fmt.Sprintf("%s: %v (storage reset to empty)", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// Backend loads and saves the full ordered collection.
type Backend interface {
	Load() ([]task.Task, error)
	Save(tasks []task.Task) error
	Close() error
}

// Open returns the backend registered under name.
func Open(name, path string) (Backend, error) {
	if path == "" {
		return nil, errors.New("data path is empty")
	}
	switch name {
	case "", BackendJSON:
		return NewJSONFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", name)
	}
}
