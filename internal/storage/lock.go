package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("task data is in use by another process")

// Lock guards a data path against a second running instance.
type Lock struct {
	flk *flock.Flock
}

// AcquireLock takes a non-blocking exclusive lock on dataPath + ".lock".
func AcquireLock(dataPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	flk := flock.New(dataPath + ".lock")
	locked, err := flk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", flk.Path(), err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return &Lock{flk: flk}, nil
}

func (l *Lock) Release() error {
	if l == nil || l.flk == nil {
		return nil
	}
	return l.flk.Unlock()
}
