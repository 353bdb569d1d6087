// Package service implements the task operations. Every mutation loads the
// full collection, changes it in memory and saves it back whole.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"taskmgr/internal/importer"
	"taskmgr/internal/logging"
	"taskmgr/internal/query"
	"taskmgr/internal/storage"
	"taskmgr/internal/task"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrNoSelection     = errors.New("no task selected")
	ErrNothingToImport = errors.New("no matching tasks to import")
)

type Service struct {
	store  storage.Backend
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store storage.Backend, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logging.Discard(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the clock used for validation and reminders.
func (s *Service) Now() time.Time {
	return s.now()
}

// load returns the stored collection. A corrupt store has already been
// reset by the backend, so mutations carry on with the empty collection.
func (s *Service) load() ([]task.Task, error) {
	tasks, err := s.store.Load()
	if errors.Is(err, storage.ErrCorrupt) {
		s.logger.Warn("storage was corrupt and has been reset", "err", err)
		return tasks, nil
	}
	return tasks, err
}

func (s *Service) save(tasks []task.Task) error {
	if err := s.store.Save(tasks); err != nil {
		s.logger.Error("save failed", "err", err)
		return err
	}
	s.logger.Debug("tasks saved", "count", len(tasks))
	return nil
}

// List returns the tasks selected by q. When the store had to be reset the
// (empty) result comes back together with the *storage.CorruptError.
func (s *Service) List(q query.Query) ([]task.Task, error) {
	tasks, err := s.store.Load()
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return nil, err
	}
	if err != nil {
		s.logger.Warn("storage was corrupt and has been reset", "err", err)
	}
	if q.Now.IsZero() {
		q.Now = s.now()
	}
	return query.Apply(tasks, q), err
}

func (s *Service) Get(id string) (task.Task, error) {
	if id == "" {
		return task.Task{}, ErrNoSelection
	}
	tasks, err := s.load()
	if err != nil {
		return task.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return task.Task{}, ErrNotFound
}

func (s *Service) Add(in task.Input) (task.Task, error) {
	in = in.Normalize()
	if err := in.Validate(s.now()); err != nil {
		return task.Task{}, err
	}
	tasks, err := s.load()
	if err != nil {
		return task.Task{}, err
	}
	t := in.Apply(task.Task{ID: s.newID()})
	if err := s.save(append(tasks, t)); err != nil {
		return task.Task{}, err
	}
	s.logger.Info("task added", "id", t.ID, "title", t.Title)
	return t, nil
}

func (s *Service) Edit(id string, in task.Input) (task.Task, error) {
	if id == "" {
		return task.Task{}, ErrNoSelection
	}
	in = in.Normalize()
	if err := in.Validate(s.now()); err != nil {
		return task.Task{}, err
	}
	tasks, err := s.load()
	if err != nil {
		return task.Task{}, err
	}
	for i, t := range tasks {
		if t.ID != id {
			continue
		}
		tasks[i] = in.Apply(t)
		if err := s.save(tasks); err != nil {
			return task.Task{}, err
		}
		s.logger.Info("task edited", "id", id)
		return tasks[i], nil
	}
	return task.Task{}, fmt.Errorf("edit %s: %w", id, ErrNotFound)
}

func (s *Service) Delete(id string) error {
	if id == "" {
		return ErrNoSelection
	}
	tasks, err := s.load()
	if err != nil {
		return err
	}
	kept := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	if err := s.save(kept); err != nil {
		return err
	}
	s.logger.Info("task deleted", "id", id)
	return nil
}

func (s *Service) DeleteAll() error {
	if err := s.save(nil); err != nil {
		return err
	}
	s.logger.Info("all tasks deleted")
	return nil
}

// ImportRecords appends the tasks produced from already fetched records.
// Fetching happens elsewhere so the network call never holds up storage.
func (s *Service) ImportRecords(records []importer.Record) (int, error) {
	added := importer.Transform(records, s.now(), s.newID)
	if len(added) == 0 {
		return 0, ErrNothingToImport
	}
	tasks, err := s.load()
	if err != nil {
		return 0, err
	}
	if err := s.save(append(tasks, added...)); err != nil {
		return 0, err
	}
	s.logger.Info("tasks imported", "count", len(added), "fetched", len(records))
	return len(added), nil
}
