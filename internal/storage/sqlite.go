package storage

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"taskmgr/internal/task"
)

// SQLite keeps the collection in a single table ordered by position. Save
// rewrites the table inside one transaction.
type SQLite struct {
	db      *sql.DB
	path    string
	corrupt *CorruptError
}

func OpenSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}

	s, err := openSQLite(dbPath)
	if err == nil {
		return s, nil
	}
	if !isCorruption(err) {
		return nil, err
	}
	if isJSONDocument(dbPath) {
		return nil, fmt.Errorf("%s: %w", dbPath, ErrWrongFormat)
	}

	backup, merr := moveAside(dbPath, time.Now())
	if merr != nil {
		return nil, merr
	}
	s, rerr := openSQLite(dbPath)
	if rerr != nil {
		return nil, rerr
	}
	s.corrupt = &CorruptError{Path: dbPath, Backup: backup, Err: err}
	return s, nil
}

// isJSONDocument reports whether path holds well-formed JSON, as a task
// file written by the json backend does.
func isJSONDocument(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	data = bytes.TrimSpace(data)
	return len(data) > 0 && (data[0] == '[' || data[0] == '{') && json.Valid(data)
}

// moveAside renames the database and its journal files to
// <name>.corrupt-<timestamp> and returns the new database path.
func moveAside(dbPath string, now time.Time) (string, error) {
	suffix := ".corrupt-" + now.UTC().Format("20060102T150405Z")
	backup := dbPath + suffix
	for _, ext := range []string{"", "-wal", "-shm", "-journal"} {
		err := os.Rename(dbPath+ext, dbPath+suffix+ext)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("move corrupt database aside: %w", err)
		}
	}
	return backup, nil
}

func openSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.quickCheck(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT ''
);`
	_, err := s.db.Exec(ddl)
	return err
}

var errIntegrity = errors.New("integrity check failed")

func (s *SQLite) quickCheck() error {
	var result string
	if err := s.db.QueryRow(`PRAGMA quick_check;`).Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", errIntegrity, result)
	}
	return nil
}

func isCorruption(err error) bool {
	if errors.Is(err, errIntegrity) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed")
}

func (s *SQLite) Load() ([]task.Task, error) {
	if s.corrupt != nil {
		cerr := s.corrupt
		s.corrupt = nil
		return []task.Task{}, cerr
	}

	rows, err := s.db.Query(`SELECT id, title, description, due_date, priority, status FROM tasks ORDER BY position;`)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var t task.Task
		var priority, status string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &priority, &status); err != nil {
			return nil, fmt.Errorf("read tasks: %w", err)
		}
		t.Priority = task.Priority(priority)
		t.Status = task.Status(status)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	return tasks, nil
}

func (s *SQLite) Save(tasks []task.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks;`); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks (position, id, title, description, due_date, priority, status) VALUES (?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		if _, err := stmt.Exec(i, t.ID, t.Title, t.Description, t.DueDate, string(t.Priority), string(t.Status)); err != nil {
			return fmt.Errorf("write tasks: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
