// Package importer fetches sample records from a remote API and turns a
// fixed handful of them into tasks.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskmgr/internal/task"
)

const (
	DefaultURL     = "https://jsonplaceholder.typicode.com/todos"
	DefaultTimeout = 10 * time.Second
)

var ErrMalformedResponse = errors.New("malformed response body")

// Record is one remote item. Only ID drives the import.
type Record struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Source supplies raw records.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource builds a source with a client bounded by timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: s.URL, Code: resp.StatusCode}
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return records, nil
}

type template struct {
	title       string
	description string
	dueInDays   int
	priority    task.Priority
	status      task.Status
}

var templates = map[int]template{
	1: {
		title:       "Go to school",
		description: "Pack books and uniform and get to class on time. Don't forget the homework!",
		dueInDays:   1,
		priority:    task.PriorityHigh,
		status:      task.StatusTodo,
	},
	2: {
		title:       "Evening part-time shift",
		description: "Finish the assigned work at the part-time job, get along with coworkers and get home safely.",
		dueInDays:   3,
		priority:    task.PriorityHigh,
		status:      task.StatusInProgress,
	},
	3: {
		title:       "Hang out",
		description: "Some time off.",
		dueInDays:   6,
		priority:    task.PriorityLow,
		status:      task.StatusDone,
	},
}

// Transform maps known record ids to their fixed task content and drops the
// rest. newID supplies each task id.
func Transform(records []Record, now time.Time, newID func() string) []task.Task {
	var out []task.Task
	for _, r := range records {
		tpl, ok := templates[r.ID]
		if !ok {
			continue
		}
		out = append(out, task.Task{
			ID:          newID(),
			Title:       tpl.title,
			Description: tpl.description,
			DueDate:     task.FormatDueDate(now.AddDate(0, 0, tpl.dueInDays)),
			Priority:    tpl.priority,
			Status:      tpl.status,
		})
	}
	return out
}
