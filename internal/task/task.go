// Package task holds the task entity, its enums, and due-date validation.
package task

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DueDateLayout is the dd/mm/yyyy layout used for stored due dates.
const DueDateLayout = "02/01/2006"

type Priority string

const (
	PriorityHigh Priority = "High"
	PriorityLow  Priority = "Low"
)

type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
)

// Priorities lists the known priorities in rank order.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityLow}
}

// Statuses lists the known statuses in workflow order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// Rank orders priorities High < Low < anything else.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 1
	default:
		return 99
	}
}

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityLow
}

// Rank orders statuses Todo < InProgress < Done < anything else.
func (s Status) Rank() int {
	switch s {
	case StatusTodo:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	default:
		return 99
	}
}

func (s Status) Valid() bool {
	return s.Rank() < 99
}

// Label is the human form shown in lists and dropdowns.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	default:
		return string(s)
	}
}

// Task is a single entry of the task collection. Field names match the
// persisted JSON document.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
}

func (t Task) Done() bool {
	return t.Status == StatusDone
}

var dueDatePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

var ErrBadDueDate = errors.New("due date must be dd/mm/yyyy")

// ParseDueDate checks the dd/mm/yyyy shape and that the digits name a real
// calendar day. The result is midnight UTC.
func ParseDueDate(text string) (time.Time, error) {
	if !dueDatePattern.MatchString(text) {
		return time.Time{}, ErrBadDueDate
	}
	d, err := time.Parse(DueDateLayout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrBadDueDate, err)
	}
	return d, nil
}

func FormatDueDate(t time.Time) string {
	return t.Format(DueDateLayout)
}

// Day truncates t to its calendar date in t's own location, expressed as
// midnight UTC so it compares directly with ParseDueDate results.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsValidDueDate reports whether text is a dd/mm/yyyy date on or after the
// calendar date of ref.
func IsValidDueDate(text string, ref time.Time) bool {
	d, err := ParseDueDate(text)
	if err != nil {
		return false
	}
	return !d.Before(Day(ref))
}

// DaysUntil returns the whole calendar days from ref to the due date.
func DaysUntil(due time.Time, ref time.Time) int {
	return int(Day(due).Sub(Day(ref)).Hours() / 24)
}

// Input carries the user-editable fields of a task.
type Input struct {
	Title       string
	Description string
	DueDate     string
	Priority    Priority
	Status      Status
}

// Normalize trims the free-text fields.
func (in Input) Normalize() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	return in
}

// Validate checks required fields first, then the due date, then the enums.
// in is expected to be normalized.
func (in Input) Validate(ref time.Time) error {
	switch {
	case in.Title == "":
		return &ValidationError{Field: "title", Reason: ErrMissingField}
	case in.Description == "":
		return &ValidationError{Field: "description", Reason: ErrMissingField}
	case in.DueDate == "":
		return &ValidationError{Field: "due_date", Reason: ErrMissingField}
	}
	if !IsValidDueDate(in.DueDate, ref) {
		return &ValidationError{Field: "due_date", Reason: ErrInvalidDueDate}
	}
	if !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: ErrInvalidField}
	}
	if !in.Status.Valid() {
		return &ValidationError{Field: "status", Reason: ErrInvalidField}
	}
	return nil
}

// Apply copies the input onto a task, keeping its id.
func (in Input) Apply(t Task) Task {
	t.Title = in.Title
	t.Description = in.Description
	t.DueDate = in.DueDate
	t.Priority = in.Priority
	t.Status = in.Status
	return t
}

// InputFrom returns the editable fields of t, used to populate a form.
func InputFrom(t Task) Input {
	return Input{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		Status:      t.Status,
	}
}
