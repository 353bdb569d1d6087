// Package reminder decides which tasks deserve a due-soon popup. Each task
// id is announced at most once per Tracker.
package reminder

import (
	"fmt"
	"time"

	"taskmgr/internal/task"
)

const DefaultWindowDays = 3

type Reminder struct {
	TaskID   string
	Title    string
	DueDate  string
	DaysLeft int
}

func (r Reminder) Message() string {
	return fmt.Sprintf("Task %q is due soon!\nDue date: %s\n%d day(s) left.", r.Title, r.DueDate, r.DaysLeft)
}

type Tracker struct {
	window   int
	notified map[string]struct{}
}

// NewTracker returns a tracker that fires for tasks due within windowDays.
// A negative window falls back to DefaultWindowDays.
func NewTracker(windowDays int) *Tracker {
	if windowDays < 0 {
		windowDays = DefaultWindowDays
	}
	return &Tracker{
		window:   windowDays,
		notified: map[string]struct{}{},
	}
}

// Check returns a reminder for t when it is open, due within the window of
// ref, and not yet announced. Malformed tasks never produce a reminder.
func (tr *Tracker) Check(t task.Task, ref time.Time) (Reminder, bool) {
	if t.ID == "" || t.Done() {
		return Reminder{}, false
	}
	if _, ok := tr.notified[t.ID]; ok {
		return Reminder{}, false
	}
	due, err := task.ParseDueDate(t.DueDate)
	if err != nil {
		return Reminder{}, false
	}
	days := task.DaysUntil(due, ref)
	if days < 0 || days > tr.window {
		return Reminder{}, false
	}
	tr.notified[t.ID] = struct{}{}
	return Reminder{TaskID: t.ID, Title: t.Title, DueDate: t.DueDate, DaysLeft: days}, true
}

// CheckAll runs Check over tasks in order.
func (tr *Tracker) CheckAll(tasks []task.Task, ref time.Time) []Reminder {
	var out []Reminder
	for _, t := range tasks {
		if r, ok := tr.Check(t, ref); ok {
			out = append(out, r)
		}
	}
	return out
}

func (tr *Tracker) Notified(id string) bool {
	_, ok := tr.notified[id]
	return ok
}
