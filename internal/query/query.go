// Package query filters and orders a task collection for display.
package query

import (
	"sort"
	"strings"
	"time"

	"taskmgr/internal/task"
)

// All disables the priority or status filter.
const All = "all"

const (
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnDueDate     = "due_date"
	ColumnPriority    = "priority"
	ColumnStatus      = "status"
)

// farFuture stands in for missing or unparseable due dates in the default
// order so those tasks sink to the end of their priority group.
var farFuture = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

// Query bundles the three filters and an optional explicit sort. Now is
// the reference day for the due-date sort; dates before it rank as invalid.
type Query struct {
	Search   string
	Priority string
	Status   string
	Sort     *SortSpec
	Now      time.Time
}

// SortSpec is an explicit column sort requested by the user.
type SortSpec struct {
	Column     string
	Descending bool
}

// Apply filters tasks, puts them in default order and, when q.Sort is set,
// stably re-sorts by that column. The input slice is not modified.
func Apply(tasks []task.Task, q Query) []task.Task {
	out := Filter(tasks, q)
	DefaultSort(out)
	if q.Sort != nil {
		SortBy(out, *q.Sort, q.Now)
	}
	return out
}

// Filter returns the tasks passing all three filters, in their original
// relative order.
func Filter(tasks []task.Task, q Query) []task.Task {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			continue
		}
		if !matches(q.Priority, string(t.Priority)) {
			continue
		}
		if !matches(q.Status, string(t.Status)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// DefaultSort orders by priority rank, then due date ascending.
func DefaultSort(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return dueOrFarFuture(tasks[i]).Before(dueOrFarFuture(tasks[j]))
	})
}

func dueOrFarFuture(t task.Task) time.Time {
	d, err := task.ParseDueDate(t.DueDate)
	if err != nil {
		return farFuture
	}
	return d
}

// SortBy stably sorts tasks by one column. Descending reverses the key
// order while keeping equal keys in place. Due dates that are malformed or
// earlier than ref's calendar day count as invalid.
func SortBy(tasks []task.Task, order SortSpec, ref time.Time) {
	cmp := comparator(order.Column, ref)
	sort.SliceStable(tasks, func(i, j int) bool {
		if order.Descending {
			return cmp(tasks[j], tasks[i]) < 0
		}
		return cmp(tasks[i], tasks[j]) < 0
	})
}

type compareFunc func(a, b task.Task) int

func comparator(column string, ref time.Time) compareFunc {
	switch column {
	case ColumnDueDate:
		return func(a, b task.Task) int {
			return compareDue(a.DueDate, b.DueDate, ref)
		}
	case ColumnPriority:
		return func(a, b task.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		}
	case ColumnStatus:
		return func(a, b task.Task) int {
			return a.Status.Rank() - b.Status.Rank()
		}
	default:
		return func(a, b task.Task) int {
			return strings.Compare(strings.ToLower(columnText(a, column)), strings.ToLower(columnText(b, column)))
		}
	}
}

// compareDue puts invalid dates after every valid one. Invalid dates
// compare equal to each other.
func compareDue(a, b string, ref time.Time) int {
	validA, validB := task.IsValidDueDate(a, ref), task.IsValidDueDate(b, ref)
	switch {
	case !validA && !validB:
		return 0
	case !validA:
		return 1
	case !validB:
		return -1
	}
	da, _ := task.ParseDueDate(a)
	db, _ := task.ParseDueDate(b)
	return da.Compare(db)
}

func columnText(t task.Task, column string) string {
	switch column {
	case ColumnTitle:
		return t.Title
	case ColumnDescription:
		return t.Description
	case ColumnDueDate:
		return t.DueDate
	case ColumnPriority:
		return string(t.Priority)
	case ColumnStatus:
		return string(t.Status)
	case "id":
		return t.ID
	default:
		return ""
	}
}

// Sorter remembers the active column sort. Requesting the same column
// again flips the direction; a new column starts ascending.
type Sorter struct {
	active *SortSpec
}

func (s *Sorter) Toggle(column string) SortSpec {
	if s.active != nil && s.active.Column == column {
		s.active.Descending = !s.active.Descending
	} else {
		s.active = &SortSpec{Column: column}
	}
	return *s.active
}

// Active returns a copy of the current sort, or nil for the default order.
func (s *Sorter) Active() *SortSpec {
	if s.active == nil {
		return nil
	}
	cp := *s.active
	return &cp
}

func (s *Sorter) Reset() {
	s.active = nil
}
