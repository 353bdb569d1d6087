package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"taskmgr/internal/config"
	"taskmgr/internal/query"
	"taskmgr/internal/reminder"
	"taskmgr/internal/service"
	"taskmgr/internal/storage"
	"taskmgr/internal/task"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))             // light blue
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))             // green

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

type popupKind int

const (
	popupInfo popupKind = iota
	popupWarning
	popupError
	popupReminder
)

type popup struct {
	kind  popupKind
	title string
	body  string
}

func info(body string) popup {
	return popup{kind: popupInfo, title: "Notice", body: body}
}

func warning(body string) popup {
	return popup{kind: popupWarning, title: "Warning", body: body}
}

func failure(body string) popup {
	return popup{kind: popupError, title: "Error", body: body}
}

func reminderPopup(r reminder.Reminder) popup {
	return popup{kind: popupReminder, title: "Task reminder", body: r.Message()}
}

// popupFor turns an operation error into the message shown to the user.
func popupFor(err error) popup {
	switch {
	case errors.Is(err, task.ErrMissingField):
		return warning("Please fill in all fields!")
	case errors.Is(err, task.ErrInvalidDueDate):
		return warning("Invalid due date! Use dd/mm/yyyy, today or later.")
	case errors.Is(err, task.ErrInvalidField):
		return warning(fmt.Sprintf("Invalid value: %v", err))
	case errors.Is(err, service.ErrNoSelection):
		return warning("Please select a task first!")
	case errors.Is(err, service.ErrNotFound):
		return failure("The task could not be found. It may have been deleted.")
	case errors.Is(err, storage.ErrCorrupt):
		return popup{kind: popupError, title: "Data error", body: "The task file was corrupt and has been recreated empty."}
	default:
		return failure(fmt.Sprintf("Something went wrong: %v", err))
	}
}

func (p popup) render() string {
	color := lipgloss.Color("39")
	switch p.kind {
	case popupWarning:
		color = lipgloss.Color("214")
	case popupError:
		color = lipgloss.Color("196")
	case popupReminder:
		color = lipgloss.Color("226")
	}
	head := lipgloss.NewStyle().Bold(true).Foreground(color).Render(p.title)
	return boxStyle.BorderForeground(color).Render(head + "\n\n" + p.body + "\n\n" + dimStyle.Render("press any key"))
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func columnTitle(column string) string {
	switch column {
	case query.ColumnTitle:
		return "Title"
	case query.ColumnDueDate:
		return "Due date"
	case query.ColumnPriority:
		return "Priority"
	case query.ColumnStatus:
		return "Status"
	case query.ColumnDescription:
		return "Description"
	default:
		return column
	}
}

func columns(active *query.SortSpec) []table.Column {
	layout := []struct {
		column string
		width  int
	}{
		{query.ColumnTitle, 24},
		{query.ColumnDueDate, 12},
		{query.ColumnPriority, 10},
		{query.ColumnStatus, 13},
		{query.ColumnDescription, 36},
	}
	cols := make([]table.Column, 0, len(layout))
	for _, c := range layout {
		title := columnTitle(c.column)
		if active != nil && active.Column == c.column {
			if active.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols = append(cols, table.Column{Title: title, Width: c.width})
	}
	return cols
}

func rows(tasks []task.Task) []table.Row {
	out := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		priority := string(t.Priority)
		status := t.Status.Label()
		switch {
		case t.Done():
			status = doneStyle.Render(status)
		case t.Priority == task.PriorityHigh:
			priority = highStyle.Render(priority)
		case t.Priority == task.PriorityLow:
			priority = lowStyle.Render(priority)
		}
		out = append(out, table.Row{
			t.Title,
			t.DueDate,
			priority,
			status,
			oneLine(t.Description),
		})
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func filterLabel(v string) string {
	if v == query.All {
		return "All"
	}
	if s := task.Status(v); s.Valid() {
		return s.Label()
	}
	return v
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Personal Task Manager"))
	b.WriteString("\n\n")

	if m.form != nil {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
	}

	b.WriteString(m.search.View())
	b.WriteString("   ")
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Priority:"), filterLabel(m.priorityFilter),
		labelStyle.Render("Status:"), filterLabel(m.statusFilter),
		labelStyle.Render("Sort:"), m.sortLabel()))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("No tasks to show. Press '%s' to add one.", m.cfg.Keys.Add)))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if len(m.popups) > 0 {
		b.WriteString("\n")
		b.WriteString(m.popups[0].render())
		if more := len(m.popups) - 1; more > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("\n(+%d more)", more)))
		}
		b.WriteString("\n")
	} else if m.confirm != nil {
		b.WriteString("\n")
		b.WriteString(boxStyle.BorderForeground(lipgloss.Color("214")).Render(m.confirm.prompt))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) sortLabel() string {
	active := m.sorter.Active()
	if active == nil {
		return "default"
	}
	if active.Descending {
		return columnTitle(active.Column) + " ▼"
	}
	return columnTitle(active.Column) + " ▲"
}

func (m Model) renderForm() string {
	f := m.form
	labels := []string{"Title", "Description", "Due date", "Priority", "Status"}
	var b strings.Builder
	if f.editing() {
		b.WriteString(labelStyle.Render("Edit task"))
	} else {
		b.WriteString(labelStyle.Render("New task"))
	}
	b.WriteString("\n")
	for i, label := range labels {
		prefix := "  "
		if i == f.index {
			prefix = "> "
		}
		var value string
		switch i {
		case fieldPriority:
			value = choice(string(f.priority), i == f.index)
		case fieldStatus:
			value = choice(f.status.Label(), i == f.index)
		default:
			value = f.inputs[i].View()
		}
		b.WriteString(fmt.Sprintf("%s%-12s %s\n", prefix, label+":", value))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func choice(v string, focused bool) string {
	if focused {
		return "◀ " + v + " ▶"
	}
	return v
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s delete • %s delete all • %s search • %s/%s filter • %s-%s sort (%s default) • %s import • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Delete, k.DeleteAll, k.Search, k.FilterPrio, k.FilterStatus,
		k.SortTitle, k.SortDesc, k.SortDefault, k.Import, k.Quit)
}
