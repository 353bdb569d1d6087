package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskmgr/internal/task"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDueDate
	fieldPriority
	fieldStatus
	fieldCount
)

type formState struct {
	editID   string
	inputs   []textinput.Model
	priority task.Priority
	status   task.Status
	index    int
}

func newForm(t *task.Task) *formState {
	placeholders := []string{"Title", "Description", "dd/mm/yyyy"}
	f := &formState{
		priority: task.PriorityHigh,
		status:   task.StatusTodo,
	}
	for _, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 48
		f.inputs = append(f.inputs, ti)
	}
	if t != nil {
		in := task.InputFrom(*t)
		f.editID = t.ID
		f.inputs[fieldTitle].SetValue(in.Title)
		f.inputs[fieldDescription].SetValue(in.Description)
		f.inputs[fieldDueDate].SetValue(in.DueDate)
		if in.Priority.Valid() {
			f.priority = in.Priority
		}
		if in.Status.Valid() {
			f.status = in.Status
		}
	}
	return f
}

func (f *formState) focus(i int) tea.Cmd {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.index = wrapIndex(i, fieldCount)
	if f.index < len(f.inputs) {
		return f.inputs[f.index].Focus()
	}
	return nil
}

func (f *formState) setWidth(w int) {
	if w < 20 {
		return
	}
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
}

// cycle moves the priority or status choice by delta. It reports false
// when the focused field is a text input.
func (f *formState) cycle(delta int) bool {
	switch f.index {
	case fieldPriority:
		opts := task.Priorities()
		f.priority = opts[wrapIndex(indexOf(opts, f.priority)+delta, len(opts))]
		return true
	case fieldStatus:
		opts := task.Statuses()
		f.status = opts[wrapIndex(indexOf(opts, f.status)+delta, len(opts))]
		return true
	}
	return false
}

func (f *formState) input() task.Input {
	return task.Input{
		Title:       f.inputs[fieldTitle].Value(),
		Description: f.inputs[fieldDescription].Value(),
		DueDate:     f.inputs[fieldDueDate].Value(),
		Priority:    f.priority,
		Status:      f.status,
	}
}

func (f *formState) editing() bool {
	return f.editID != ""
}

func indexOf[T comparable](opts []T, v T) int {
	for i, o := range opts {
		if o == v {
			return i
		}
	}
	return 0
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func (m Model) startForm(t *task.Task) (tea.Model, tea.Cmd) {
	m.form = newForm(t)
	m.mode = modeForm
	if m.form.editing() {
		m.status = "Edit task: tab to move, ←/→ to change choices, enter on the last field (or ctrl+s) to save, esc to cancel"
	} else {
		m.status = "New task: tab to move, ←/→ to change choices, enter on the last field (or ctrl+s) to save, esc to cancel"
	}
	return m, m.form.focus(fieldTitle)
}

func (m Model) updateFormMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.mode = modeList
		return m, nil
	}
	switch key := msg.String(); key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		return m, f.focus(f.index + 1)
	case "shift+tab", "up":
		return m, f.focus(f.index - 1)
	case "ctrl+s":
		return m.submitForm()
	case m.cfg.Keys.Confirm, "enter":
		if f.index < fieldCount-1 {
			return m, f.focus(f.index + 1)
		}
		return m.submitForm()
	case "left", "right", " ":
		delta := 1
		if key == "left" {
			delta = -1
		}
		if f.cycle(delta) {
			return m, nil
		}
	}
	if f.index < len(f.inputs) {
		var cmd tea.Cmd
		f.inputs[f.index], cmd = f.inputs[f.index].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	var (
		saved task.Task
		err   error
	)
	if f.editing() {
		saved, err = m.svc.Edit(f.editID, f.input())
	} else {
		saved, err = m.svc.Add(f.input())
	}
	if err != nil {
		m.popups = append(m.popups, popupFor(err))
		return m, nil
	}

	if f.editing() {
		m.popups = append(m.popups, info("Task updated successfully!"))
	} else {
		m.popups = append(m.popups, info("Task added successfully!"))
	}
	m.form = nil
	m.mode = modeList
	m.status = "Saved " + strings.TrimSpace(saved.Title)
	m = m.refresh()
	for i, t := range m.tasks {
		if t.ID == saved.ID {
			m.table.SetCursor(i)
			break
		}
	}
	return m, nil
}
