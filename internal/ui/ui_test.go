package ui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmgr/internal/config"
	"taskmgr/internal/importer"
	"taskmgr/internal/service"
	"taskmgr/internal/storage"
	"taskmgr/internal/task"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.Local)

type stubSource struct {
	records []importer.Record
	err     error
}

func (s stubSource) Fetch(context.Context) ([]importer.Record, error) {
	return s.records, s.err
}

func newTestService(t *testing.T) *service.Service {
	t.Helper()
	store, err := storage.NewJSONFile(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)
	return service.New(store, service.WithClock(func() time.Time { return fixedNow }))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadOrCreate(filepath.Join(t.TempDir(), config.DefaultConfigFileName))
	require.NoError(t, err)
	return cfg
}

func addTask(t *testing.T, svc *service.Service, title, due string, prio task.Priority) task.Task {
	t.Helper()
	tk, err := svc.Add(task.Input{
		Title:       title,
		Description: "about " + title,
		DueDate:     due,
		Priority:    prio,
		Status:      task.StatusTodo,
	})
	require.NoError(t, err)
	return tk
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func titles(m Model) []string {
	var out []string
	for _, tk := range m.tasks {
		out = append(out, tk.Title)
	}
	return out
}

func TestAddTaskThroughForm(t *testing.T) {
	svc := newTestService(t)
	m := New(svc, testConfig(t), nil)
	require.Empty(t, m.tasks)

	m = send(t, m, runes("a"))
	require.Equal(t, modeForm, m.mode)
	require.NotNil(t, m.form)

	m = send(t, m,
		runes("Buy milk"), key(tea.KeyEnter),
		runes("two litres"), key(tea.KeyEnter),
		runes("30/10/2026"), key(tea.KeyEnter),
		key(tea.KeyRight), key(tea.KeyEnter),
		key(tea.KeyEnter),
	)

	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.form)
	require.Len(t, m.popups, 1)
	assert.Equal(t, "Task added successfully!", m.popups[0].body)

	require.Len(t, m.tasks, 1)
	got := m.tasks[0]
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "two litres", got.Description)
	assert.Equal(t, "30/10/2026", got.DueDate)
	assert.Equal(t, task.PriorityLow, got.Priority)
	assert.Equal(t, task.StatusTodo, got.Status)

	m = send(t, m, runes("x"))
	assert.Empty(t, m.popups)
}

func TestAddTaskValidationKeepsForm(t *testing.T) {
	svc := newTestService(t)
	m := New(svc, testConfig(t), nil)

	m = send(t, m, runes("a"), key(tea.KeyCtrlS))
	require.Len(t, m.popups, 1)
	assert.Equal(t, popupWarning, m.popups[0].kind)
	assert.Equal(t, "Please fill in all fields!", m.popups[0].body)
	assert.Equal(t, modeForm, m.mode)

	m = send(t, m, runes("x"))
	m = send(t, m,
		runes("Trip"), key(tea.KeyTab),
		runes("pack bags"), key(tea.KeyTab),
		runes("01/01/2020"), key(tea.KeyCtrlS),
	)
	require.Len(t, m.popups, 1)
	assert.Contains(t, m.popups[0].body, "Invalid due date")

	all, err := svc.List(m.query())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCancelForm(t *testing.T) {
	m := New(newTestService(t), testConfig(t), nil)
	m = send(t, m, runes("a"), runes("draft"), key(tea.KeyEsc))
	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.form)
	assert.Empty(t, m.tasks)
}

func TestEditSelectedTask(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "Report", "30/10/2026", task.PriorityHigh)
	m := New(svc, testConfig(t), nil)

	m = send(t, m, runes("e"))
	require.NotNil(t, m.form)
	assert.True(t, m.form.editing())
	assert.Equal(t, "Report", m.form.inputs[fieldTitle].Value())

	m = send(t, m, runes(" draft"), key(tea.KeyCtrlS))
	require.Len(t, m.popups, 1)
	assert.Equal(t, "Task updated successfully!", m.popups[0].body)
	require.Len(t, m.tasks, 1)
	assert.Equal(t, "Report draft", m.tasks[0].Title)
}

func TestEditWithoutSelectionWarns(t *testing.T) {
	m := New(newTestService(t), testConfig(t), nil)
	m = send(t, m, runes("e"))
	require.Len(t, m.popups, 1)
	assert.Equal(t, popupWarning, m.popups[0].kind)
	assert.Equal(t, modeList, m.mode)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "Keep me", "30/10/2026", task.PriorityHigh)
	m := New(svc, testConfig(t), nil)

	m = send(t, m, runes("d"))
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.confirm.prompt, "Keep me")

	m = send(t, m, runes("n"))
	assert.Nil(t, m.confirm)
	assert.Len(t, m.tasks, 1)

	m = send(t, m, runes("d"), runes("y"))
	assert.Nil(t, m.confirm)
	assert.Empty(t, m.tasks)
	require.Len(t, m.popups, 1)
	assert.Equal(t, "Task deleted successfully!", m.popups[0].body)
}

func TestDeleteAll(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "One", "30/10/2026", task.PriorityHigh)
	addTask(t, svc, "Two", "31/10/2026", task.PriorityLow)
	m := New(svc, testConfig(t), nil)
	require.Len(t, m.tasks, 2)

	m = send(t, m, runes("D"), runes("y"))
	assert.Empty(t, m.tasks)
	require.Len(t, m.popups, 1)
	assert.Equal(t, "All tasks have been deleted!", m.popups[0].body)
}

func TestFilterCycling(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "Urgent", "30/10/2026", task.PriorityHigh)
	addTask(t, svc, "Someday", "31/10/2026", task.PriorityLow)
	m := New(svc, testConfig(t), nil)
	require.Len(t, m.tasks, 2)

	m = send(t, m, runes("p"))
	assert.Equal(t, "High", m.priorityFilter)
	assert.Equal(t, []string{"Urgent"}, titles(m))

	m = send(t, m, runes("p"))
	assert.Equal(t, "Low", m.priorityFilter)
	assert.Equal(t, []string{"Someday"}, titles(m))

	m = send(t, m, runes("p"))
	assert.Equal(t, "all", m.priorityFilter)
	assert.Len(t, m.tasks, 2)

	m = send(t, m, runes("s"), runes("s"))
	assert.Equal(t, "InProgress", m.statusFilter)
	assert.Empty(t, m.tasks)
}

func TestSearchNarrowsAndClears(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "Alpha", "30/10/2026", task.PriorityHigh)
	addTask(t, svc, "Beta", "31/10/2026", task.PriorityHigh)
	m := New(svc, testConfig(t), nil)

	m = send(t, m, runes("/"))
	assert.Equal(t, modeSearch, m.mode)
	m = send(t, m, runes("alp"))
	assert.Equal(t, []string{"Alpha"}, titles(m))

	m = send(t, m, key(tea.KeyEnter))
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, []string{"Alpha"}, titles(m))

	m = send(t, m, runes("/"), key(tea.KeyEsc))
	assert.Len(t, m.tasks, 2)
}

func TestSortToggle(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "beta", "25/10/2026", task.PriorityHigh)
	addTask(t, svc, "alpha", "30/10/2026", task.PriorityHigh)
	m := New(svc, testConfig(t), nil)
	assert.Equal(t, []string{"beta", "alpha"}, titles(m))

	m = send(t, m, runes("1"))
	require.NotNil(t, m.sorter.Active())
	assert.False(t, m.sorter.Active().Descending)
	assert.Equal(t, []string{"alpha", "beta"}, titles(m))

	m = send(t, m, runes("1"))
	assert.True(t, m.sorter.Active().Descending)
	assert.Equal(t, []string{"beta", "alpha"}, titles(m))

	m = send(t, m, runes("0"))
	assert.Nil(t, m.sorter.Active())
	assert.Equal(t, []string{"beta", "alpha"}, titles(m))
}

func TestReminderShownOnce(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "Soon", "21/10/2026", task.PriorityHigh)
	addTask(t, svc, "Later", "30/10/2026", task.PriorityLow)
	m := New(svc, testConfig(t), nil)

	require.Len(t, m.popups, 1)
	assert.Equal(t, popupReminder, m.popups[0].kind)
	assert.Contains(t, m.popups[0].body, "Soon")
	assert.Contains(t, m.popups[0].body, "2 day(s) left")

	m = send(t, m, runes("x"))
	assert.Empty(t, m.popups)

	m = send(t, m, runes("p"), runes("p"), runes("p"))
	assert.Empty(t, m.popups)
}

func TestImportRoundTrip(t *testing.T) {
	svc := newTestService(t)
	src := stubSource{records: []importer.Record{{ID: 1}, {ID: 3}, {ID: 9}}}
	m := New(svc, testConfig(t), src)

	next, cmd := m.Update(runes("i"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.importing)

	m = send(t, m, cmd())
	assert.False(t, m.importing)
	require.NotEmpty(t, m.popups)
	assert.Equal(t, "Loaded and added 2 task(s) from the API!", m.popups[0].body)
	assert.ElementsMatch(t, []string{"Go to school", "Hang out"}, titles(m))
}

func TestImportFailureLeavesTasks(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "Existing", "30/10/2026", task.PriorityHigh)
	m := New(svc, testConfig(t), nil)

	m = send(t, m, importFetchedMsg{err: errors.New("connection refused")})
	require.Len(t, m.popups, 1)
	assert.Equal(t, popupError, m.popups[0].kind)
	assert.Contains(t, m.popups[0].body, "connection refused")
	assert.Equal(t, []string{"Existing"}, titles(m))
}

func TestImportNothingMatched(t *testing.T) {
	m := New(newTestService(t), testConfig(t), nil)
	m = send(t, m, importFetchedMsg{records: []importer.Record{{ID: 42}}})
	require.Len(t, m.popups, 1)
	assert.Equal(t, popupInfo, m.popups[0].kind)
	assert.Empty(t, m.tasks)
}

func TestImportWithoutSource(t *testing.T) {
	m := New(newTestService(t), testConfig(t), nil)
	m = send(t, m, runes("i"))
	require.Len(t, m.popups, 1)
	assert.Equal(t, popupError, m.popups[0].kind)
	assert.False(t, m.importing)
}

func TestPopupForMapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind popupKind
	}{
		{task.ErrMissingField, popupWarning},
		{task.ErrInvalidDueDate, popupWarning},
		{service.ErrNoSelection, popupWarning},
		{service.ErrNotFound, popupError},
		{&storage.CorruptError{Path: "tasks.json", Err: errors.New("bad")}, popupError},
		{errors.New("disk full"), popupError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, popupFor(tc.err).kind, tc.err.Error())
	}
}

func TestViewRendersTasks(t *testing.T) {
	svc := newTestService(t)
	addTask(t, svc, "Water plants", "30/10/2026", task.PriorityLow)
	m := New(svc, testConfig(t), nil)

	out := m.View()
	assert.Contains(t, out, "Water plants")
	assert.Contains(t, out, "30/10/2026")
	assert.Contains(t, out, "Due date")
}

func TestEditVanishedTaskReportsNotFound(t *testing.T) {
	svc := newTestService(t)
	gone := addTask(t, svc, "Gone", "30/10/2026", task.PriorityHigh)
	m := New(svc, testConfig(t), nil)
	require.Len(t, m.tasks, 1)

	require.NoError(t, svc.Delete(gone.ID))

	m = send(t, m, runes("e"))
	assert.Nil(t, m.form)
	assert.Equal(t, modeList, m.mode)
	require.Len(t, m.popups, 1)
	assert.Equal(t, popupError, m.popups[0].kind)
	assert.Empty(t, m.tasks)
}
