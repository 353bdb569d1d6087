package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskmgr/internal/config"
	"taskmgr/internal/importer"
	"taskmgr/internal/query"
	"taskmgr/internal/reminder"
	"taskmgr/internal/service"
	"taskmgr/internal/storage"
	"taskmgr/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeSearch
)

type confirmKind int

const (
	confirmDelete confirmKind = iota + 1
	confirmDeleteAll
)

type confirmState struct {
	kind   confirmKind
	taskID string
	prompt string
}

type importFetchedMsg struct {
	records []importer.Record
	err     error
}

type Model struct {
	svc            *service.Service
	cfg            config.Config
	source         importer.Source
	importTimeout  time.Duration
	tracker        *reminder.Tracker
	tasks          []task.Task
	table          table.Model
	mode           mode
	form           *formState
	search         textinput.Model
	priorityFilter string
	statusFilter   string
	sorter         query.Sorter
	confirm        *confirmState
	popups         []popup
	status         string
	importing      bool
}

func New(svc *service.Service, cfg config.Config, src importer.Source) Model {
	tbl := table.New(
		table.WithColumns(columns(nil)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	tbl.SetStyles(tableStyles())

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title or description"
	search.CharLimit = 128
	search.Width = 40

	m := Model{
		svc:            svc,
		cfg:            cfg,
		source:         src,
		importTimeout:  time.Duration(cfg.Import.TimeoutSeconds) * time.Second,
		tracker:        reminder.NewTracker(cfg.ReminderDays),
		table:          tbl,
		mode:           modeList,
		search:         search,
		priorityFilter: pickFilter(cfg.Filters.Priority, priorityFilters()),
		statusFilter:   pickFilter(cfg.Filters.Status, statusFilters()),
		status:         fmt.Sprintf("Press '%s' to add, '%s' to edit, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Edit, cfg.Keys.Delete),
	}
	return m.refresh()
}

func Run(svc *service.Service, cfg config.Config, src importer.Source) error {
	program := tea.NewProgram(New(svc, cfg, src), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if len(m.popups) > 0 {
			m.popups = m.popups[1:]
			return m, nil
		}
		if m.confirm != nil {
			return m.updateConfirm(msg.String())
		}
		return m.handleKey(msg)
	case importFetchedMsg:
		return m.finishImport(msg), nil
	case tea.WindowSizeMsg:
		m.search.Width = msg.Width - 12
		if h := msg.Height - 14; h > 3 {
			m.table.SetHeight(h)
		}
		if m.form != nil {
			m.form.setWidth(msg.Width - 20)
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateFormMode(msg)
	case modeSearch:
		return m.updateSearchMode(msg)
	}
	return m.updateListMode(msg)
}

func (m Model) updateListMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch msg.String() {
	case k.Quit:
		return m, tea.Quit
	case k.Up:
		m.table.MoveUp(1)
	case k.Down:
		m.table.MoveDown(1)
	case k.Add:
		return m.startForm(nil)
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.popups = append(m.popups, warning("Please select a task to edit!"))
			return m, nil
		}
		current, err := m.svc.Get(t.ID)
		if err != nil {
			m.popups = append(m.popups, popupFor(err))
			return m.refresh(), nil
		}
		return m.startForm(&current)
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			m.popups = append(m.popups, warning("Please select a task to delete!"))
			return m, nil
		}
		m.confirm = &confirmState{
			kind:   confirmDelete,
			taskID: t.ID,
			prompt: fmt.Sprintf("Delete task %q? y/n", t.Title),
		}
	case k.DeleteAll:
		m.confirm = &confirmState{
			kind:   confirmDeleteAll,
			prompt: "Delete ALL tasks? This cannot be undone. y/n",
		}
	case k.Search:
		m.mode = modeSearch
		m.status = "Type to search, enter to keep, esc to clear"
		cmd := m.search.Focus()
		return m, cmd
	case k.FilterPrio:
		m.priorityFilter = nextFilter(priorityFilters(), m.priorityFilter)
		return m.refresh(), nil
	case k.FilterStatus:
		m.statusFilter = nextFilter(statusFilters(), m.statusFilter)
		return m.refresh(), nil
	case k.SortTitle:
		return m.sortBy(query.ColumnTitle), nil
	case k.SortDue:
		return m.sortBy(query.ColumnDueDate), nil
	case k.SortPriority:
		return m.sortBy(query.ColumnPriority), nil
	case k.SortStatus:
		return m.sortBy(query.ColumnStatus), nil
	case k.SortDesc:
		return m.sortBy(query.ColumnDescription), nil
	case k.SortDefault:
		m.sorter.Reset()
		m.status = "Default order"
		return m.refresh(), nil
	case k.Import:
		return m.startImport()
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) sortBy(column string) Model {
	order := m.sorter.Toggle(column)
	dir := "ascending"
	if order.Descending {
		dir = "descending"
	}
	m.status = fmt.Sprintf("Sorted by %s, %s", columnTitle(column), dir)
	return m.refresh()
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = modeList
		m.status = "Search kept"
		return m, nil
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeList
		m.status = "Search cleared"
		return m.refresh(), nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m.refresh(), cmd
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc", m.cfg.Keys.Cancel:
		m.confirm = nil
		m.status = "Delete cancelled"
		return m, nil
	case "y", "Y":
		c := m.confirm
		m.confirm = nil
		switch c.kind {
		case confirmDelete:
			if err := m.svc.Delete(c.taskID); err != nil {
				m.popups = append(m.popups, popupFor(err))
				return m.refresh(), nil
			}
			m.popups = append(m.popups, info("Task deleted successfully!"))
		case confirmDeleteAll:
			if err := m.svc.DeleteAll(); err != nil {
				m.popups = append(m.popups, popupFor(err))
				return m, nil
			}
			m.popups = append(m.popups, info("All tasks have been deleted!"))
		}
		return m.refresh(), nil
	default:
		return m, nil
	}
}

func (m Model) startImport() (tea.Model, tea.Cmd) {
	if m.source == nil {
		m.popups = append(m.popups, failure("No import source configured."))
		return m, nil
	}
	if m.importing {
		m.status = "Import already running"
		return m, nil
	}
	m.importing = true
	m.status = "Fetching tasks from the API..."
	return m, fetchCmd(m.source, m.importTimeout)
}

func fetchCmd(src importer.Source, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		records, err := src.Fetch(ctx)
		return importFetchedMsg{records: records, err: err}
	}
}

// finishImport applies fetched records on the UI goroutine so storage is
// only ever touched from Update.
func (m Model) finishImport(msg importFetchedMsg) Model {
	m.importing = false
	if msg.err != nil {
		m.status = "Import failed"
		m.popups = append(m.popups, failure(fmt.Sprintf("Could not load tasks from the API: %v", msg.err)))
		return m
	}
	n, err := m.svc.ImportRecords(msg.records)
	switch {
	case errors.Is(err, service.ErrNothingToImport):
		m.status = "Nothing imported"
		m.popups = append(m.popups, info("No tasks from the API matched the import rules."))
		return m
	case err != nil:
		m.status = "Import failed"
		m.popups = append(m.popups, popupFor(err))
		return m
	}
	m.status = fmt.Sprintf("Imported %d task(s)", n)
	m.popups = append(m.popups, info(fmt.Sprintf("Loaded and added %d task(s) from the API!", n)))
	return m.refresh()
}

func (m Model) query() query.Query {
	return query.Query{
		Search:   m.search.Value(),
		Priority: m.priorityFilter,
		Status:   m.statusFilter,
		Sort:     m.sorter.Active(),
	}
}

// refresh reloads the visible tasks, keeps the selection where possible
// and queues reminders for tasks that just became due soon.
func (m Model) refresh() Model {
	selectedID := ""
	if t, ok := m.selected(); ok {
		selectedID = t.ID
	}

	tasks, err := m.svc.List(m.query())
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		m.popups = append(m.popups, popupFor(err))
		return m
	}
	if err != nil {
		m.popups = append(m.popups, popupFor(err))
	}

	m.tasks = tasks
	m.table.SetColumns(columns(m.sorter.Active()))
	m.table.SetRows(rows(tasks))
	cursor := clampCursor(m.table.Cursor(), len(tasks))
	for i, t := range tasks {
		if selectedID != "" && t.ID == selectedID {
			cursor = i
			break
		}
	}
	m.table.SetCursor(cursor)

	for _, r := range m.tracker.CheckAll(tasks, m.svc.Now()) {
		m.popups = append(m.popups, reminderPopup(r))
	}
	return m
}

func (m Model) selected() (task.Task, bool) {
	if len(m.tasks) == 0 {
		return task.Task{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.tasks) {
		return task.Task{}, false
	}
	return m.tasks[i], true
}

func priorityFilters() []string {
	return []string{query.All, string(task.PriorityHigh), string(task.PriorityLow)}
}

func statusFilters() []string {
	return []string{query.All, string(task.StatusTodo), string(task.StatusInProgress), string(task.StatusDone)}
}

func pickFilter(v string, options []string) string {
	for _, o := range options {
		if o == v {
			return v
		}
	}
	return query.All
}

func nextFilter(options []string, cur string) string {
	for i, o := range options {
		if o == cur {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
