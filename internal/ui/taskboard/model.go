package taskboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmorales/projectboard/internal/keys"
	"github.com/dmorales/projectboard/internal/model"
	"github.com/dmorales/projectboard/internal/theme"
)

// TasksLoadedMsg is sent when the user's tasks have been fetched,
// either from the API or from the local cache.
type TasksLoadedMsg struct {
	Tasks        []model.Task
	OverdueCount int
	FromCache    bool
}

// StatusChangeRequestedMsg is sent when the user advances a task to
// its next status.
type StatusChangeRequestedMsg struct {
	TaskID    int64
	NewStatus string
}

// item adapts a task to the bubbles list interface.
type item struct {
	task model.Task
}

// Title implements list.DefaultItem.
func (i item) Title() string {
	title := i.task.Title
	if i.task.Overdue {
		title += " " + theme.ErrorStyle.Render("[overdue]")
	}
	return title
}

// Description implements list.DefaultItem.
func (i item) Description() string {
	desc := fmt.Sprintf(
		"%s %s • %s",
		theme.StatusStyle(i.task.Status).Render(i.task.StatusDisplay),
		theme.PriorityStyle(i.task.Priority).Render(i.task.PriorityDisplay),
		i.task.ProjectName,
	)
	if i.task.DueDate != "" {
		desc += " • due " + i.task.DueDate
	}
	return desc
}

// FilterValue implements list.Item.
func (i item) FilterValue() string {
	return i.task.Title
}

// nextStatus returns the next stop in the pending → in progress →
// completed cycle, or empty when the task is terminal.
func nextStatus(status string) string {
	switch status {
	case model.StatusPending:
		return model.StatusInProgress
	case model.StatusInProgress:
		return model.StatusCompleted
	default:
		return ""
	}
}

// Model is the "my tasks" board component.
type Model struct {
	list         list.Model
	keys         *keys.KeyMap
	overdueCount int
	fromCache    bool
	width        int
	height       int
}

// New creates a task board model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = theme.SelectedItemStyle
	delegate.Styles.SelectedDesc = theme.SelectedItemStyle.Faint(true)

	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "My Tasks"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// SetTasks replaces the listed tasks.
func (m *Model) SetTasks(tasks []model.Task, overdueCount int, fromCache bool) {
	items := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, item{task: t})
	}
	m.list.SetItems(items)
	m.overdueCount = overdueCount
	m.fromCache = fromCache
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles navigation and status transitions.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Select) {
			if sel, ok := m.list.SelectedItem().(item); ok {
				next := nextStatus(sel.task.Status)
				if next == "" {
					return m, nil
				}
				id := sel.task.ID
				return m, func() tea.Msg {
					return StatusChangeRequestedMsg{TaskID: id, NewStatus: next}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the board with the overdue summary.
func (m Model) View() string {
	view := m.list.View()
	if m.overdueCount > 0 {
		view += "\n" + theme.ErrorStyle.Render(
			fmt.Sprintf("%d overdue", m.overdueCount))
	}
	if m.fromCache {
		view += "\n" + theme.HelpStyle.Render("showing cached data (server unreachable)")
	}
	return view
}
