package projectlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmorales/projectboard/internal/keys"
	"github.com/dmorales/projectboard/internal/model"
	"github.com/dmorales/projectboard/internal/theme"
)

// ProjectsLoadedMsg is sent when projects have been fetched, either
// from the API or from the local cache.
type ProjectsLoadedMsg struct {
	Projects  []model.Project
	FromCache bool
}

// SelectedProjectMsg is sent when the user opens a project.
type SelectedProjectMsg struct {
	ProjectID int64
}

// item adapts a project to the bubbles list interface.
type item struct {
	project model.Project
}

// Title implements list.DefaultItem.
func (i item) Title() string {
	status := theme.StatusStyle(i.project.Status).Render(i.project.StatusDisplay)
	return fmt.Sprintf("%s %s", i.project.Name, status)
}

// Description implements list.DefaultItem.
func (i item) Description() string {
	return fmt.Sprintf(
		"%s • %d%% • %d tasks • %d members",
		theme.PriorityStyle(i.project.Priority).Render(i.project.PriorityDisplay),
		i.project.ProgressPercentage,
		i.project.TasksCount,
		i.project.MembersCount,
	)
}

// FilterValue implements list.Item.
func (i item) FilterValue() string {
	return i.project.Name
}

// Model is the project list view component.
type Model struct {
	list      list.Model
	keys      *keys.KeyMap
	fromCache bool
	width     int
	height    int
}

// New creates a project list model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = theme.SelectedItemStyle
	delegate.Styles.SelectedDesc = theme.SelectedItemStyle.Faint(true)

	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Projects"
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

// SetProjects replaces the listed projects.
func (m *Model) SetProjects(projects []model.Project, fromCache bool) {
	items := make([]list.Item, 0, len(projects))
	for _, p := range projects {
		items = append(items, item{project: p})
	}
	m.list.SetItems(items)
	m.fromCache = fromCache
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles navigation and selection.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Select) {
			if sel, ok := m.list.SelectedItem().(item); ok {
				id := sel.project.ID
				return m, func() tea.Msg {
					return SelectedProjectMsg{ProjectID: id}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list, flagging cached (possibly stale) data.
func (m Model) View() string {
	view := m.list.View()
	if m.fromCache {
		view += "\n" + theme.HelpStyle.Render("showing cached data (server unreachable)")
	}
	return view
}
