package app

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/dmorales/projectboard/internal/api"
	"github.com/dmorales/projectboard/internal/keys"
	"github.com/dmorales/projectboard/internal/notify"
	"github.com/dmorales/projectboard/internal/realtime"
	"github.com/dmorales/projectboard/internal/session"
	"github.com/dmorales/projectboard/internal/store"
	"github.com/dmorales/projectboard/internal/ui"
	"github.com/dmorales/projectboard/internal/ui/login"
	"github.com/dmorales/projectboard/internal/ui/notifpanel"
	"github.com/dmorales/projectboard/internal/ui/projectlist"
	"github.com/dmorales/projectboard/internal/ui/taskboard"
)

// requestTimeout bounds every API call issued by the UI.
const requestTimeout = 30 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewProjects
	ViewTasks
	ViewNotifications
)

// Deps bundles the constructed subsystems the app model runs on.
type Deps struct {
	Client  *api.Client
	Session *session.Controller
	Channel *realtime.Channel
	Center  *notify.Center
	Cache   store.Cache
	Log     *logrus.Entry
}

// Model is the root Bubble Tea model: it routes views, reacts to
// session and realtime events, and owns the API services.
type Model struct {
	deps Deps

	projects      *api.ProjectService
	tasks         *api.TaskService
	notifications *api.NotificationService

	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap
	ready       bool

	loginView   login.Model
	projectView projectlist.Model
	taskView    taskboard.Model
	notifView   notifpanel.Model

	sessionState session.State
	statusMsg    string
}

// New creates the root application model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	return Model{
		deps:          deps,
		projects:      api.NewProjectService(deps.Client),
		tasks:         api.NewTaskService(deps.Client),
		notifications: api.NewNotificationService(deps.Client),
		currentView:   ViewLogin,
		keys:          k,
		loginView:     login.New(80, 24),
		projectView:   projectlist.New(k, 80, 24),
		taskView:      taskboard.New(k, 80, 24),
		notifView:     notifpanel.New(k, 80, 24),
		sessionState:  session.State{Status: session.StatusBootstrapping},
	}
}

// Init bootstraps the session and subscribes to the session and
// realtime event streams.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loginView.Init(),
		m.bootstrap(),
		m.waitForSession(),
		m.waitForRealtime(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.projectView.SetSize(contentWidth, contentHeight)
		m.taskView.SetSize(contentWidth, contentHeight)
		m.notifView.SetSize(contentWidth, contentHeight)
		return m.updateActiveView(msg)

	case sessionStateMsg:
		return m.handleSessionState(msg)

	case realtimeEventMsg:
		return m.handleRealtimeEvent(msg)

	case login.LoginSubmittedMsg:
		return m, tea.Batch(m.doLogin(msg.Credentials), m.waitForSession())

	case login.RegisterSubmittedMsg:
		return m, tea.Batch(m.doRegister(msg.Data), m.waitForSession())

	case projectlist.ProjectsLoadedMsg:
		m.projectView.SetProjects(msg.Projects, msg.FromCache)
		return m, nil

	case taskboard.TasksLoadedMsg:
		m.taskView.SetTasks(msg.Tasks, msg.OverdueCount, msg.FromCache)
		return m, nil

	case notificationsLoadedMsg:
		m.deps.Center.Merge(msg.notifications)
		m.refreshNotifPanel()
		return m, nil

	case unreadCountMsg:
		m.deps.Center.SetUnread(msg.count)
		m.refreshNotifPanel()
		return m, nil

	case centerChangedMsg:
		m.refreshNotifPanel()
		return m, nil

	case notifpanel.MarkReadRequestedMsg:
		return m, m.markRead(msg.NotificationID)

	case notifpanel.MarkAllReadRequestedMsg:
		return m, m.markAllRead()

	case taskboard.StatusChangeRequestedMsg:
		return m, m.changeTaskStatus(msg.TaskID, msg.NewStatus)

	case projectlist.SelectedProjectMsg:
		// Opening a project narrows the task board to it.
		m.currentView = ViewTasks
		return m, m.loadProjectTasks(msg.ProjectID)

	case statusMsg:
		m.statusMsg = msg.text
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey routes global keybindings before the active view sees the
// key.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The login form owns all keys while no session exists.
	if m.currentView == ViewLogin {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Projects):
		m.currentView = ViewProjects
		return m, m.loadProjects()
	case key.Matches(msg, m.keys.Tasks):
		m.currentView = ViewTasks
		return m, m.loadMyTasks()
	case key.Matches(msg, m.keys.Notifications):
		m.currentView = ViewNotifications
		return m, tea.Batch(m.loadNotifications(), m.loadUnreadCount())
	case key.Matches(msg, m.keys.Refresh):
		return m.refreshCurrent()
	case key.Matches(msg, m.keys.Logout):
		return m, m.doLogout()
	}

	return m.updateActiveView(msg)
}

// refreshCurrent reloads the data behind the active view.
func (m Model) refreshCurrent() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewProjects:
		return m, m.loadProjects()
	case ViewTasks:
		return m, m.loadMyTasks()
	case ViewNotifications:
		return m, tea.Batch(m.loadNotifications(), m.loadUnreadCount())
	}
	return m, nil
}

// handleSessionState reacts to session transitions: entering a
// session swaps to the main views and triggers the initial loads,
// leaving it returns to the login screen.
func (m Model) handleSessionState(msg sessionStateMsg) (tea.Model, tea.Cmd) {
	previous := m.sessionState.Status
	m.sessionState = msg.state

	switch msg.state.Status {
	case session.StatusAuthenticated:
		cmds := []tea.Cmd{m.waitForSession()}
		if previous != session.StatusAuthenticated {
			m.currentView = ViewProjects
			m.statusMsg = ""
			// Populate history over REST once, independent of the
			// live feed.
			cmds = append(cmds,
				m.loadProjects(),
				m.loadMyTasks(),
				m.loadNotifications(),
				m.loadUnreadCount(),
			)
		} else {
			// Profile update: nothing to reload.
		}
		return m, tea.Batch(cmds...)

	case session.StatusAnonymous:
		if previous != session.StatusAnonymous || m.currentView != ViewLogin {
			m.loginView.Reset()
		}
		if msg.state.Err != "" {
			m.loginView.SetError(msg.state.Err)
		}
		m.currentView = ViewLogin
		return m, tea.Batch(m.waitForSession(), m.loginView.Init())
	}

	return m, m.waitForSession()
}

// handleRealtimeEvent folds pushed notifications into the center and
// tracks the connection indicator.
func (m Model) handleRealtimeEvent(msg realtimeEventMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForRealtime()}

	switch msg.event.Kind {
	case realtime.EventNotification:
		n := *msg.event.Notification
		if m.deps.Center.Add(n) {
			cmds = append(cmds, m.persistNotification(n))
		}
		m.refreshNotifPanel()

	case realtime.EventState:
		m.notifView.SetLive(msg.event.State == realtime.StateOpen)
	}

	return m, tea.Batch(cmds...)
}

// refreshNotifPanel pushes the current center snapshot into the panel.
func (m *Model) refreshNotifPanel() {
	m.notifView.SetNotifications(m.deps.Center.List(), m.deps.Center.Unread())
}

// updateActiveView forwards a message to the currently visible view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	case ViewTasks:
		m.taskView, cmd = m.taskView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	}
	return m, cmd
}

// View renders the active view inside the standard frame.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	var content string
	switch m.currentView {
	case ViewProjects:
		content = m.projectView.View()
	case ViewTasks:
		content = m.taskView.View()
	case ViewNotifications:
		content = m.notifView.View()
	}

	title := "projectboard"
	if m.sessionState.User != nil {
		title += " / " + m.sessionState.User.DisplayName()
	}

	status := "offline"
	if m.deps.Channel != nil && m.deps.Channel.IsLive() {
		status = "live"
	}
	if unread := m.deps.Center.Unread(); unread > 0 {
		status += " • " + strconv.Itoa(unread) + " unread"
	}
	if m.statusMsg != "" {
		status = m.statusMsg
	}

	header := m.layout.RenderHeader(title, status)
	statusBar := m.layout.RenderStatusBar(
		"1: projects • 2: my tasks • 3: notifications • r: refresh • ctrl+l: log out • q: quit")

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// withTimeout returns a request-scoped context.
func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
