package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmorales/projectboard/internal/api"
	"github.com/dmorales/projectboard/internal/model"
	"github.com/dmorales/projectboard/internal/store"
	"github.com/dmorales/projectboard/internal/ui/projectlist"
	"github.com/dmorales/projectboard/internal/ui/taskboard"
)

// bootstrap restores a previous session from stored tokens. The
// resulting state arrives through the session update stream.
func (m Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		m.deps.Session.Bootstrap(ctx)
		return nil
	}
}

// waitForSession blocks on the next session transition and re-arms
// itself from the update loop.
func (m Model) waitForSession() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-m.deps.Session.Updates()
		if !ok {
			return nil
		}
		return sessionStateMsg{state: state}
	}
}

// waitForRealtime blocks on the next realtime feed event.
func (m Model) waitForRealtime() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.deps.Channel.Events()
		if !ok {
			return nil
		}
		return realtimeEventMsg{event: ev}
	}
}

func (m Model) doLogin(creds model.Credentials) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		// Failures surface through the session update stream as an
		// anonymous state carrying the error message.
		_ = m.deps.Session.Login(ctx, creds)
		return nil
	}
}

func (m Model) doRegister(data model.RegisterData) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		_ = m.deps.Session.Register(ctx, data)
		return nil
	}
}

func (m Model) doLogout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		m.deps.Session.Logout(ctx)
		return nil
	}
}

// loadProjects fetches the project list, refreshing the cache on
// success and replaying the cache when the server is unreachable.
func (m Model) loadProjects() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		projects, err := m.projects.List(ctx)
		if err == nil {
			if cacheErr := m.deps.Cache.UpsertProjects(ctx, projects); cacheErr != nil {
				m.deps.Log.WithError(cacheErr).Warn("failed to cache projects")
			}
			return projectlist.ProjectsLoadedMsg{Projects: projects}
		}
		if api.IsAuthError(err) {
			return nil
		}
		m.deps.Log.WithError(err).Warn("project list request failed, falling back to cache")

		cached, cacheErr := m.deps.Cache.GetProjects(ctx)
		if cacheErr != nil {
			return statusMsg{text: api.ErrorMessage(err)}
		}
		return projectlist.ProjectsLoadedMsg{Projects: cached, FromCache: true}
	}
}

// loadMyTasks fetches the personal task board with overdue counts.
func (m Model) loadMyTasks() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		mine, err := m.tasks.Mine(ctx, "")
		if err == nil {
			if cacheErr := m.deps.Cache.UpsertTasks(ctx, mine.Tasks); cacheErr != nil {
				m.deps.Log.WithError(cacheErr).Warn("failed to cache tasks")
			}
			return taskboard.TasksLoadedMsg{Tasks: mine.Tasks, OverdueCount: mine.OverdueCount}
		}
		if api.IsAuthError(err) {
			return nil
		}
		m.deps.Log.WithError(err).Warn("my-tasks request failed, falling back to cache")

		cached, cacheErr := m.deps.Cache.GetTasks(ctx, store.TaskFilter{})
		if cacheErr != nil {
			return statusMsg{text: api.ErrorMessage(err)}
		}
		return taskboard.TasksLoadedMsg{Tasks: cached, OverdueCount: countOverdue(cached), FromCache: true}
	}
}

// loadProjectTasks narrows the board to a single project's tasks.
func (m Model) loadProjectTasks(projectID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		tasks, err := m.tasks.List(ctx, projectID)
		if err == nil {
			if cacheErr := m.deps.Cache.UpsertTasks(ctx, tasks); cacheErr != nil {
				m.deps.Log.WithError(cacheErr).Warn("failed to cache tasks")
			}
			return taskboard.TasksLoadedMsg{Tasks: tasks, OverdueCount: countOverdue(tasks)}
		}
		if api.IsAuthError(err) {
			return nil
		}
		m.deps.Log.WithError(err).Warn("project tasks request failed, falling back to cache")

		cached, cacheErr := m.deps.Cache.GetTasks(ctx, store.TaskFilter{ProjectID: &projectID})
		if cacheErr != nil {
			return statusMsg{text: api.ErrorMessage(err)}
		}
		return taskboard.TasksLoadedMsg{Tasks: cached, OverdueCount: countOverdue(cached), FromCache: true}
	}
}

// loadNotifications fetches the notification history over REST. The
// center merges it with anything already pushed over the feed.
func (m Model) loadNotifications() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		notifications, err := m.notifications.List(ctx)
		if err == nil {
			if cacheErr := m.deps.Cache.UpsertNotifications(ctx, notifications); cacheErr != nil {
				m.deps.Log.WithError(cacheErr).Warn("failed to cache notifications")
			}
			return notificationsLoadedMsg{notifications: notifications}
		}
		if api.IsAuthError(err) {
			return nil
		}
		m.deps.Log.WithError(err).Warn("notification list request failed, falling back to cache")

		cached, cacheErr := m.deps.Cache.GetNotifications(ctx, 100)
		if cacheErr != nil {
			return statusMsg{text: api.ErrorMessage(err)}
		}
		return notificationsLoadedMsg{notifications: cached}
	}
}

func (m Model) loadUnreadCount() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		count, err := m.notifications.UnreadCount(ctx)
		if err != nil {
			m.deps.Log.WithError(err).Debug("unread count request failed")
			return nil
		}
		return unreadCountMsg{count: count}
	}
}

// markRead marks one notification as read everywhere it lives: the
// server, the in-memory center, the local cache, and the feed (so
// other connected clients converge).
func (m Model) markRead(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		if err := m.notifications.MarkRead(ctx, id); err != nil {
			m.deps.Log.WithError(err).WithField("id", id).Warn("failed to mark notification read")
			return statusMsg{text: api.ErrorMessage(err)}
		}
		m.deps.Center.MarkRead(id)
		m.deps.Channel.MarkAsRead(id)
		if err := m.deps.Cache.MarkNotificationRead(ctx, id); err != nil {
			m.deps.Log.WithError(err).Warn("failed to update cached notification")
		}
		return centerChangedMsg{}
	}
}

func (m Model) markAllRead() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		if err := m.notifications.MarkAllRead(ctx); err != nil {
			m.deps.Log.WithError(err).Warn("failed to mark all notifications read")
			return statusMsg{text: api.ErrorMessage(err)}
		}
		m.deps.Center.MarkAllRead()
		if err := m.deps.Cache.MarkAllNotificationsRead(ctx); err != nil {
			m.deps.Log.WithError(err).Warn("failed to update cached notifications")
		}
		return centerChangedMsg{}
	}
}

// changeTaskStatus advances a task through its lifecycle and reloads
// the board with the server's answer.
func (m Model) changeTaskStatus(id int64, status string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		if _, err := m.tasks.UpdateStatus(ctx, id, status); err != nil {
			m.deps.Log.WithError(err).WithField("id", id).Warn("failed to update task status")
			return statusMsg{text: api.ErrorMessage(err)}
		}
		return m.loadMyTasks()()
	}
}

// persistNotification writes a pushed notification into the cache so
// it survives restarts even if the REST history is never refetched.
func (m Model) persistNotification(n model.Notification) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		if err := m.deps.Cache.UpsertNotifications(ctx, []model.Notification{n}); err != nil {
			m.deps.Log.WithError(err).Warn("failed to cache pushed notification")
		}
		return nil
	}
}

func countOverdue(tasks []model.Task) int {
	var n int
	for _, t := range tasks {
		if t.Overdue {
			n++
		}
	}
	return n
}
