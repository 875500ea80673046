package notifpanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmorales/projectboard/internal/keys"
	"github.com/dmorales/projectboard/internal/model"
	"github.com/dmorales/projectboard/internal/theme"
)

// MarkReadRequestedMsg is sent when the user marks the selected
// notification as read.
type MarkReadRequestedMsg struct {
	NotificationID int64
}

// MarkAllReadRequestedMsg is sent when the user marks everything read.
type MarkAllReadRequestedMsg struct{}

// Model is the notification panel component. It renders the
// deduplicated list owned by the notification center; the app model
// pushes fresh snapshots in after every change.
type Model struct {
	notifications []model.Notification
	unread        int
	live          bool
	keys          *keys.KeyMap
	cursor        int
	width         int
	height        int
}

// New creates a notification panel model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetNotifications replaces the rendered snapshot.
func (m *Model) SetNotifications(notifications []model.Notification, unread int) {
	m.notifications = notifications
	m.unread = unread
	if m.cursor >= len(notifications) {
		m.cursor = len(notifications) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// SetLive updates the connection indicator.
func (m *Model) SetLive(live bool) {
	m.live = live
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles navigation and read-state actions.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.notifications)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Select):
		if m.cursor < len(m.notifications) {
			n := m.notifications[m.cursor]
			if !n.Read {
				return m, func() tea.Msg {
					return MarkReadRequestedMsg{NotificationID: n.ID}
				}
			}
		}
	case key.Matches(keyMsg, m.keys.MarkAllRead):
		if m.unread > 0 {
			return m, func() tea.Msg {
				return MarkAllReadRequestedMsg{}
			}
		}
	}

	return m, nil
}

// View renders the panel: connection indicator, unread badge, and the
// notification list newest first.
func (m Model) View() string {
	var b strings.Builder

	indicator := theme.OfflineStyle.Render("○ offline")
	if m.live {
		indicator = theme.LiveStyle.Render("● live")
	}
	badge := ""
	if m.unread > 0 {
		badge = theme.UnreadStyle.Render(fmt.Sprintf(" (%d unread)", m.unread))
	}
	b.WriteString(theme.HeaderStyle.Render("Notifications") + " " + indicator + badge)
	b.WriteString("\n\n")

	if len(m.notifications) == 0 {
		b.WriteString(theme.HelpStyle.Render("no notifications"))
		return b.String()
	}

	visible := m.height - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}

	for i := start; i < len(m.notifications) && i < start+visible; i++ {
		n := m.notifications[i]

		bullet := "  "
		if !n.Read {
			bullet = theme.UnreadStyle.Render("• ")
		}

		line := fmt.Sprintf("%s%s: %s", bullet, n.Title, n.Message)
		if n.Project != nil {
			line += theme.HelpStyle.Render(" [" + n.Project.Name + "]")
		}

		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter: mark read • m: mark all read"))
	return b.String()
}
