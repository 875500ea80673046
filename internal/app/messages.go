package app

import (
	"github.com/dmorales/projectboard/internal/model"
	"github.com/dmorales/projectboard/internal/realtime"
	"github.com/dmorales/projectboard/internal/session"
)

// sessionStateMsg carries a session transition into the update loop.
type sessionStateMsg struct {
	state session.State
}

// realtimeEventMsg carries a realtime feed event into the update loop.
type realtimeEventMsg struct {
	event realtime.Event
}

// notificationsLoadedMsg delivers the REST notification history.
type notificationsLoadedMsg struct {
	notifications []model.Notification
}

// unreadCountMsg delivers the server-side unread counter.
type unreadCountMsg struct {
	count int
}

// centerChangedMsg signals that the notification center was mutated
// outside the update loop and views should re-render from it.
type centerChangedMsg struct{}

// statusMsg replaces the header status line, usually with an error.
type statusMsg struct {
	text string
}
