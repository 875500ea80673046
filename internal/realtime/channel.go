package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/dmorales/projectboard/internal/model"
)

// EventKind discriminates the events the channel delivers.
type EventKind int

const (
	// EventNotification carries a pushed notification.
	EventNotification EventKind = iota

	// EventState reports a connection state change.
	EventState
)

// Event is delivered to the channel's consumer for every pushed
// notification and every connection state change.
type Event struct {
	Kind         EventKind
	Notification *model.Notification
	State        ConnState
}

// frame is the wire format of a pushed message.
type frame struct {
	Type         string              `json:"type"`
	Notification *model.Notification `json:"notification"`
}

// dialTimeout bounds a single connection attempt.
const dialTimeout = 15 * time.Second

// Channel maintains the live notification feed: a single WebSocket
// connection authenticated by the access token, reconnecting with
// exponential backoff after abnormal closes. At most one connection
// is ever active.
type Channel struct {
	wsURL  string
	dialer Dialer
	clock  Clock
	log    *logrus.Entry

	mu    sync.Mutex
	m     machine
	conn  Conn
	timer Timer
	token string

	// gen identifies the current connection attempt. Dials, read
	// loops, and retry timers from a superseded generation are
	// ignored, so a stale callback can never resurrect a stopped
	// channel.
	gen uint64

	events chan Event
}

// New creates a Channel for the notification endpoint at wsURL.
func New(wsURL string, dialer Dialer, clock Clock, log *logrus.Entry) *Channel {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Channel{
		wsURL:  wsURL,
		dialer: dialer,
		clock:  clock,
		log:    log.WithField("component", "realtime"),
		events: make(chan Event, 64),
	}
}

// Events returns the stream of notifications and state changes.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.state
}

// IsLive reports whether the feed is currently connected.
func (c *Channel) IsLive() bool {
	return c.State() == StateOpen
}

// Start opens the connection using the given access token. Calling
// Start while a connection is already underway or established is a
// no-op.
func (c *Channel) Start(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	eff := c.m.step(evStart)
	if eff.action != actDial {
		return
	}

	c.token = token
	c.gen++
	c.emitState()
	go c.dial(c.gen)
}

// Stop cancels any pending reconnect, closes the connection with a
// normal close code, and leaves the channel disconnected. It does
// not reconnect until Start is called again.
func (c *Channel) Stop() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++

	eff := c.m.step(evStop)
	conn := c.conn
	c.conn = nil
	c.emitState()
	c.mu.Unlock()

	if eff.action != actCloseConn || conn == nil {
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		c.log.WithError(err).Debug("writing close frame")
	}
	conn.Close()

	c.mu.Lock()
	c.m.step(evCloseNormal)
	c.emitState()
	c.mu.Unlock()
}

// Send writes a JSON message over the connection. When the channel
// is not open the message is dropped with a warning; Send never
// fails loudly.
func (c *Channel) Send(v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.m.state != StateOpen || c.conn == nil {
		c.log.WithField("state", c.m.state.String()).Warn("send on closed channel dropped")
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Warn("marshaling outbound message")
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.WithError(err).Warn("writing message")
	}
}

// MarkAsRead asks the server to mark a notification as read over the
// live connection.
func (c *Channel) MarkAsRead(id int64) {
	c.Send(map[string]interface{}{
		"type":            "mark_as_read",
		"notification_id": id,
	})
}

// dial performs one connection attempt for generation gen.
func (c *Channel) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	c.mu.Lock()
	url := c.wsURL + "?token=" + c.token
	c.mu.Unlock()

	conn, err := c.dialer.DialContext(ctx, url)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		c.log.WithError(err).Warn("notification feed dial failed")
		c.handleDropLocked(evDialFailure)
		c.mu.Unlock()
		return
	}

	eff := c.m.step(evDialSuccess)
	if eff.action == actCloseConn {
		c.mu.Unlock()
		conn.Close()
		return
	}

	c.conn = conn
	c.emitState()
	c.mu.Unlock()

	c.log.Info("notification feed connected")
	go c.readLoop(gen, conn)
}

// readLoop consumes frames until the connection drops.
func (c *Channel) readLoop(gen uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if gen != c.gen {
				c.mu.Unlock()
				return
			}
			c.conn = nil

			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || c.m.state == StateClosing {
				c.m.step(evCloseNormal)
				c.emitState()
			} else {
				c.log.WithError(err).Warn("notification feed closed")
				c.handleDropLocked(evCloseAbnormal)
			}
			c.mu.Unlock()
			return
		}

		c.handleFrame(data)
	}
}

// handleFrame parses one inbound frame and delivers it. Malformed
// frames and unknown types are logged and dropped; they never close
// the connection.
func (c *Channel) handleFrame(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.log.WithError(err).Warn("dropping malformed frame")
		return
	}

	if f.Type != "notification" || f.Notification == nil {
		c.log.WithField("type", f.Type).Debug("ignoring unknown frame type")
		return
	}

	c.emit(Event{Kind: EventNotification, Notification: f.Notification})
}

// handleDropLocked runs the machine for a lost connection and arms
// the reconnect timer when the policy allows another attempt. The
// caller holds c.mu.
func (c *Channel) handleDropLocked(ev event) {
	eff := c.m.step(ev)
	c.emitState()

	if eff.action != actScheduleRetry {
		if ev == evCloseAbnormal || ev == evDialFailure {
			c.log.Warn("reconnect attempts exhausted; feed offline")
		}
		return
	}

	gen := c.gen
	c.log.WithField("delay", eff.retryIn.String()).Info("scheduling reconnect")
	c.timer = c.clock.AfterFunc(eff.retryIn, func() {
		c.retry(gen)
	})
}

// retry is the reconnect timer callback for generation gen.
func (c *Channel) retry(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.timer = nil

	eff := c.m.step(evRetryDue)
	if eff.action != actDial {
		return
	}

	c.gen++
	c.emitState()
	go c.dial(c.gen)
}

// emitState publishes the current state. The caller holds c.mu.
func (c *Channel) emitState() {
	c.emit(Event{Kind: EventState, State: c.m.state})
}

// emit delivers an event without blocking; a full consumer drops the
// oldest information rather than stalling the read loop.
func (c *Channel) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event buffer full; dropping event")
	}
}
