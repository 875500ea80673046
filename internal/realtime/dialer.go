package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a WebSocket connection the channel uses.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens WebSocket connections. Tests substitute a fake; the
// production implementation wraps the gorilla dialer.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// Clock schedules deferred work. Tests substitute a manual clock so
// backoff is observed without real waiting.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancelable scheduled call.
type Timer interface {
	Stop() bool
}

// wsDialer is the production Dialer backed by gorilla/websocket.
type wsDialer struct {
	dialer *websocket.Dialer
}

// NewDialer returns the production WebSocket dialer.
func NewDialer() Dialer {
	return &wsDialer{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// DialContext implements Dialer.
func (d *wsDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// realClock is the production Clock backed by the time package.
type realClock struct{}

// NewClock returns the production clock.
func NewClock() Clock {
	return realClock{}
}

// AfterFunc implements Clock.
func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
