package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// readResult is one scripted outcome for fakeConn.ReadMessage.
type readResult struct {
	data []byte
	err  error
}

// fakeConn feeds scripted frames to the read loop and records writes.
type fakeConn struct {
	inbound chan readResult

	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan readResult, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	r, ok := <-c.inbound
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	if r.err != nil {
		return 0, nil, r.err
	}
	return websocket.TextMessage, r.data, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbound)
	}
	return nil
}

func (c *fakeConn) lastWrite(t *testing.T) []byte {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.writes, "expected at least one write")
	return c.writes[len(c.writes)-1]
}

// dialOutcome is one scripted result for fakeDialer.DialContext.
type dialOutcome struct {
	conn *fakeConn
	err  error
}

// fakeDialer serves scripted dial outcomes and reports each call.
type fakeDialer struct {
	mu     sync.Mutex
	script []dialOutcome
	calls  chan string
	dialed int
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{calls: make(chan string, 16)}
}

func (d *fakeDialer) expect(outcomes ...dialOutcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, outcomes...)
}

func (d *fakeDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	var out dialOutcome
	if d.dialed < len(d.script) {
		out = d.script[d.dialed]
	} else {
		out = dialOutcome{err: errors.New("unscripted dial")}
	}
	d.dialed++
	d.mu.Unlock()

	d.calls <- url
	if out.err != nil {
		return nil, out.err
	}
	return out.conn, nil
}

func (d *fakeDialer) waitForDial(t *testing.T) string {
	t.Helper()
	select {
	case url := <-d.calls:
		return url
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for dial")
		return ""
	}
}

func (d *fakeDialer) assertNoDial(t *testing.T) {
	t.Helper()
	select {
	case url := <-d.calls:
		t.Fatalf("unexpected dial to %s", url)
	case <-time.After(50 * time.Millisecond):
	}
}

// scheduledCall is one AfterFunc registration on the fake clock.
type scheduledCall struct {
	delay time.Duration
	fn    func()
	timer *fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	stopped bool
}

func (ft *fakeTimer) Stop() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	was := ft.stopped
	ft.stopped = true
	return !was
}

func (ft *fakeTimer) wasStopped() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.stopped
}

// fakeClock hands scheduled callbacks to the test instead of waiting.
type fakeClock struct {
	sched chan scheduledCall
}

func newFakeClock() *fakeClock {
	return &fakeClock{sched: make(chan scheduledCall, 16)}
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	ft := &fakeTimer{}
	c.sched <- scheduledCall{delay: d, fn: fn, timer: ft}
	return ft
}

func (c *fakeClock) waitForSchedule(t *testing.T) scheduledCall {
	t.Helper()
	select {
	case s := <-c.sched:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for scheduled retry")
		return scheduledCall{}
	}
}

func (c *fakeClock) assertNoSchedule(t *testing.T) {
	t.Helper()
	select {
	case s := <-c.sched:
		t.Fatalf("unexpected retry scheduled after %s", s.delay)
	case <-time.After(50 * time.Millisecond):
	}
}

// waitForNotification drains events until a notification arrives.
func waitForNotification(t *testing.T, ch *Channel) Event {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-ch.Events():
			if ev.Kind == EventNotification {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for notification event")
		}
	}
}

// waitForState drains events until the connection reaches want.
func waitForState(t *testing.T, ch *Channel, want ConnState) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-ch.Events():
			if ev.Kind == EventState && ev.State == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func notificationFrame(id int64, title string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"notification": map[string]interface{}{
			"id":      id,
			"type":    "task_assigned",
			"title":   title,
			"message": "",
			"is_read": false,
		},
	})
	return data
}

func TestChannelDeliversNotifications(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()
	conn := newFakeConn()
	dialer.expect(dialOutcome{conn: conn})

	ch := New("ws://example.test/ws/notifications/", dialer, clock, nil)
	ch.Start("secret-token")

	url := dialer.waitForDial(t)
	assert.Equal(t, "ws://example.test/ws/notifications/?token=secret-token", url)
	waitForState(t, ch, StateOpen)

	conn.inbound <- readResult{data: notificationFrame(42, "Task assigned")}

	ev := waitForNotification(t, ch)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, int64(42), ev.Notification.ID)
	assert.Equal(t, "Task assigned", ev.Notification.Title)
}

func TestChannelDropsMalformedFrames(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()
	conn := newFakeConn()
	dialer.expect(dialOutcome{conn: conn})

	ch := New("ws://example.test/ws", dialer, clock, nil)
	ch.Start("tok")
	dialer.waitForDial(t)
	waitForState(t, ch, StateOpen)

	conn.inbound <- readResult{data: []byte("{not json")}
	conn.inbound <- readResult{data: []byte(`{"type":"ping"}`)}
	conn.inbound <- readResult{data: notificationFrame(7, "after garbage")}

	ev := waitForNotification(t, ch)
	assert.Equal(t, int64(7), ev.Notification.ID)
}

func TestChannelNormalCloseDoesNotReconnect(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()
	conn := newFakeConn()
	dialer.expect(dialOutcome{conn: conn})

	ch := New("ws://example.test/ws", dialer, clock, nil)
	ch.Start("tok")
	dialer.waitForDial(t)
	waitForState(t, ch, StateOpen)

	conn.inbound <- readResult{err: &websocket.CloseError{Code: websocket.CloseNormalClosure}}

	waitForState(t, ch, StateDisconnected)
	clock.assertNoSchedule(t)
	dialer.assertNoDial(t)
}

func TestChannelReconnectsWithBackoff(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()
	first := newFakeConn()
	dialer.expect(
		dialOutcome{conn: first},
		dialOutcome{err: errors.New("refused")},
		dialOutcome{err: errors.New("refused")},
	)

	ch := New("ws://example.test/ws", dialer, clock, nil)
	ch.Start("tok")
	dialer.waitForDial(t)
	waitForState(t, ch, StateOpen)

	// Abnormal close: first retry after 1s.
	first.inbound <- readResult{err: &websocket.CloseError{Code: websocket.CloseAbnormalClosure}}

	s := clock.waitForSchedule(t)
	assert.Equal(t, 1*time.Second, s.delay)
	s.fn()
	dialer.waitForDial(t)

	// That dial fails: next retry after 2s, then 4s.
	s = clock.waitForSchedule(t)
	assert.Equal(t, 2*time.Second, s.delay)
	s.fn()
	dialer.waitForDial(t)

	s = clock.waitForSchedule(t)
	assert.Equal(t, 4*time.Second, s.delay)
}

func TestChannelStopCancelsPendingRetry(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()
	dialer.expect(dialOutcome{err: errors.New("refused")})

	ch := New("ws://example.test/ws", dialer, clock, nil)
	ch.Start("tok")
	dialer.waitForDial(t)

	s := clock.waitForSchedule(t)
	require.Equal(t, 1*time.Second, s.delay)

	ch.Stop()
	assert.True(t, s.timer.wasStopped())

	// Even if the timer had already fired, the stale generation is
	// discarded.
	s.fn()
	dialer.assertNoDial(t)
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestChannelStartWhileConnectedIsNoop(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()
	conn := newFakeConn()
	dialer.expect(dialOutcome{conn: conn})

	ch := New("ws://example.test/ws", dialer, clock, nil)
	ch.Start("tok")
	dialer.waitForDial(t)
	waitForState(t, ch, StateOpen)

	ch.Start("tok")
	dialer.assertNoDial(t)
}

func TestChannelMarkAsRead(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()
	conn := newFakeConn()
	dialer.expect(dialOutcome{conn: conn})

	ch := New("ws://example.test/ws", dialer, clock, nil)
	ch.Start("tok")
	dialer.waitForDial(t)
	waitForState(t, ch, StateOpen)

	ch.MarkAsRead(15)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(conn.lastWrite(t), &sent))
	assert.Equal(t, "mark_as_read", sent["type"])
	assert.Equal(t, float64(15), sent["notification_id"])
}

func TestChannelSendWhileDisconnectedIsDropped(t *testing.T) {
	dialer := newFakeDialer()
	clock := newFakeClock()

	ch := New("ws://example.test/ws", dialer, clock, nil)

	// Must not panic or dial.
	ch.Send(map[string]string{"type": "noop"})
	dialer.assertNoDial(t)
}
