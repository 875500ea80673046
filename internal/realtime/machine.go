package realtime

import "time"

// ConnState is the lifecycle state of the notification connection.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateOpen
	StateClosing
)

// String returns the lowercase name of the state.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// maxReconnectAttempts bounds automatic reconnection. Once exhausted
// the channel stays disconnected until Start is called again.
const maxReconnectAttempts = 5

// maxBackoff caps the delay between reconnection attempts.
const maxBackoff = 30 * time.Second

// event is an input to the connection state machine.
type event int

const (
	evStart event = iota
	evDialSuccess
	evDialFailure
	evCloseNormal
	evCloseAbnormal
	evRetryDue
	evStop
)

// action is the side effect the channel must carry out after a
// transition.
type action int

const (
	actNone action = iota

	// actDial opens a new connection.
	actDial

	// actScheduleRetry arms the reconnect timer for effect.retryIn.
	actScheduleRetry

	// actCloseConn sends a normal close and tears the connection down.
	actCloseConn
)

// effect is the outcome of a transition: what the channel should do
// next.
type effect struct {
	action  action
	retryIn time.Duration
}

// machine is the pure connection state machine: current state plus
// the reconnect attempt counter. It performs no I/O and keeps no
// timers, which makes the reconnect policy testable on its own.
type machine struct {
	state   ConnState
	attempt int
}

// step advances the machine by one event and returns the effect the
// caller must execute.
func (m *machine) step(ev event) effect {
	switch ev {
	case evStart:
		// Only one connection at a time: starting while a connection
		// is underway or established is a no-op.
		if m.state == StateConnecting || m.state == StateOpen || m.state == StateClosing {
			return effect{}
		}
		m.state = StateConnecting
		return effect{action: actDial}

	case evDialSuccess:
		if m.state != StateConnecting {
			// Stopped while the dial was in flight; discard it.
			return effect{action: actCloseConn}
		}
		m.state = StateOpen
		m.attempt = 0
		return effect{}

	case evDialFailure, evCloseAbnormal:
		if m.state == StateClosing {
			m.state = StateDisconnected
			return effect{}
		}
		m.state = StateDisconnected
		if m.attempt >= maxReconnectAttempts {
			return effect{}
		}
		delay := backoff(m.attempt)
		m.attempt++
		return effect{action: actScheduleRetry, retryIn: delay}

	case evCloseNormal:
		m.state = StateDisconnected
		return effect{}

	case evRetryDue:
		if m.state != StateDisconnected {
			return effect{}
		}
		m.state = StateConnecting
		return effect{action: actDial}

	case evStop:
		switch m.state {
		case StateOpen:
			m.state = StateClosing
			return effect{action: actCloseConn}
		default:
			m.state = StateDisconnected
			return effect{}
		}
	}
	return effect{}
}

// backoff returns the reconnect delay for the given attempt number:
// 1s, 2s, 4s, ... capped at maxBackoff.
func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
