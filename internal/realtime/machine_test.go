package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestMachineStart(t *testing.T) {
	var m machine

	eff := m.step(evStart)
	assert.Equal(t, actDial, eff.action)
	assert.Equal(t, StateConnecting, m.state)

	// Starting again while connecting is a no-op.
	eff = m.step(evStart)
	assert.Equal(t, actNone, eff.action)
	assert.Equal(t, StateConnecting, m.state)
}

func TestMachineDialSuccessResetsAttempts(t *testing.T) {
	var m machine

	m.step(evStart)
	for i := 0; i < 3; i++ {
		eff := m.step(evDialFailure)
		require.Equal(t, actScheduleRetry, eff.action)
		m.step(evRetryDue)
	}

	eff := m.step(evDialSuccess)
	assert.Equal(t, actNone, eff.action)
	assert.Equal(t, StateOpen, m.state)

	// The next drop starts the backoff ladder over.
	eff = m.step(evCloseAbnormal)
	require.Equal(t, actScheduleRetry, eff.action)
	assert.Equal(t, 1*time.Second, eff.retryIn)
}

func TestMachineReconnectBackoffLadder(t *testing.T) {
	var m machine
	m.step(evStart)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}

	for i, delay := range want {
		eff := m.step(evDialFailure)
		require.Equal(t, actScheduleRetry, eff.action, "failure %d", i+1)
		assert.Equal(t, delay, eff.retryIn, "failure %d", i+1)

		eff = m.step(evRetryDue)
		require.Equal(t, actDial, eff.action, "retry %d", i+1)
	}

	// The sixth consecutive failure exhausts the policy: no retry is
	// scheduled and the machine stays down.
	eff := m.step(evDialFailure)
	assert.Equal(t, actNone, eff.action)
	assert.Equal(t, StateDisconnected, m.state)
}

func TestMachineNormalCloseDoesNotRetry(t *testing.T) {
	var m machine
	m.step(evStart)
	m.step(evDialSuccess)

	eff := m.step(evCloseNormal)
	assert.Equal(t, actNone, eff.action)
	assert.Equal(t, StateDisconnected, m.state)
}

func TestMachineStop(t *testing.T) {
	t.Run("while open closes the connection", func(t *testing.T) {
		var m machine
		m.step(evStart)
		m.step(evDialSuccess)

		eff := m.step(evStop)
		assert.Equal(t, actCloseConn, eff.action)
		assert.Equal(t, StateClosing, m.state)

		eff = m.step(evCloseNormal)
		assert.Equal(t, actNone, eff.action)
		assert.Equal(t, StateDisconnected, m.state)
	})

	t.Run("while connecting discards the dial", func(t *testing.T) {
		var m machine
		m.step(evStart)

		eff := m.step(evStop)
		assert.Equal(t, actNone, eff.action)
		assert.Equal(t, StateDisconnected, m.state)

		// The in-flight dial lands after the stop.
		eff = m.step(evDialSuccess)
		assert.Equal(t, actCloseConn, eff.action)
	})

	t.Run("drop during closing does not schedule a retry", func(t *testing.T) {
		var m machine
		m.step(evStart)
		m.step(evDialSuccess)
		m.step(evStop)

		eff := m.step(evCloseAbnormal)
		assert.Equal(t, actNone, eff.action)
		assert.Equal(t, StateDisconnected, m.state)
	})
}
