package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales/projectboard/internal/model"
)

func notification(id int64, title string, read bool, createdAt time.Time) model.Notification {
	return model.Notification{
		ID:        id,
		Type:      model.NotifyTaskAssigned,
		Title:     title,
		Read:      read,
		CreatedAt: createdAt,
	}
}

func TestCenterAddDeduplicates(t *testing.T) {
	c := NewCenter()
	now := time.Now()

	assert.True(t, c.Add(notification(1, "first", false, now)))
	assert.True(t, c.Add(notification(2, "second", false, now)))

	// A replayed push with the same ID is ignored, even with different
	// content.
	assert.False(t, c.Add(notification(1, "first again", false, now)))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Unread())

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID, "pushes are newest first")
	assert.Equal(t, int64(1), list[1].ID)
}

func TestCenterAddReadNotification(t *testing.T) {
	c := NewCenter()

	c.Add(notification(1, "already read", true, time.Now()))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Unread())
}

func TestCenterMerge(t *testing.T) {
	c := NewCenter()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// A push arrives first, then the REST history lands with an
	// overlapping entry.
	c.Add(notification(3, "pushed", false, base.Add(2*time.Hour)))

	c.Merge([]model.Notification{
		notification(1, "oldest", true, base),
		notification(2, "middle", false, base.Add(time.Hour)),
		notification(3, "pushed (server copy)", false, base.Add(2*time.Hour)),
	})

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.Unread())

	list := c.List()
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)
	assert.Equal(t, int64(1), list[2].ID)
	assert.Equal(t, "pushed (server copy)", list[0].Title, "server copy wins on merge")
}

func TestCenterMergeNeverRevertsRead(t *testing.T) {
	c := NewCenter()
	now := time.Now()

	c.Add(notification(1, "n", false, now))
	c.MarkRead(1)

	// A stale fetch still reports the notification as unread.
	c.Merge([]model.Notification{notification(1, "n", false, now)})

	list := c.List()
	require.Len(t, list, 1)
	assert.True(t, list[0].Read, "read state must not revert to unread")
	assert.Equal(t, 0, c.Unread())
}

func TestCenterMarkRead(t *testing.T) {
	c := NewCenter()
	now := time.Now()
	c.Add(notification(1, "a", false, now))
	c.Add(notification(2, "b", false, now))

	c.MarkRead(1)
	assert.Equal(t, 1, c.Unread())

	// Idempotent: marking again does not decrement further.
	c.MarkRead(1)
	assert.Equal(t, 1, c.Unread())

	// Unknown IDs are ignored.
	c.MarkRead(99)
	assert.Equal(t, 1, c.Unread())
}

func TestCenterMarkAllRead(t *testing.T) {
	c := NewCenter()
	now := time.Now()
	c.Add(notification(1, "a", false, now))
	c.Add(notification(2, "b", false, now))
	c.Add(notification(3, "c", true, now))

	c.MarkAllRead()

	assert.Equal(t, 0, c.Unread())
	for _, n := range c.List() {
		assert.True(t, n.Read)
	}
}

func TestCenterSetUnread(t *testing.T) {
	c := NewCenter()

	// The server-side counter can exceed what the client holds when
	// history was truncated.
	c.SetUnread(12)
	assert.Equal(t, 12, c.Unread())
}
