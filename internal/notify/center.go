package notify

import (
	"sort"
	"sync"

	"github.com/dmorales/projectboard/internal/model"
)

// Center holds the in-memory notification list, newest first, and
// the unread count. Arrival is an idempotent merge keyed on the
// notification ID: a duplicate ID is a no-op, so replayed pushes and
// overlapping REST fetches never produce double entries.
type Center struct {
	mu     sync.Mutex
	items  []model.Notification
	seen   map[int64]int // ID -> index into items
	unread int
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{seen: make(map[int64]int)}
}

// Add inserts a pushed notification at the head of the list. A
// notification whose ID is already present is ignored. It reports
// whether the notification was actually added.
func (c *Center) Add(n model.Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[n.ID]; ok {
		return false
	}

	c.items = append([]model.Notification{n}, c.items...)
	c.reindex()
	if !n.Read {
		c.unread++
	}
	return true
}

// Merge folds a REST fetch result into the list with the same
// ID-based dedup as Add, then re-sorts newest first. The unread
// count is recomputed from the merged list.
func (c *Center) Merge(fetched []model.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range fetched {
		if idx, ok := c.seen[n.ID]; ok {
			// Already known: the server copy wins, except that read
			// state never reverts to unread.
			read := c.items[idx].Read || n.Read
			c.items[idx] = n
			c.items[idx].Read = read
			continue
		}
		c.items = append(c.items, n)
		c.seen[n.ID] = len(c.items) - 1
	}

	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].CreatedAt.After(c.items[j].CreatedAt)
	})
	c.reindex()
	c.recount()
}

// MarkRead transitions one notification to read. Marking an already
// read or unknown notification is a no-op.
func (c *Center) MarkRead(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.seen[id]
	if !ok || c.items[idx].Read {
		return
	}
	c.items[idx].Read = true
	if c.unread > 0 {
		c.unread--
	}
}

// MarkAllRead transitions every notification to read.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		c.items[i].Read = true
	}
	c.unread = 0
}

// SetUnread overrides the unread count with the server-reported
// value from the unread-count endpoint.
func (c *Center) SetUnread(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unread = count
}

// List returns a copy of the notification list, newest first.
func (c *Center) List() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread returns the current unread count.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Len returns the number of notifications held.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// reindex rebuilds the ID index after the slice was reordered. The
// caller holds c.mu.
func (c *Center) reindex() {
	for id := range c.seen {
		delete(c.seen, id)
	}
	for i, n := range c.items {
		c.seen[n.ID] = i
	}
}

// recount recomputes the unread counter from the list. The caller
// holds c.mu.
func (c *Center) recount() {
	c.unread = 0
	for _, n := range c.items {
		if !n.Read {
			c.unread++
		}
	}
}
