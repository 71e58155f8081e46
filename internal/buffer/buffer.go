// Package buffer holds the in-memory ring of recent telemetry events that
// feeds the dashboard query endpoints.
package buffer

import (
	"strings"
	"sync"
	"time"
)

// Event is one recorded telemetry entry.
type Event struct {
	Time    time.Time `json:"timestamp"`
	Channel string    `json:"channel"`
	Message string    `json:"message"`
}

// Ring is a fixed-capacity event buffer. When full, pushing evicts the
// oldest entry. Reads return events most-recent-first.
type Ring struct {
	mu    sync.RWMutex
	cap   int
	buf   []Event
	head  int // index of the next write slot
	count int
}

const DefaultCapacity = 3000

func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		cap: capacity,
		buf: make([]Event, capacity),
	}
}

// Push appends an event. Blank channels or messages are rejected.
func (r *Ring) Push(channel, message string) bool {
	if strings.TrimSpace(channel) == "" || strings.TrimSpace(message) == "" {
		return false
	}
	ev := Event{Time: time.Now(), Channel: channel, Message: message}
	r.mu.Lock()
	r.buf[r.head] = ev
	r.head = (r.head + 1) % r.cap
	if r.count < r.cap {
		r.count++
	}
	r.mu.Unlock()
	return true
}

// Len reports the number of buffered events.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Recent returns up to limit events, newest first, optionally filtered by
// channel (exact match) and search (case-insensitive substring of message).
// limit <= 0 means no limit.
func (r *Ring) Recent(limit int, channel, search string) []Event {
	search = strings.ToLower(search)
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, 0, min(r.count, max(limit, 0)))
	for i := 0; i < r.count; i++ {
		// walk backwards from the most recent write
		idx := (r.head - 1 - i + r.cap*2) % r.cap
		ev := r.buf[idx]
		if channel != "" && ev.Channel != channel {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(ev.Message), search) {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ChannelCounts returns per-channel totals over the most-recent limit
// entries. limit <= 0 counts everything buffered.
func (r *Ring) ChannelCounts(limit int) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := r.count
	if limit > 0 && limit < n {
		n = limit
	}
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		idx := (r.head - 1 - i + r.cap*2) % r.cap
		counts[r.buf[idx].Channel]++
	}
	return counts
}
