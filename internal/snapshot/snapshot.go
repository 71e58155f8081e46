// Package snapshot holds the latest runtime status of the monitored game
// server for the dashboard to serve.
package snapshot

import (
	"sync/atomic"
	"time"
)

// Status is one immutable runtime observation. Producers build a full
// Status and set it; readers always see a consistent snapshot.
type Status struct {
	Online     bool      `json:"online"`
	MOTD       string    `json:"motd"`
	Version    string    `json:"version"`
	Players    []string  `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	TPS        float64   `json:"tps"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Holder stores the current Status behind an atomic pointer.
type Holder struct {
	v atomic.Pointer[Status]
}

func NewHolder() *Holder {
	h := &Holder{}
	h.v.Store(defaultStatus())
	return h
}

func defaultStatus() *Status {
	return &Status{
		Online:     false,
		MOTD:       "Game Server",
		Version:    "unknown",
		Players:    []string{},
		MaxPlayers: 20,
		UpdatedAt:  time.Now(),
	}
}

// Set replaces the snapshot wholesale. A nil status resets to defaults.
func (h *Holder) Set(s *Status) {
	if s == nil {
		h.v.Store(defaultStatus())
		return
	}
	cp := *s
	if cp.Players == nil {
		cp.Players = []string{}
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	h.v.Store(&cp)
}

// Get returns the current snapshot. Callers must not mutate it.
func (h *Holder) Get() *Status {
	return h.v.Load()
}
