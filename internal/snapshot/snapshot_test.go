package snapshot

import "testing"

func TestDefaults(t *testing.T) {
	h := NewHolder()
	s := h.Get()
	if s.Online {
		t.Fatal("default should be offline")
	}
	if s.MOTD != "Game Server" || s.Version != "unknown" || s.MaxPlayers != 20 {
		t.Fatalf("defaults = %+v", s)
	}
	if s.Players == nil || len(s.Players) != 0 {
		t.Fatalf("players = %#v", s.Players)
	}
	// A fresh holder still reports when it came up, not the zero time.
	if s.UpdatedAt.IsZero() {
		t.Fatal("default UpdatedAt should be stamped")
	}
}

func TestSetReplacesWholesale(t *testing.T) {
	h := NewHolder()
	h.Set(&Status{Online: true, MOTD: "hi", Version: "1.2", Players: []string{"Bob"}, MaxPlayers: 50})
	s := h.Get()
	if !s.Online || s.MOTD != "hi" || len(s.Players) != 1 {
		t.Fatalf("snapshot = %+v", s)
	}
	if s.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt should be stamped")
	}

	h.Set(nil)
	if h.Get().Online {
		t.Fatal("nil Set should reset to defaults")
	}
}

func TestSetCopiesInput(t *testing.T) {
	h := NewHolder()
	in := &Status{Online: true}
	h.Set(in)
	in.Online = false
	if !h.Get().Online {
		t.Fatal("holder should keep its own copy")
	}
}
