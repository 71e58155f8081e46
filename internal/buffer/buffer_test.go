package buffer

import (
	"fmt"
	"testing"
)

func TestPushRejectsBlank(t *testing.T) {
	r := New(10)
	if r.Push("events", "") {
		t.Fatal("expected blank message to be rejected")
	}
	if r.Push("events", "   \t") {
		t.Fatal("expected whitespace-only message to be rejected")
	}
	if r.Push("", "hello") {
		t.Fatal("expected blank channel to be rejected")
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
}

func TestRecentNewestFirst(t *testing.T) {
	r := New(10)
	for i := 0; i < 5; i++ {
		r.Push("events", fmt.Sprintf("msg-%d", i))
	}
	got := r.Recent(0, "", "")
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i, ev := range got {
		want := fmt.Sprintf("msg-%d", 4-i)
		if ev.Message != want {
			t.Fatalf("got[%d] = %q, want %q", i, ev.Message, want)
		}
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	r := New(3)
	for i := 0; i < 5; i++ {
		r.Push("events", fmt.Sprintf("msg-%d", i))
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	got := r.Recent(0, "", "")
	wants := []string{"msg-4", "msg-3", "msg-2"}
	for i, w := range wants {
		if got[i].Message != w {
			t.Fatalf("got[%d] = %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestRecentFilters(t *testing.T) {
	r := New(10)
	r.Push("chat", "Alice: hello")
	r.Push("events", "Bob joined")
	r.Push("chat", "Bob: HELLO world")

	byChannel := r.Recent(0, "chat", "")
	if len(byChannel) != 2 {
		t.Fatalf("channel filter len = %d, want 2", len(byChannel))
	}

	bySearch := r.Recent(0, "", "hello")
	if len(bySearch) != 2 {
		t.Fatalf("search filter len = %d, want 2", len(bySearch))
	}

	both := r.Recent(0, "chat", "hello")
	if len(both) != 2 {
		t.Fatalf("combined filter len = %d, want 2", len(both))
	}

	limited := r.Recent(1, "", "")
	if len(limited) != 1 || limited[0].Message != "Bob: HELLO world" {
		t.Fatalf("limit 1 = %+v", limited)
	}
}

func TestChannelCounts(t *testing.T) {
	r := New(10)
	r.Push("chat", "a")
	r.Push("chat", "b")
	r.Push("events", "c")
	counts := r.ChannelCounts(0)
	if counts["chat"] != 2 || counts["events"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	recent := r.ChannelCounts(1)
	if recent["events"] != 1 || len(recent) != 1 {
		t.Fatalf("recent counts = %v", recent)
	}
}
