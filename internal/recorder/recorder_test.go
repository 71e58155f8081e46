package recorder

import (
	"strings"
	"testing"

	"corewatch/internal/buffer"
	"corewatch/pkg/logx"
)

func TestRecordGoesToRing(t *testing.T) {
	ring := buffer.New(10)
	r := New(ring, nil, nil, logx.Nop())

	r.Join("Bob")
	r.Chat("Alice", "hello\nthere")
	r.Command("Bob", "/spawn")

	events := ring.Recent(0, ChannelEvent, "")
	if len(events) != 1 || !strings.Contains(events[0].Message, "JOIN: Bob") {
		t.Fatalf("events = %+v", events)
	}

	chat := ring.Recent(0, ChannelChat, "")
	if len(chat) != 1 {
		t.Fatalf("chat = %+v", chat)
	}
	if strings.Contains(chat[0].Message, "\n") {
		t.Fatalf("newline not flattened: %q", chat[0].Message)
	}
	if !strings.Contains(chat[0].Message, "Alice: hello there") {
		t.Fatalf("chat line = %q", chat[0].Message)
	}

	cmds := ring.Recent(0, ChannelCommand, "")
	if len(cmds) != 1 || !strings.Contains(cmds[0].Message, "Bob executed: /spawn") {
		t.Fatalf("commands = %+v", cmds)
	}
}

func TestCommandNormalizesLeadingSlash(t *testing.T) {
	ring := buffer.New(10)
	r := New(ring, nil, nil, logx.Nop())

	r.Command("Bob", "spawn")
	r.Command("Alice", "/home")

	got := ring.Recent(0, ChannelCommand, "")
	if len(got) != 2 {
		t.Fatalf("commands = %+v", got)
	}
	// Most-recent-first.
	if !strings.Contains(got[0].Message, "Alice executed: /home") {
		t.Fatalf("line = %q", got[0].Message)
	}
	if !strings.Contains(got[1].Message, "Bob executed: /spawn") {
		t.Fatalf("line = %q", got[1].Message)
	}
}

func TestEventDetailsFormat(t *testing.T) {
	ring := buffer.New(10)
	r := New(ring, nil, nil, logx.Nop())

	r.Event("BLOCK_BREAK", "Bob", "stone @ 1, 2, 3")
	got := ring.Recent(0, ChannelEvent, "")
	if len(got) != 1 {
		t.Fatalf("events = %+v", got)
	}
	if !strings.Contains(got[0].Message, "BLOCK_BREAK: Bob - stone @ 1, 2, 3") {
		t.Fatalf("line = %q", got[0].Message)
	}
}

func TestTimestampPrefix(t *testing.T) {
	ring := buffer.New(10)
	r := New(ring, nil, nil, logx.Nop())

	r.Leave("Bob")
	got := ring.Recent(0, "", "")
	if len(got) != 1 {
		t.Fatalf("entries = %+v", got)
	}
	if !strings.HasPrefix(got[0].Message, "[") || !strings.Contains(got[0].Message, "] LEAVE: Bob") {
		t.Fatalf("line = %q", got[0].Message)
	}
}

func TestNilSinksDoNotPanic(t *testing.T) {
	r := New(nil, nil, nil, logx.Nop())
	r.Join("Bob")
	r.Chat("Bob", "hi")
	r.Private("Bob", "psst")
	r.Command("Bob", "/home")
	r.Event("KILL", "Bob", "Alice killed")
}
