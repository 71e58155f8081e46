package digest

import (
	"context"
	"strings"
	"testing"
	"time"

	"corewatch/internal/buffer"
	"corewatch/internal/config"
	"corewatch/pkg/logx"
)

type captureNotifier struct {
	got chan string
}

func (c *captureNotifier) Digest(message string) { c.got <- message }

func TestComposeFieldLines(t *testing.T) {
	ring := buffer.New(10)
	ring.Push("chat", "a")
	ring.Push("chat", "b")
	ring.Push("event", "c")

	s := New(config.DigestConfig{}, ring, nil, logx.Nop())
	body := s.compose(3723 * time.Second)

	lines := strings.Split(body, "\n")
	if lines[0] != "Uptime: 1h 2m 3s" {
		t.Fatalf("uptime line = %q", lines[0])
	}
	if lines[1] != "Buffered events: 3" {
		t.Fatalf("buffered line = %q", lines[1])
	}
	if !strings.Contains(body, "chat: 2") || !strings.Contains(body, "event: 1") {
		t.Fatalf("channel counts missing: %q", body)
	}
}

func TestScheduledPost(t *testing.T) {
	ring := buffer.New(10)
	ring.Push("event", "something")
	n := &captureNotifier{got: make(chan string, 1)}

	s := New(config.DigestConfig{Spec: "@every 1s"}, ring, n, logx.Nop())
	s.Start(context.Background())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case body := <-n.got:
		if !strings.Contains(body, "Buffered events: 1") {
			t.Fatalf("digest body = %q", body)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("digest never fired")
	}
}

func TestBlankSpecDisables(t *testing.T) {
	s := New(config.DigestConfig{}, buffer.New(10), nil, logx.Nop())
	s.Start(context.Background())
	s.mu.Lock()
	running := s.c != nil
	s.mu.Unlock()
	if running {
		t.Fatal("digest should stay idle with no spec")
	}
}
