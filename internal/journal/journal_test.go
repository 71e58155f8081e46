package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"corewatch/pkg/logx"
)

func TestAppendWritesLines(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 16, logx.Nop())
	w.Start(context.Background())

	w.Append(FileEvents, "[2026-01-02 15:04:05] Bob joined")
	w.Append(FileEvents, "[2026-01-02 15:04:06] Bob left")
	w.Append(FileChat, "[2026-01-02 15:04:07] Bob: hi")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	w.Stop(ctx)

	b, err := os.ReadFile(filepath.Join(dir, FileEvents))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("events lines = %d, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[0], "Bob joined") {
		t.Fatalf("unexpected first line %q", lines[0])
	}

	b, err = os.ReadFile(filepath.Join(dir, FileChat))
	if err != nil {
		t.Fatalf("read chat: %v", err)
	}
	if !strings.Contains(string(b), "Bob: hi") {
		t.Fatalf("chat journal missing line: %q", b)
	}
}

func TestAppendIgnoresEmpty(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 4, logx.Nop())
	w.Start(context.Background())
	w.Append("", "orphan")
	w.Append(FileEvents, "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)

	if _, err := os.Stat(filepath.Join(dir, FileEvents)); !os.IsNotExist(err) {
		t.Fatalf("expected no events file, stat err = %v", err)
	}
}

func TestAppendAfterStopIsDropped(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 4, logx.Nop())
	w.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)

	// Producers may still fire during teardown; this must not panic.
	w.Append(FileEvents, "[2026-01-02 15:04:05] straggler")

	if _, err := os.Stat(filepath.Join(dir, FileEvents)); !os.IsNotExist(err) {
		t.Fatalf("expected no events file, stat err = %v", err)
	}
}

func TestStamp(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	got := Stamp(ts, "hello")
	if got != "[2026-01-02 15:04:05] hello" {
		t.Fatalf("Stamp = %q", got)
	}
}
