// Package journal appends telemetry lines to per-category log files.
// All disk writes happen on a single worker goroutine so producers never
// block on I/O.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"corewatch/pkg/logx"
)

// Well-known journal files.
const (
	FileEvents   = "events.log"
	FileChat     = "chat-messages.log"
	FilePrivate  = "private-messages.log"
	FileCommands = "commands.log"
)

const defaultQueueSize = 1024

type entry struct {
	file string
	line string
}

// Writer is the async append-only journal. Construct with New, call Start,
// enqueue lines with Append, and Stop to drain and close.
type Writer struct {
	dir   string
	queue chan entry
	log   logx.Logger

	// intakeMu serializes Append against the queue close in Stop so a
	// straggling producer can never send on a closed channel.
	intakeMu sync.RWMutex
	closed   bool

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	handles map[string]*os.File
}

func New(dir string, queueSize int, log logx.Logger) *Writer {
	if dir == "" {
		dir = "./logs"
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Writer{
		dir:     dir,
		queue:   make(chan entry, queueSize),
		log:     log,
		done:    make(chan struct{}),
		handles: make(map[string]*os.File),
	}
}

func (w *Writer) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		wctx, cancel := context.WithCancel(ctx)
		w.cancel = cancel
		go w.loop(wctx)
	})
}

// Append enqueues a line for the named file. It never blocks: when the
// queue is full the line is dropped and a warning logged.
func (w *Writer) Append(file, line string) {
	if file == "" || line == "" {
		return
	}
	w.intakeMu.RLock()
	defer w.intakeMu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.queue <- entry{file: file, line: line}:
	default:
		w.log.Warn("journal queue full, line dropped", logx.String("file", file))
	}
}

// Stop drains whatever is already queued, bounded by ctx, then closes
// file handles. Lines appended after Stop are dropped silently.
func (w *Writer) Stop(ctx context.Context) {
	w.stopOnce.Do(func() {
		w.intakeMu.Lock()
		w.closed = true
		close(w.queue)
		w.intakeMu.Unlock()
		select {
		case <-w.done:
		case <-ctx.Done():
			if w.cancel != nil {
				w.cancel()
			}
			<-w.done
		}
		w.closeAll()
	})
}

func (w *Writer) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-w.queue:
			if !ok {
				return
			}
			w.write(e)
		}
	}
}

func (w *Writer) write(e entry) {
	f, err := w.handle(e.file)
	if err != nil {
		w.log.Warn("journal open failed", logx.String("file", e.file), logx.Err(err))
		return
	}
	if _, err := f.WriteString(e.line + "\n"); err != nil {
		w.log.Warn("journal write failed", logx.String("file", e.file), logx.Err(err))
		// drop the handle so the next write reopens
		w.mu.Lock()
		delete(w.handles, e.file)
		w.mu.Unlock()
		_ = f.Close()
	}
}

func (w *Writer) handle(file string) (*os.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.handles[file]; ok {
		return f, nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(w.dir, file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w.handles[file] = f
	return f, nil
}

func (w *Writer) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, f := range w.handles {
		_ = f.Close()
		delete(w.handles, name)
	}
}

// Stamp prefixes a message with the journal timestamp format.
func Stamp(t time.Time, msg string) string {
	return "[" + t.Format("2006-01-02 15:04:05") + "] " + msg
}
