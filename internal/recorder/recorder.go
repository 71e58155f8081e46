// Package recorder is the producer facade: one call records an activity
// into the ring buffer, the durable journal, and (when configured) the
// webhook dispatcher. Calls never block and never panic back into the
// caller.
package recorder

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"corewatch/internal/buffer"
	"corewatch/internal/journal"
	"corewatch/internal/webhook"
	"corewatch/pkg/logx"
)

// Buffer channel names.
const (
	ChannelEvent   = "event"
	ChannelChat    = "chat"
	ChannelPrivate = "private"
	ChannelCommand = "command"
)

// Event types with special handling.
const (
	EventJoin  = "JOIN"
	EventLeave = "LEAVE"
	// Block interactions are too noisy to forward to webhooks.
	EventBlockUse = "BLOCK_USE"
)

type Recorder struct {
	log   logx.Logger
	ring  *buffer.Ring
	files *journal.Writer
	hooks *webhook.Service
}

// New wires the three sinks. files and hooks may be nil (disabled).
func New(ring *buffer.Ring, files *journal.Writer, hooks *webhook.Service, log logx.Logger) *Recorder {
	return &Recorder{log: log, ring: ring, files: files, hooks: hooks}
}

// Join records a player joining and forwards it when join forwarding is on.
func (r *Recorder) Join(player string) {
	r.safely("join", func() {
		r.record(ChannelEvent, journal.FileEvents, EventJoin+": "+player)
		if r.hooks != nil {
			r.hooks.Join(player)
		}
	})
}

// Leave records a player leaving.
func (r *Recorder) Leave(player string) {
	r.safely("leave", func() {
		r.record(ChannelEvent, journal.FileEvents, EventLeave+": "+player)
		if r.hooks != nil {
			r.hooks.Leave(player)
		}
	})
}

// Event records a generic server event ("BLOCK_BREAK", "KILL", ...).
// Everything except block interactions is forwarded to the admin channel.
func (r *Recorder) Event(typ, player, details string) {
	r.safely("event", func() {
		msg := typ + ": " + player
		if details != "" {
			msg += " - " + details
		}
		r.record(ChannelEvent, journal.FileEvents, msg)
		if r.hooks != nil && typ != EventBlockUse {
			r.hooks.AdminAction(msg)
		}
	})
}

// Chat records a public chat message.
func (r *Recorder) Chat(player, message string) {
	r.safely("chat", func() {
		msg := flatten(message)
		r.record(ChannelChat, journal.FileChat, player+": "+msg)
		if r.hooks != nil {
			r.hooks.Chat(player, msg)
		}
	})
}

// Private records a whisper/direct message.
func (r *Recorder) Private(player, message string) {
	r.safely("private", func() {
		msg := flatten(message)
		r.record(ChannelPrivate, journal.FilePrivate, player+": "+msg)
		if r.hooks != nil {
			r.hooks.Private(player + ": " + msg)
		}
	})
}

// Command records a command execution. Commands are normalized to a
// leading slash so journal lines read the same regardless of how the
// host reports them.
func (r *Recorder) Command(player, command string) {
	r.safely("command", func() {
		cmd := flatten(command)
		if !strings.HasPrefix(cmd, "/") {
			cmd = "/" + cmd
		}
		r.record(ChannelCommand, journal.FileCommands, fmt.Sprintf("%s executed: %s", player, cmd))
		if r.hooks != nil {
			r.hooks.Command(player, cmd)
		}
	})
}

func (r *Recorder) record(channel, file, msg string) {
	line := journal.Stamp(time.Now(), msg)
	if r.ring != nil {
		r.ring.Push(channel, line)
	}
	if r.files != nil {
		r.files.Append(file, line)
	}
}

// safely keeps producer call sites panic-free: telemetry must never take
// down the host.
func (r *Recorder) safely(op string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("recorder panic recovered",
				logx.String("op", op),
				logx.Any("panic", rec),
				logx.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}

func flatten(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
