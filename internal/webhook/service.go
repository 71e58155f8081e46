// Package webhook implements the async notification pipeline:
// queue + single worker + dedup + sliding-window rate limit + retry.
//
// Callers never block on network I/O and never see delivery errors; the
// worker logs and drops whatever cannot be delivered.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"corewatch/internal/config"
	"corewatch/internal/eventbus"
	"corewatch/pkg/logx"
)

const footerText = "corewatch"

// Settings is the resolved dispatcher configuration with all defaults
// applied. Swapped atomically on config reload.
type Settings struct {
	Enabled    bool
	DefaultURL string
	URLs       config.WebhookURLs

	ForwardJoins    bool
	ForwardLeaves   bool
	ForwardChat     bool
	ForwardCommands bool

	DedupWindow time.Duration
	RateMax     int
	RateWindow  time.Duration
	RetryMax    int // attempts total, not extra retries
	RetryBase   time.Duration
	Timeout     time.Duration
}

func resolveSettings(cfg config.WebhookConfig) Settings {
	s := Settings{
		Enabled:         cfg.Enabled,
		DefaultURL:      cfg.DefaultURL,
		URLs:            cfg.URLs,
		ForwardJoins:    cfg.ForwardJoins,
		ForwardLeaves:   cfg.ForwardLeaves,
		ForwardChat:     cfg.ForwardChat,
		ForwardCommands: cfg.ForwardCommands,
		DedupWindow:     durationOr("webhook.dedup_window", cfg.DedupWindow, 1500*time.Millisecond),
		RateMax:         cfg.RateMax,
		RateWindow:      durationOr("webhook.rate_window", cfg.RateWindow, 5*time.Second),
		RetryMax:        cfg.RetryMax,
		RetryBase:       durationOr("webhook.retry_base", cfg.RetryBase, 400*time.Millisecond),
		Timeout:         durationOr("webhook.timeout", cfg.Timeout, 8*time.Second),
	}
	if s.RateMax <= 0 {
		s.RateMax = 5
	}
	if s.RetryMax <= 0 {
		s.RetryMax = 3
	}
	return s
}

// durationOr is tolerant at apply time; hard validation of duration fields
// happens in the config reload validator before settings get here.
func durationOr(path, raw string, def time.Duration) time.Duration {
	d, err := config.ParseDurationOrDefault(path, raw, def)
	if err != nil {
		return def
	}
	return d
}

type job struct {
	url   string
	title string
	body  string
	color int
}

// Service is the notification dispatcher. Construct with New, call Start,
// then the category methods (Join, Chat, AdminAction, ...); Stop drains
// the queue best-effort.
type Service struct {
	log    logx.Logger
	bus    eventbus.Bus
	client *http.Client

	settings atomic.Pointer[Settings]
	queue    chan job

	// intakeMu serializes enqueue against queue close so late callers
	// (log forwarding during shutdown, straggling producers) can never
	// hit a closed channel.
	intakeMu sync.RWMutex
	closed   bool

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	// Worker-only state, no locks needed.
	dedup     map[string]time.Time
	sendTimes []time.Time

	// now is swappable for tests.
	now func() time.Time
}

func New(cfg config.WebhookConfig, log logx.Logger, bus eventbus.Bus) *Service {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &Service{
		log:    log,
		bus:    bus,
		client: &http.Client{},
		queue:  make(chan job, queueSize),
		done:   make(chan struct{}),
		dedup:  map[string]time.Time{},
		now:    time.Now,
	}
	s.Apply(cfg)
	return s
}

// Apply swaps in a new configuration. Queue size is fixed at construction;
// everything else takes effect for subsequent notifications.
func (s *Service) Apply(cfg config.WebhookConfig) {
	st := resolveSettings(cfg)
	s.settings.Store(&st)
}

func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		wctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.loop(wctx)
	})
}

// Stop drains whatever is already queued, bounded by ctx. Notifications
// arriving after Stop are dropped silently.
func (s *Service) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.intakeMu.Lock()
		s.closed = true
		close(s.queue)
		s.intakeMu.Unlock()
		select {
		case <-s.done:
		case <-ctx.Done():
			if s.cancel != nil {
				s.cancel()
			}
			<-s.done
		}
	})
}

// notify resolves the destination and enqueues. It never blocks and never
// returns an error to the caller.
func (s *Service) notify(cat Category, title, body string, color int) {
	st := s.settings.Load()
	if st == nil || !st.Enabled || body == "" {
		return
	}
	url := s.resolveURL(st, cat)
	if url == "" {
		return
	}
	s.intakeMu.RLock()
	defer s.intakeMu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- job{url: url, title: title, body: body, color: color}:
	default:
		s.log.Warn("webhook queue full, notification dropped", logx.String("category", string(cat)))
		s.publish("webhook.dropped", cat, "queue full")
	}
}

func (s *Service) resolveURL(st *Settings, cat Category) string {
	var specific string
	switch cat {
	case CategoryAdmin:
		specific = st.URLs.Admin
	case CategoryChat:
		specific = st.URLs.Chat
	case CategoryPrivate:
		specific = st.URLs.Private
	case CategoryCommand:
		specific = st.URLs.Command
	case CategoryEconomy:
		specific = st.URLs.Economy
	case CategoryAntiCheat:
		specific = st.URLs.AntiCheat
	case CategoryClan:
		specific = st.URLs.Clan
	case CategoryReport:
		specific = st.URLs.Report
	case CategoryBounty:
		specific = st.URLs.Bounty
	}
	if specific != "" {
		return specific
	}
	return st.DefaultURL
}

func (s *Service) publish(typ string, cat Category, detail string) {
	if s.bus == nil {
		return
	}
	now := s.now()
	s.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: map[string]string{
		"category": string(cat),
		"detail":   detail,
	}})
}

func (s *Service) publishURL(typ, url, detail string) {
	if s.bus == nil {
		return
	}
	now := s.now()
	s.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: map[string]string{
		"url":    url,
		"detail": detail,
	}})
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-s.queue:
			if !ok {
				return
			}
			s.process(ctx, j)
		}
	}
}

// process runs the sanitize -> dedup -> rate-limit -> deliver pipeline for
// one notification on the worker goroutine.
func (s *Service) process(ctx context.Context, j job) {
	st := s.settings.Load()
	if st == nil {
		return
	}

	body := sanitize(j.body)
	if body == "" {
		return
	}

	if s.isDuplicate(j.url, j.title, body, st.DedupWindow) {
		s.publishURL("webhook.deduped", j.url, j.title)
		return
	}

	payload := buildPayload(j.title, body, j.color, footerText, s.now())
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("webhook payload encode failed", logx.Err(err))
		return
	}

	if !s.throttle(ctx, st) {
		return
	}
	s.deliver(ctx, st, j.url, raw)
}

// isDuplicate applies the sliding dedup window: every observation refreshes
// the timestamp, so sustained repeats stay suppressed until they pause for
// a full window.
func (s *Service) isDuplicate(url, title, body string, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	key := url + "|" + title + "|" + body
	now := s.now()
	prev, seen := s.dedup[key]
	s.dedup[key] = now
	if len(s.dedup) > 4096 {
		for k, t := range s.dedup {
			if now.Sub(t) >= window {
				delete(s.dedup, k)
			}
		}
	}
	return seen && now.Sub(prev) < window
}

// throttle blocks the worker until fewer than RateMax sends have started
// within the trailing RateWindow. Returns false if ctx ended while waiting.
func (s *Service) throttle(ctx context.Context, st *Settings) bool {
	for {
		now := s.now()
		live := s.sendTimes[:0]
		for _, t := range s.sendTimes {
			if now.Sub(t) < st.RateWindow {
				live = append(live, t)
			}
		}
		s.sendTimes = live
		if len(s.sendTimes) < st.RateMax {
			s.sendTimes = append(s.sendTimes, now)
			return true
		}
		wait := st.RateWindow - now.Sub(s.sendTimes[0])
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return false
		}
	}
}

// deliver posts the payload with bounded retries. A 429 is terminal: the
// destination is already throttling us and retrying would make it worse.
func (s *Service) deliver(ctx context.Context, st *Settings, url string, payload []byte) {
	var lastErr error
	for attempt := 1; attempt <= st.RetryMax; attempt++ {
		err := s.post(ctx, st, url, payload)
		if err == nil {
			s.publishURL("webhook.sent", url, "")
			return
		}
		if err == errRateLimited {
			s.log.Warn("webhook rate-limited by destination, dropping", logx.String("url", url))
			s.publishURL("webhook.failed", url, "http 429")
			return
		}
		lastErr = err
		s.log.Warn("webhook delivery failed",
			logx.Int("attempt", attempt), logx.Int("max", st.RetryMax), logx.Err(err))

		if attempt >= st.RetryMax {
			break
		}
		t := time.NewTimer(st.RetryBase * time.Duration(attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
	if lastErr != nil {
		s.publishURL("webhook.failed", url, lastErr.Error())
	}
}

var errRateLimited = fmt.Errorf("destination rate limit")

func (s *Service) post(ctx context.Context, st *Settings, url string, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, st.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "corewatch-webhook")

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("http %d", res.StatusCode)
	}
	return nil
}
