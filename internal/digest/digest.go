// Package digest posts a periodic activity summary to the admin webhook
// channel on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"corewatch/internal/buffer"
	"corewatch/internal/config"
	"corewatch/pkg/logx"
)

// Notifier is the slice of the dispatcher the digest needs.
type Notifier interface {
	Digest(message string)
}

type Service struct {
	mu  sync.Mutex
	cfg config.DigestConfig

	log   logx.Logger
	ring  *buffer.Ring
	hooks Notifier

	parser    cron.Parser
	c         *cron.Cron
	startedAt time.Time
}

func New(cfg config.DigestConfig, ring *buffer.Ring, hooks Notifier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:   cfg,
		log:   log,
		ring:  ring,
		hooks: hooks,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Apply(cfg config.DigestConfig) {
	s.mu.Lock()
	changed := s.cfg.Spec != cfg.Spec || s.cfg.Timezone != cfg.Timezone
	s.cfg = cfg
	running := s.c != nil
	s.mu.Unlock()

	if changed && running {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		s.Stop(ctx)
		cancel()
		s.Start(context.Background())
	}
}

func (s *Service) Start(ctx context.Context) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	spec := strings.TrimSpace(s.cfg.Spec)
	if spec == "" {
		return
	}

	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			s.log.Warn("digest timezone invalid, using local", logx.String("tz", tz), logx.Err(err))
		} else {
			loc = l
		}
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, s.post); err != nil {
		s.log.Warn("digest spec invalid, digest disabled", logx.String("spec", spec), logx.Err(err))
		return
	}
	c.Start()
	s.c = c
	s.startedAt = time.Now()
	s.log.Info("digest scheduled", logx.String("spec", spec), logx.String("tz", loc.String()))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Service) post() {
	s.mu.Lock()
	started := s.startedAt
	s.mu.Unlock()

	body := s.compose(time.Since(started))
	s.hooks.Digest(body)
}

// compose renders "name: value" lines so the dispatcher turns them into
// structured embed fields.
func (s *Service) compose(uptime time.Duration) string {
	total := int64(uptime.Seconds())
	lines := []string{
		fmt.Sprintf("Uptime: %dh %dm %ds", total/3600, (total%3600)/60, total%60),
		fmt.Sprintf("Buffered events: %d", s.ring.Len()),
	}

	counts := s.ring.ChannelCounts(0)
	channels := make([]string, 0, len(counts))
	for ch := range counts {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	for _, ch := range channels {
		lines = append(lines, fmt.Sprintf("%s: %d", ch, counts[ch]))
	}
	return strings.Join(lines, "\n")
}
