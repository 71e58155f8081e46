// Package app wires the telemetry pipeline together: config, logging,
// ring buffer, journal, webhook dispatcher, dashboard, and digest.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"corewatch/internal/buffer"
	"corewatch/internal/config"
	"corewatch/internal/dashboard"
	"corewatch/internal/digest"
	"corewatch/internal/eventbus"
	"corewatch/internal/journal"
	"corewatch/internal/recorder"
	"corewatch/internal/runtime/supervisor"
	"corewatch/internal/snapshot"
	"corewatch/internal/webhook"
	"corewatch/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	ring  *buffer.Ring
	files *journal.Writer
	hooks *webhook.Service
	rec   *recorder.Recorder
	snap  *snapshot.Holder
	dash  *dashboard.Service
	dig   *digest.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := validate(context.Background(), cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogxConfig(cfg.Logging))
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()
	ring := buffer.New(cfg.Buffer.Capacity)
	snap := snapshot.NewHolder()

	var files *journal.Writer
	if cfg.Journal.Enabled == nil || *cfg.Journal.Enabled {
		files = journal.New(cfg.Journal.Dir, cfg.Journal.QueueSize, log.With(logx.String("comp", "journal")))
	}

	hooks := webhook.New(cfg.Webhook, log.With(logx.String("comp", "webhook")), bus)
	// The dispatcher's own delivery warnings must not be forwarded back
	// into the dispatcher; a failing destination would feed itself.
	logSvc.SetForwarder(hooks, "webhook")

	rec := recorder.New(ring, files, hooks, log.With(logx.String("comp", "recorder")))
	dash := dashboard.New(cfg.Dashboard, ring, snap, bus, log.With(logx.String("comp", "dashboard")))
	dig := digest.New(cfg.Digest, ring, hooks, log.With(logx.String("comp", "digest")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		ring:    ring,
		files:   files,
		hooks:   hooks,
		rec:     rec,
		snap:    snap,
		dash:    dash,
		dig:     dig,
	}, nil
}

// Recorder is the producer facade host integrations push activity through.
func (a *App) Recorder() *recorder.Recorder { return a.rec }

// Snapshot lets host integrations publish runtime status for the dashboard.
func (a *App) Snapshot() *snapshot.Holder { return a.snap }

// SetCommandBridge wires the console-command executor used by the
// dashboard's action endpoint.
func (a *App) SetCommandBridge(b dashboard.CommandBridge) { a.dash.SetBridge(b) }

// Done is closed when the app context unwinds (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(validate)

	if a.files != nil {
		a.files.Start(a.sup.Context())
	}
	a.hooks.Start(a.sup.Context())
	if err := a.dash.Start(a.sup.Context()); err != nil {
		return err
	}
	a.dig.Start(a.sup.Context())

	// hot reload fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the newest config.
			coalesce:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							cfg = newer
						}
					default:
						break coalesce
					}
				}
				a.applyReload(cfg)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("corewatch started")
	return nil
}

func (a *App) applyReload(cfg *config.Config) {
	a.logs.Apply(mapLogxConfig(cfg.Logging))
	a.hooks.Apply(cfg.Webhook)
	a.dash.Apply(cfg.Dashboard)
	a.dig.Apply(cfg.Digest)

	// The journal worker owns open file handles; dir/enable changes only
	// take effect after a restart.
	journalOn := cfg.Journal.Enabled == nil || *cfg.Journal.Enabled
	if journalOn != (a.files != nil) {
		a.log.Warn("journal config changed; restart required for changes to take effect")
	}
	a.log.Info("config reloaded")
}

// Stop shuts components down in dependency order with a bounded grace
// period per step, then unwinds the supervisor.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	step := func(max time.Duration, fn func(context.Context)) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		fn(stepCtx)
	}

	step(time.Second, a.dig.Stop)
	step(2*time.Second, a.dash.Stop)
	// Detach log forwarding before the dispatcher goes away so late
	// warnings during teardown have nowhere to feed.
	a.logs.SetForwarder(nil)
	step(2*time.Second, a.hooks.Stop)
	if a.files != nil {
		step(2*time.Second, a.files.Stop)
	}

	a.sup.Cancel()
	if err := a.sup.Wait(ctx); err != nil {
		a.log.Warn("shutdown wait", logx.Err(err))
	}
	return a.logs.Close()
}

func mapLogxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
		Webhook: logx.WebhookConfig{
			Enabled:    c.Webhook.Enabled,
			MinLevel:   c.Webhook.MinLevel,
			RatePerSec: c.Webhook.RatePerSec,
		},
	}
}

// validate rejects configs that would misbehave at runtime; used both at
// boot and as the hot-reload gate.
func validate(_ context.Context, cfg *config.Config) error {
	if cfg.Buffer.Capacity < 0 {
		return fmt.Errorf("buffer.capacity must be >= 0")
	}
	if cfg.Journal.QueueSize < 0 {
		return fmt.Errorf("journal.queue_size must be >= 0")
	}
	if cfg.Webhook.QueueSize < 0 {
		return fmt.Errorf("webhook.queue_size must be >= 0")
	}
	if cfg.Webhook.RateMax < 0 {
		return fmt.Errorf("webhook.rate_max must be >= 0")
	}
	if cfg.Webhook.RetryMax < 0 {
		return fmt.Errorf("webhook.retry_max must be >= 0")
	}
	for _, f := range []struct{ path, raw string }{
		{"webhook.dedup_window", cfg.Webhook.DedupWindow},
		{"webhook.rate_window", cfg.Webhook.RateWindow},
		{"webhook.retry_base", cfg.Webhook.RetryBase},
		{"webhook.timeout", cfg.Webhook.Timeout},
	} {
		if _, err := config.ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	if cfg.Dashboard.Port < 0 || cfg.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port out of range")
	}
	if cfg.Dashboard.LimitMin < 0 || cfg.Dashboard.LimitMax < 0 {
		return fmt.Errorf("dashboard limits must be >= 0")
	}
	if cfg.Dashboard.LimitMax > 0 && cfg.Dashboard.LimitMin > cfg.Dashboard.LimitMax {
		return fmt.Errorf("dashboard.limit_min must be <= dashboard.limit_max")
	}
	if tz := strings.TrimSpace(cfg.Digest.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("digest.timezone: invalid %q: %w", tz, err)
		}
	}
	return nil
}
