// Package dashboard serves the token-gated HTTP query API over the event
// ring and the runtime snapshot.
package dashboard

import (
	"context"
	"crypto/subtle"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"corewatch/internal/buffer"
	"corewatch/internal/config"
	"corewatch/internal/eventbus"
	"corewatch/internal/snapshot"
	"corewatch/pkg/logx"
)

//go:embed index.html
var indexHTML string

// CommandBridge forwards console commands to the game server. The boolean
// result maps directly to the HTTP status of /api/action/command.
type CommandBridge interface {
	ExecuteCommand(command string) bool
}

// Settings is the resolved dashboard configuration with defaults applied.
type Settings struct {
	Enabled    bool
	Host       string
	Port       int
	Token      string
	LimitMin   int
	LimitMax   int
	EventLimit int
}

func resolveSettings(cfg config.DashboardConfig) Settings {
	s := Settings{
		Enabled:    cfg.Enabled,
		Host:       cfg.Host,
		Port:       cfg.Port,
		Token:      strings.TrimSpace(cfg.Token),
		LimitMin:   cfg.LimitMin,
		LimitMax:   cfg.LimitMax,
		EventLimit: cfg.EventLimit,
	}
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port <= 0 {
		s.Port = 8787
	}
	if s.LimitMin <= 0 {
		s.LimitMin = 10
	}
	if s.LimitMax <= 0 {
		s.LimitMax = 500
	}
	if s.EventLimit <= 0 {
		s.EventLimit = 50
	}
	return s
}

type deliveryCounters struct {
	sent    atomic.Int64
	failed  atomic.Int64
	deduped atomic.Int64
	dropped atomic.Int64
}

// Service is the dashboard HTTP server. Token and limit changes apply live
// via Apply; host/port changes need a Stop/Start cycle.
type Service struct {
	log  logx.Logger
	ring *buffer.Ring
	snap *snapshot.Holder
	bus  eventbus.Bus

	settings atomic.Pointer[Settings]
	counters deliveryCounters

	mu        sync.Mutex
	bridge    CommandBridge
	srv       *http.Server
	ln        net.Listener
	unsub     func()
	startedAt time.Time
}

func New(cfg config.DashboardConfig, ring *buffer.Ring, snap *snapshot.Holder, bus eventbus.Bus, log logx.Logger) *Service {
	s := &Service{log: log, ring: ring, snap: snap, bus: bus}
	s.Apply(cfg)
	return s
}

func (s *Service) Apply(cfg config.DashboardConfig) {
	st := resolveSettings(cfg)
	s.settings.Store(&st)
}

// SetBridge installs (or clears) the command bridge.
func (s *Service) SetBridge(b CommandBridge) {
	s.mu.Lock()
	s.bridge = b
	s.mu.Unlock()
}

func (s *Service) currentBridge() CommandBridge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridge
}

func (s *Service) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method_not_allowed"})
	})

	r.GET("/", s.handleIndex)
	api := r.Group("/", s.requireToken())
	api.GET("/api/status", s.handleStatus)
	api.GET("/api/players", s.handlePlayers)
	api.GET("/api/events", s.handleEvents)
	api.GET("/api/events.csv", s.handleEventsCSV)
	api.GET("/api/summary", s.handleSummary)
	api.GET("/api/metrics", s.handleMetrics)
	api.POST("/api/action/command", s.handleActionCommand)
	return r
}

func (s *Service) Start(ctx context.Context) error {
	st := s.settings.Load()
	if !st.Enabled {
		s.log.Info("dashboard disabled")
		return nil
	}

	r := s.router()

	addr := fmt.Sprintf("%s:%d", st.Host, st.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dashboard listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           r,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.ln = ln
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.watchDeliveries()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("dashboard server error", logx.Err(err))
		}
	}()
	s.log.Info("dashboard listening", logx.String("addr", ln.Addr().String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	srv := s.srv
	unsub := s.unsub
	s.srv = nil
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Warn("dashboard shutdown", logx.Err(err))
		}
	}
}

// Addr reports the bound listen address, empty when not running.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// watchDeliveries keeps webhook delivery counters for /api/metrics.
func (s *Service) watchDeliveries() {
	if s.bus == nil {
		return
	}
	ch, unsub := s.bus.Subscribe(64)
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()
	go func() {
		for ev := range ch {
			switch ev.Type {
			case "webhook.sent":
				s.counters.sent.Add(1)
			case "webhook.failed":
				s.counters.failed.Add(1)
			case "webhook.deduped":
				s.counters.deduped.Add(1)
			case "webhook.dropped":
				s.counters.dropped.Add(1)
			}
		}
	}()
}

// requireToken checks Authorization: Bearer, then the X-Core-Token header,
// then the token query parameter. No configured token means open access.
func (s *Service) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.settings.Load().Token
		if token == "" {
			c.Next()
			return
		}
		for _, candidate := range []string{bearerToken(c), c.GetHeader("X-Core-Token"), c.Query("token")} {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if len(auth) >= 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return auth[7:]
	}
	return ""
}
