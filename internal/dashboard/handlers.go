package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Service) handleStatus(c *gin.Context) {
	st := s.snap.Get()
	c.JSON(http.StatusOK, gin.H{
		"online":     st.Online,
		"motd":       st.MOTD,
		"version":    st.Version,
		"maxPlayers": st.MaxPlayers,
		"players":    len(st.Players),
		"timestamp":  st.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Service) handlePlayers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"players": s.snap.Get().Players})
}

// queryFilters reads limit/channel/search with documented defaults.
// Malformed values fall back rather than erroring.
func (s *Service) queryFilters(c *gin.Context) (limit int, channel, search string) {
	set := s.settings.Load()
	limit = set.EventLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < set.LimitMin {
		limit = set.LimitMin
	}
	if limit > set.LimitMax {
		limit = set.LimitMax
	}

	channel = strings.ToLower(strings.TrimSpace(c.Query("channel")))
	if channel == "all" {
		channel = ""
	}
	search = strings.TrimSpace(c.Query("search"))
	return limit, channel, search
}

func (s *Service) handleEvents(c *gin.Context) {
	limit, channel, search := s.queryFilters(c)
	events := s.ring.Recent(limit, channel, search)
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Service) handleEventsCSV(c *gin.Context) {
	limit, channel, search := s.queryFilters(c)
	events := s.ring.Recent(limit, channel, search)

	var sb strings.Builder
	sb.WriteString("timestamp,channel,message\n")
	for _, e := range events {
		sb.WriteString(e.Time.UTC().Format(time.RFC3339))
		sb.WriteByte(',')
		sb.WriteString(csvQuote(e.Channel))
		sb.WriteByte(',')
		sb.WriteString(csvQuote(e.Message))
		sb.WriteByte('\n')
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(sb.String()))
}

func (s *Service) handleSummary(c *gin.Context) {
	s.mu.Lock()
	started := s.startedAt
	s.mu.Unlock()

	counts := s.ring.ChannelCounts(200)
	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"uptime":             formatUptime(time.Since(started)),
		"channelCounts":      counts,
		"totalEventsLast200": total,
	})
}

func (s *Service) handleMetrics(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st := s.snap.Get()
	c.JSON(http.StatusOK, gin.H{
		"heapUsedMB":    ms.HeapAlloc / (1024 * 1024),
		"heapMaxMB":     ms.Sys / (1024 * 1024),
		"goroutines":    runtime.NumGoroutine(),
		"onlinePlayers": len(st.Players),
		"maxPlayers":    st.MaxPlayers,
		"webhook": gin.H{
			"sent":    s.counters.sent.Load(),
			"failed":  s.counters.failed.Load(),
			"deduped": s.counters.deduped.Load(),
			"dropped": s.counters.dropped.Load(),
		},
	})
}

func (s *Service) handleActionCommand(c *gin.Context) {
	var body struct {
		Command string `json:"command"`
	}
	// Parse errors degrade to an empty body rather than failing the request.
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		body.Command = ""
	}

	command := strings.TrimSpace(body.Command)
	command = strings.TrimPrefix(command, "/")
	if command == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_command"})
		return
	}

	bridge := s.currentBridge()
	if bridge == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bridge_unavailable"})
		return
	}

	ok := bridge.ExecuteCommand(command)
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"ok": ok, "command": command})
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}
