package config

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Buffer    BufferConfig    `json:"buffer,omitempty"`
	Journal   JournalConfig   `json:"journal,omitempty"`
	Webhook   WebhookConfig   `json:"webhook,omitempty"`
	Dashboard DashboardConfig `json:"dashboard,omitempty"`
	Digest    DigestConfig    `json:"digest,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console bool              `json:"console"`
	File    LogFileConfig     `json:"file,omitempty"`
	Webhook LogForwardConfig  `json:"webhook,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// LogForwardConfig mirrors pkg/logx: WARN+ process logs can be forwarded to
// the admin webhook channel, rate limited so a crash loop cannot flood it.
type LogForwardConfig struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// BufferConfig sizes the in-memory event ring.
//
// Defaults (when fields are omitted/zero):
//   - capacity: 3000
type BufferConfig struct {
	Capacity int `json:"capacity,omitempty"`
}

// JournalConfig controls the append-only per-channel log files.
type JournalConfig struct {
	Enabled   *bool  `json:"enabled,omitempty"` // nil means enabled
	Dir       string `json:"dir,omitempty"`     // default "./logs"
	QueueSize int    `json:"queue_size,omitempty"`
}

// WebhookConfig controls the outbound notification dispatcher.
//
// All durations are Go duration strings (e.g. "400ms", "5s").
//
// Defaults (when fields are omitted/zero):
//   - dedup_window: "1500ms"
//   - rate_max: 5, rate_window: "5s"
//   - retry_max: 3 (attempts total), retry_base: "400ms"
//   - timeout: "8s"
type WebhookConfig struct {
	Enabled    bool        `json:"enabled"`
	DefaultURL string      `json:"default_url,omitempty"`
	URLs       WebhookURLs `json:"urls,omitempty"`

	ForwardJoins    bool `json:"forward_joins"`
	ForwardLeaves   bool `json:"forward_leaves"`
	ForwardChat     bool `json:"forward_chat"`
	ForwardCommands bool `json:"forward_commands"`

	QueueSize   int    `json:"queue_size,omitempty"`
	DedupWindow string `json:"dedup_window,omitempty"`
	RateMax     int    `json:"rate_max,omitempty"`
	RateWindow  string `json:"rate_window,omitempty"`
	RetryMax    int    `json:"retry_max,omitempty"`
	RetryBase   string `json:"retry_base,omitempty"`
	Timeout     string `json:"timeout,omitempty"`
}

// WebhookURLs maps event categories to destination URLs. Empty entries fall
// back to the shared default URL.
type WebhookURLs struct {
	Admin     string `json:"admin,omitempty"`
	Chat      string `json:"chat,omitempty"`
	Private   string `json:"private,omitempty"`
	Command   string `json:"command,omitempty"`
	Economy   string `json:"economy,omitempty"`
	AntiCheat string `json:"anticheat,omitempty"`
	Clan      string `json:"clan,omitempty"`
	Report    string `json:"report,omitempty"`
	Bounty    string `json:"bounty,omitempty"`
}

// DashboardConfig controls the token-gated HTTP API.
//
// Security note:
//   - Prefer binding to localhost.
//   - An empty token leaves the dashboard open; set one for any
//     non-loopback bind.
type DashboardConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host,omitempty"` // default "127.0.0.1"
	Port    int    `json:"port,omitempty"` // default 8787
	Token   string `json:"token,omitempty"`

	// LimitMin/LimitMax clamp the events query "limit" parameter.
	// Defaults: 10 / 500. EventLimit is the default when the client
	// sends none (default 50).
	LimitMin   int `json:"limit_min,omitempty"`
	LimitMax   int `json:"limit_max,omitempty"`
	EventLimit int `json:"event_limit,omitempty"`
}

// DigestConfig schedules a periodic channel-count summary to the admin
// webhook. Spec accepts crontab expressions plus @hourly/@every forms.
// Empty spec disables the digest.
type DigestConfig struct {
	Spec     string `json:"spec,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
