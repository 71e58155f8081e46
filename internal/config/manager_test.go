package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logging:
  level: DEBUG
  console: true
webhook:
  enabled: true
  default_url: https://example.test/hook
  rate_max: 5
  rate_window: 5s
dashboard:
  enabled: true
  port: 9000
  token: abc
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if !cfg.Webhook.Enabled || cfg.Webhook.DefaultURL != "https://example.test/hook" {
		t.Fatalf("webhook = %+v", cfg.Webhook)
	}
	if cfg.Dashboard.Port != 9000 || cfg.Dashboard.Token != "abc" {
		t.Fatalf("dashboard = %+v", cfg.Dashboard)
	}
	if m.Get() != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestParseJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"logging":{"console":true},"buffer":{"capacity":100}}`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Buffer.Capacity != 100 {
		t.Fatalf("capacity = %d", cfg.Buffer.Capacity)
	}
}

func TestParseSniffsFormatWithoutExtension(t *testing.T) {
	// No extension: YAML content is detected by sniffing.
	path := writeFile(t, "corewatchrc", "buffer:\n  capacity: 42\n")
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if cfg.Buffer.Capacity != 42 {
		t.Fatalf("capacity = %d", cfg.Buffer.Capacity)
	}

	path = writeFile(t, "corewatchrc", `{"buffer":{"capacity":7}}`)
	cfg, err = NewManager(path).Load()
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if cfg.Buffer.Capacity != 7 {
		t.Fatalf("capacity = %d", cfg.Buffer.Capacity)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "config.yaml", "logging:\n  console: true\nbogus_section:\n  x: 1\n")
	m := NewManager(path)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestParseDurations(t *testing.T) {
	if _, err := ParseDurationField("x", "5s"); err != nil {
		t.Fatalf("valid duration: %v", err)
	}
	if _, err := ParseDurationField("x", "banana"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
	d, err := ParseDurationOrDefault("x", "", 3*time.Second)
	if err != nil || d != 3*time.Second {
		t.Fatalf("default = %v, err %v", d, err)
	}
}

func TestSubscribePublish(t *testing.T) {
	path := writeFile(t, "config.yaml", "logging:\n  console: true\n")
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}

	sub := m.Subscribe(1)
	m.publish(cfg)
	select {
	case got := <-sub:
		if got != cfg {
			t.Fatal("wrong config delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("publish never arrived")
	}

	// a slow subscriber gets the newest config, not the oldest
	m.publish(cfg)
	next := &Config{}
	m.publish(next)
	select {
	case got := <-sub:
		if got != next {
			t.Fatal("expected newest config after overflow")
		}
	case <-time.After(time.Second):
		t.Fatal("nothing delivered")
	}

	m.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
}

func TestHashSkipsUnchanged(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "INFO"}}
	if hashConfig(cfg) != hashConfig(&Config{Logging: LoggingConfig{Level: "INFO"}}) {
		t.Fatal("equal configs should hash equal")
	}
	if hashConfig(cfg) == hashConfig(&Config{Logging: LoggingConfig{Level: "DEBUG"}}) {
		t.Fatal("different configs should hash differently")
	}
}
