package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration-valued settings ("1500ms", "5s") stay strings in Config so the
// strict decoder accepts them from both YAML and JSON; these helpers do
// the actual parsing.

// ParseDurationField parses one duration setting. Empty or whitespace-only
// input means unset and yields zero without error.
func ParseDurationField(path, raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(trimmed)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: bad duration %q: %w", path, raw, err)
	case d < 0:
		// A negative window or timeout would silently disable the
		// mechanism it configures; reject it instead.
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault substitutes def when the setting is unset.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
