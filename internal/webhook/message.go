package webhook

import (
	"strings"
	"time"
)

// Category selects the destination URL (with fallback to the default)
// and the embed title/color used for a notification.
type Category string

const (
	CategoryAdmin     Category = "admin"
	CategoryChat      Category = "chat"
	CategoryPrivate   Category = "private"
	CategoryCommand   Category = "command"
	CategoryEconomy   Category = "economy"
	CategoryAntiCheat Category = "anticheat"
	CategoryClan      Category = "clan"
	CategoryReport    Category = "report"
	CategoryBounty    Category = "bounty"
)

const (
	maxDescription = 3500
	maxFieldName   = 64
	maxFieldValue  = 256
	maxFields      = 8
)

// Payload is the webhook request body (chat-app embed format).
type Payload struct {
	Embeds []Embed `json:"embeds"`
}

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Timestamp   string  `json:"timestamp"`
	Footer      Footer  `json:"footer"`
	Fields      []Field `json:"fields"`
}

type Footer struct {
	Text string `json:"text"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// sanitize neutralizes mass-mention tokens, trims, and caps the text
// length. Newlines are kept so the field extractor can still see them.
func sanitize(raw string) string {
	s := strings.ReplaceAll(raw, "@everyone", "@​everyone")
	s = strings.ReplaceAll(s, "@here", "@​here")
	s = strings.TrimSpace(s)
	if len(s) > maxDescription {
		return s[:maxDescription-3] + "..."
	}
	return s
}

// extractFields turns "name: value" lines into structured embed fields,
// capped at 8. Lines without a usable colon are skipped.
func extractFields(raw string) []Field {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []Field
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' }) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		idx := strings.Index(trimmed, ":")
		if idx <= 0 || idx >= len(trimmed)-1 {
			continue
		}
		name := strings.TrimSpace(trimmed[:idx])
		value := strings.TrimSpace(trimmed[idx+1:])
		if len(name) > maxFieldName {
			name = name[:maxFieldName]
		}
		if len(value) > maxFieldValue {
			value = value[:maxFieldValue]
		}
		if name != "" && value != "" {
			out = append(out, Field{Name: name, Value: value, Inline: true})
		}
		if len(out) >= maxFields {
			break
		}
	}
	return out
}

// formatDescription renders a multi-line body as bullets. Single-line and
// empty bodies pass through.
func formatDescription(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "(empty)"
	}
	lines := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(lines) <= 1 {
		return raw
	}
	var sb strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString("• ")
		sb.WriteString(strings.TrimSpace(line))
		sb.WriteByte('\n')
	}
	formatted := strings.TrimSpace(sb.String())
	if formatted == "" {
		return raw
	}
	return formatted
}

// buildPayload assembles the embed for an already-sanitized body.
func buildPayload(title, body string, color int, footer string, now time.Time) Payload {
	fields := extractFields(body)
	description := formatDescription(body)
	if len(fields) > 0 {
		description = "Details"
	}
	if fields == nil {
		fields = []Field{}
	}
	return Payload{Embeds: []Embed{{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Footer:      Footer{Text: footer},
		Fields:      fields,
	}}}
}
