// Package domain defines the audit event model: what happened, who triggered it and
// on what, with a small string map of details. Events never carry key material.
package domain

import (
	"strings"
	"time"
	"unicode"
)

// MaxEntries is the retention cap of the audit log. Appending beyond it drops the oldest events.
const MaxEntries = 200

// maxFieldLength bounds source, target and detail values.
const maxFieldLength = 512

// Event is a single audit record.
type Event struct {
	Timestamp time.Time
	Action    string
	Source    string
	Target    string
	Details   map[string]string
	Signature []byte
}

// NewEvent builds a sanitized event stamped with now (converted to UTC).
func NewEvent(action, source, target string, details map[string]string, now time.Time) Event {
	event := Event{
		Timestamp: now.UTC(),
		Action:    SanitizeAction(action),
		Source:    SanitizeText(source),
		Target:    SanitizeText(target),
	}

	if len(details) > 0 {
		event.Details = make(map[string]string, len(details))
		for k, v := range details {
			key := SanitizeAction(k)
			if key == "" {
				continue
			}
			event.Details[key] = SanitizeText(v)
		}
	}

	return event
}

// SanitizeAction lowercases an action code and keeps only [a-z0-9_-].
func SanitizeAction(action string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(action)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeText drops control characters, trims whitespace and caps the length.
func SanitizeText(value string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxFieldLength {
		cut := maxFieldLength
		for cut > 0 && !utf8Start(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
	}
	return cleaned
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

// Prepend inserts event at the head of events (newest first) and truncates the
// result to max entries. The input slice is not modified.
func Prepend(events []Event, event Event, max int) []Event {
	if max <= 0 {
		max = MaxEntries
	}

	size := len(events) + 1
	if size > max {
		size = max
	}

	out := make([]Event, 0, size)
	out = append(out, event)
	for _, e := range events {
		if len(out) == size {
			break
		}
		out = append(out, e)
	}
	return out
}
