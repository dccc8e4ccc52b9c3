package domain

import (
	"fmt"
	"strings"
)

// Priority is the polling tier of a streamer. Higher values are polled more
// often and jump ahead of lower tiers in the queue.
type Priority int

const (
	PriorityNormal Priority = 1
	PriorityHigh   Priority = 2
	PriorityVIP    Priority = 3
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityVIP:
		return true
	}
	return false
}

// Normalize maps unknown tiers (including the zero value) to PriorityNormal.
func (p Priority) Normalize() Priority {
	if p.IsValid() {
		return p
	}
	return PriorityNormal
}

func (p Priority) String() string {
	switch p {
	case PriorityVIP:
		return "vip"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// ParsePriority converts a stored integer tier into a Priority.
func ParsePriority(v int) (Priority, error) {
	p := Priority(v)
	if !p.IsValid() {
		return 0, ErrUnknownPriority
	}
	return p, nil
}

// Streamer is a tracked remote profile whose wishlist is polled.
// LastChecked is intentionally absent: due-time tracking is in-memory only
// and owned by the scheduler.
type Streamer struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Nickname    string   `json:"nickname"`
	Priority    Priority `json:"priority"`
}

// NicknameKey is the case-insensitive identity of a streamer on the remote source.
func (s Streamer) NicknameKey() string {
	return strings.ToLower(strings.TrimSpace(s.Nickname))
}

// Name returns the display name, falling back to the nickname.
func (s Streamer) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Nickname
}
