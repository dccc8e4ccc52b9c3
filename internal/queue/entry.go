package queue

import "github.com/notifyhub/wishlist-watcher/internal/domain"

// Entry is the transient queue record for one pending streamer check.
type Entry struct {
	Streamer domain.Streamer
	Priority domain.Priority
}

// NewEntry builds an entry from a streamer, normalising its tier.
func NewEntry(s domain.Streamer) Entry {
	p := s.Priority.Normalize()
	s.Priority = p
	return Entry{Streamer: s, Priority: p}
}
