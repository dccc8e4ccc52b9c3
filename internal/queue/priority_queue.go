package queue

import (
	"sync"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// PriorityQueue is an ordered backlog of streamer checks.
//
// Insertion is tiered rather than heap-based so that order within a tier is
// strictly FIFO:
//
//	VIP:    inserted after the existing VIP run, ahead of every lower tier
//	High:   inserted after the VIP and High runs, before the first normal entry
//	Normal: appended to the tail
//
// A streamer id is present at most once; membership is tracked in a set so
// duplicate enqueues are O(1) no-ops.
type PriorityQueue struct {
	mu      sync.Mutex
	entries []Entry
	members map[string]struct{}
}

func New() *PriorityQueue {
	return &PriorityQueue{members: make(map[string]struct{})}
}

// Enqueue inserts e at its tier position. It returns false without
// modifying the queue when the streamer is already queued.
func (q *PriorityQueue) Enqueue(e Entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.members[e.Streamer.ID]; ok {
		return false
	}
	e.Priority = e.Priority.Normalize()

	if e.Priority == domain.PriorityNormal {
		q.entries = append(q.entries, e)
	} else {
		q.insertAt(q.firstBelow(e.Priority), e)
	}

	q.members[e.Streamer.ID] = struct{}{}
	return true
}

// Dequeue removes and returns the head entry. ok is false when empty.
func (q *PriorityQueue) Dequeue() (e Entry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e = q.entries[0]
	q.entries[0] = Entry{}
	q.entries = q.entries[1:]
	delete(q.members, e.Streamer.ID)
	return e, true
}

func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Depths returns the current number of entries waiting in each tier.
// Used by the metrics hooks and the status endpoint.
func (q *PriorityQueue) Depths() (vip, high, normal int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		switch e.Priority {
		case domain.PriorityVIP:
			vip++
		case domain.PriorityHigh:
			high++
		default:
			normal++
		}
	}
	return vip, high, normal
}

// firstBelow returns the index of the first entry with a tier lower than p,
// or len(entries) if there is none. Caller holds mu.
func (q *PriorityQueue) firstBelow(p domain.Priority) int {
	for i, e := range q.entries {
		if e.Priority < p {
			return i
		}
	}
	return len(q.entries)
}

func (q *PriorityQueue) insertAt(i int, e Entry) {
	q.entries = append(q.entries, Entry{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = e
}
