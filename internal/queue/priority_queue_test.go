package queue_test

import (
	"sync"
	"testing"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/queue"
)

func entry(id string, p domain.Priority) queue.Entry {
	return queue.Entry{Streamer: domain.Streamer{ID: id, Nickname: id}, Priority: p}
}

func drain(q *queue.PriorityQueue) []string {
	var ids []string
	for {
		e, ok := q.Dequeue()
		if !ok {
			return ids
		}
		ids = append(ids, e.Streamer.ID)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPriorityQueue_BasicEnqueueDequeue(t *testing.T) {
	q := queue.New()

	if !q.Enqueue(entry("1", domain.PriorityNormal)) {
		t.Fatal("expected first enqueue to succeed")
	}

	got, ok := q.Dequeue()
	if !ok {
		t.Fatal("expected entry, got nothing")
	}
	if got.Streamer.ID != "1" {
		t.Fatalf("expected id=1, got %s", got.Streamer.ID)
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("expected empty queue")
	}
}

// TestPriorityQueue_TieredOrdering verifies that higher tiers enqueued later
// still come out first and that each tier keeps FIFO order.
func TestPriorityQueue_TieredOrdering(t *testing.T) {
	q := queue.New()

	q.Enqueue(entry("n1", domain.PriorityNormal))
	q.Enqueue(entry("h1", domain.PriorityHigh))
	q.Enqueue(entry("n2", domain.PriorityNormal))
	q.Enqueue(entry("v1", domain.PriorityVIP))
	q.Enqueue(entry("h2", domain.PriorityHigh))
	q.Enqueue(entry("v2", domain.PriorityVIP))

	want := []string{"v1", "v2", "h1", "h2", "n1", "n2"}
	if got := drain(q); !equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestPriorityQueue_DequeuedEntryNotPreempted verifies that once the head is
// taken, a later higher tier entry does not affect it.
func TestPriorityQueue_DequeuedEntryNotPreempted(t *testing.T) {
	q := queue.New()
	q.Enqueue(entry("n1", domain.PriorityNormal))
	q.Enqueue(entry("n2", domain.PriorityNormal))

	first, _ := q.Dequeue()
	q.Enqueue(entry("v1", domain.PriorityVIP))

	if first.Streamer.ID != "n1" {
		t.Fatalf("expected n1, got %s", first.Streamer.ID)
	}
	if got := drain(q); !equal(got, []string{"v1", "n2"}) {
		t.Fatalf("unexpected remaining order %v", got)
	}
}

func TestPriorityQueue_DuplicateEnqueueIsNoop(t *testing.T) {
	q := queue.New()

	if !q.Enqueue(entry("a", domain.PriorityNormal)) {
		t.Fatal("expected first enqueue to succeed")
	}
	if q.Enqueue(entry("a", domain.PriorityVIP)) {
		t.Fatal("expected duplicate enqueue to be rejected")
	}
	if q.Len() != 1 {
		t.Fatalf("expected len=1, got %d", q.Len())
	}

	q.Dequeue()
	if !q.Enqueue(entry("a", domain.PriorityNormal)) {
		t.Fatal("expected re-enqueue after dequeue to succeed")
	}
}

func TestPriorityQueue_UnknownPriorityTreatedAsNormal(t *testing.T) {
	q := queue.New()
	q.Enqueue(entry("x", 0))
	q.Enqueue(entry("h", domain.PriorityHigh))

	if got := drain(q); !equal(got, []string{"h", "x"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

// TestPriorityQueue_ConcurrentEnqueue verifies the membership set stays
// consistent when the tick and drain goroutines race.
func TestPriorityQueue_ConcurrentEnqueue(t *testing.T) {
	q := queue.New()

	const producers = 8
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range []string{"a", "b", "c", "d"} {
				q.Enqueue(entry(id, domain.PriorityHigh))
			}
		}()
	}
	wg.Wait()

	if q.Len() != 4 {
		t.Fatalf("expected 4 distinct entries, got %d", q.Len())
	}
}

func TestPriorityQueue_Depths(t *testing.T) {
	q := queue.New()

	q.Enqueue(entry("v", domain.PriorityVIP))
	q.Enqueue(entry("h1", domain.PriorityHigh))
	q.Enqueue(entry("h2", domain.PriorityHigh))
	q.Enqueue(entry("n", domain.PriorityNormal))

	vip, high, normal := q.Depths()
	if vip != 1 || high != 2 || normal != 1 {
		t.Fatalf("unexpected depths: vip=%d high=%d normal=%d", vip, high, normal)
	}
}
