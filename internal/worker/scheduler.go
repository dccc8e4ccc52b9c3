package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/queue"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
	"github.com/notifyhub/wishlist-watcher/internal/service"
)

// Checker runs one wishlist check. Implementations must let an in-flight
// check finish even when ctx is cancelled; ctx only bounds waits.
type Checker interface {
	Check(ctx context.Context, s domain.Streamer) service.Result
}

// Intervals is the minimum time between two checks of a streamer, per tier.
type Intervals struct {
	VIP    time.Duration
	High   time.Duration
	Normal time.Duration
}

func (iv Intervals) For(p domain.Priority) time.Duration {
	switch p {
	case domain.PriorityVIP:
		return iv.VIP
	case domain.PriorityHigh:
		return iv.High
	default:
		return iv.Normal
	}
}

// Config tunes the scheduler. Now and Sleep are optional; nil uses the wall
// clock and a cancellable timer.
type Config struct {
	Tick      time.Duration
	Intervals Intervals
	Pacing    Pacing
	Window    ActiveWindow

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Hooks are injected by main so the scheduler stays metrics-agnostic.
// Every field is optional (nil = no-op).
type Hooks struct {
	OnCheck      func(p domain.Priority, res service.Result, elapsed time.Duration)
	OnQueueDepth func(vip, high, normal int)
}

// Scheduler decides which streamers are due and feeds them, one at a time,
// to the Checker.
//
// A tick enqueues due streamers; a single drain loop empties the queue with
// tier-specific pauses in between. Ticks keep firing while a drain runs, so
// new VIP entries overtake queued normal ones.
type Scheduler struct {
	streamers repository.StreamerRepository
	checker   Checker
	q         *queue.PriorityQueue
	cfg       Config
	hooks     Hooks
	logger    *zap.Logger

	mu          sync.Mutex
	lastChecked map[string]time.Time
	lastTick    time.Time
	tracked     int
	current     string

	busy atomic.Bool
}

func NewScheduler(
	streamers repository.StreamerRepository,
	checker Checker,
	cfg Config,
	hooks Hooks,
	logger *zap.Logger,
) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	if hooks.OnCheck == nil {
		hooks.OnCheck = func(domain.Priority, service.Result, time.Duration) {}
	}
	if hooks.OnQueueDepth == nil {
		hooks.OnQueueDepth = func(int, int, int) {}
	}
	return &Scheduler{
		streamers:   streamers,
		checker:     checker,
		q:           queue.New(),
		cfg:         cfg,
		hooks:       hooks,
		logger:      logger,
		lastChecked: make(map[string]time.Time),
	}
}

// Run ticks every cfg.Tick and starts a drain whenever the queue has work.
// On cancellation it stops ticking and waits for the running drain, whose
// current check is allowed to finish.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("tick", s.cfg.Tick))

	var wg sync.WaitGroup
	kick := func() {
		if s.q.Len() == 0 || s.busy.Load() {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Drain(ctx)
		}()
	}

	s.Tick(ctx)
	kick()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping, waiting for in-flight check")
			wg.Wait()
			return
		case <-ticker.C:
			s.Tick(ctx)
			kick()
		}
	}
}

// Tick enqueues every tracked streamer whose tier interval has elapsed and
// returns how many were enqueued. Nothing is enqueued outside the active
// window. Duplicate nicknames (case-insensitive) keep their first occurrence.
//
// The last-checked time is stamped here rather than after the check so a
// streamer waiting in a long queue is not enqueued twice.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.cfg.Now()

	s.mu.Lock()
	s.lastTick = now
	s.mu.Unlock()

	if !s.cfg.Window.Contains(now) {
		s.logger.Debug("outside active window, skipping tick", zap.Int("utc_hour", now.UTC().Hour()))
		return 0
	}

	tracked, err := s.streamers.ListTracked(ctx)
	if err != nil {
		s.logger.Error("failed to list tracked streamers", zap.Error(err))
		return 0
	}

	seen := make(map[string]struct{}, len(tracked))
	enqueued := 0

	s.mu.Lock()
	for _, st := range tracked {
		key := st.NicknameKey()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if last, ok := s.lastChecked[st.ID]; ok && now.Sub(last) < s.cfg.Intervals.For(st.Priority.Normalize()) {
			continue
		}
		if s.q.Enqueue(queue.NewEntry(st)) {
			s.lastChecked[st.ID] = now
			enqueued++
		}
	}
	s.tracked = len(seen)
	s.mu.Unlock()

	if enqueued > 0 {
		s.logger.Debug("enqueued due streamers", zap.Int("count", enqueued), zap.Int("queue_len", s.q.Len()))
	}
	s.hooks.OnQueueDepth(s.q.Depths())
	return enqueued
}

// Snapshot is a point-in-time view of the scheduler for the status endpoint.
type Snapshot struct {
	Active     bool      `json:"active"`
	Busy       bool      `json:"busy"`
	Current    string    `json:"current,omitempty"`
	LastTick   time.Time `json:"last_tick"`
	Tracked    int       `json:"tracked"` // distinct nicknames seen by the last in-window tick
	QueueVIP   int       `json:"queue_vip"`
	QueueHigh  int       `json:"queue_high"`
	QueueTotal int       `json:"queue_total"`
}

func (s *Scheduler) Snapshot() Snapshot {
	vip, high, normal := s.q.Depths()

	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Active:     s.cfg.Window.Contains(s.cfg.Now()),
		Busy:       s.busy.Load(),
		Current:    s.current,
		LastTick:   s.lastTick,
		Tracked:    s.tracked,
		QueueVIP:   vip,
		QueueHigh:  high,
		QueueTotal: vip + high + normal,
	}
}

func (s *Scheduler) setCurrent(nickname string) {
	s.mu.Lock()
	s.current = nickname
	s.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
