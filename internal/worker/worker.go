package worker

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/queue"
	"github.com/notifyhub/wishlist-watcher/internal/service"
)

// Pacing is the pause after a check, chosen by the tier of the entry just
// processed. Normal-tier pauses are drawn uniformly from
// [NormalMin, NormalMax] so request timing toward the catalog is irregular.
type Pacing struct {
	VIP       time.Duration
	High      time.Duration
	NormalMin time.Duration
	NormalMax time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{
		VIP:       3 * time.Second,
		High:      5 * time.Second,
		NormalMin: 10 * time.Second,
		NormalMax: 15 * time.Second,
	}
}

func (p Pacing) After(prio domain.Priority) time.Duration {
	switch prio {
	case domain.PriorityVIP:
		return p.VIP
	case domain.PriorityHigh:
		return p.High
	}
	if p.NormalMax <= p.NormalMin {
		return p.NormalMin
	}
	return p.NormalMin + time.Duration(rand.Int64N(int64(p.NormalMax-p.NormalMin)+1))
}

// Drain processes queued entries one at a time until the queue is empty or
// ctx is cancelled. Only one drain runs at a time; a concurrent call returns
// immediately.
//
// The pause between entries is skipped when nothing is left to process.
// Cancellation interrupts the pause but never the check in progress.
//
// The queue is checked again after the busy flag is cleared: an entry
// enqueued while the last check ran would otherwise wait for the next tick,
// since a concurrent caller saw the flag set and backed off.
func (s *Scheduler) Drain(ctx context.Context) {
	for {
		if !s.busy.CompareAndSwap(false, true) {
			return
		}
		s.drainOnce(ctx)
		s.busy.Store(false)

		if ctx.Err() != nil || s.q.Len() == 0 {
			return
		}
	}
}

func (s *Scheduler) drainOnce(ctx context.Context) {
	for ctx.Err() == nil {
		e, ok := s.q.Dequeue()
		if !ok {
			return
		}
		s.hooks.OnQueueDepth(s.q.Depths())
		s.process(ctx, e)

		if s.q.Len() == 0 {
			return
		}
		if err := s.cfg.Sleep(ctx, s.cfg.Pacing.After(e.Priority)); err != nil {
			return
		}
	}
}

func (s *Scheduler) process(ctx context.Context, e queue.Entry) {
	start := time.Now()
	s.setCurrent(e.Streamer.Nickname)
	defer s.setCurrent("")

	res := s.checker.Check(ctx, e.Streamer)
	elapsed := time.Since(start)
	s.hooks.OnCheck(e.Priority, res, elapsed)

	log := s.logger.With(
		zap.String("streamer_id", e.Streamer.ID),
		zap.String("nickname", e.Streamer.Nickname),
		zap.String("tier", e.Priority.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.Duration("elapsed", elapsed),
	)
	switch res.Outcome {
	case service.OutcomeFetchFailed, service.OutcomeRateLimited, service.OutcomeStoreFailed, service.OutcomePersistFailed:
		log.Warn("wishlist check failed")
	default:
		log.Debug("wishlist check done", zap.Int("new_items", res.NewItems))
	}
}
