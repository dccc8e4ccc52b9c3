package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/fetcher"
	"github.com/notifyhub/wishlist-watcher/internal/policy"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
)

// Outcome labels the result of a single wishlist check.
type Outcome string

const (
	OutcomeFetchFailed   Outcome = "fetch_failed"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeUnsuccessful  Outcome = "unsuccessful"
	OutcomeStoreFailed   Outcome = "store_failed"
	OutcomeAnomaly       Outcome = "anomaly"
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeColdStart     Outcome = "cold_start"
	OutcomeNotified      Outcome = "notified"
	OutcomePersistFailed Outcome = "persist_failed"
)

// Result is what Check reports back to the scheduler.
type Result struct {
	Outcome  Outcome
	Guard    policy.Guard
	NewItems int
	Attempts int
	Fanout   FanoutResult
}

// DefaultRateLimitBackoff is the wait before each extra fetch attempt after a
// rate-limit rejection.
var DefaultRateLimitBackoff = []time.Duration{10 * time.Second, 20 * time.Second}

// CheckService runs one wishlist check: fetch, guard, diff, notify, persist.
// The scheduler depends on this service; it knows nothing about storage or
// delivery.
type CheckService struct {
	fetcher    fetcher.Fetcher
	items      repository.ItemRepository
	fanout     *Fanout
	thresholds policy.Thresholds
	backoff    []time.Duration
	logger     *zap.Logger

	// onRetry is optional (nil = no-op); called before each backoff wait.
	onRetry func()
}

func NewCheckService(
	f fetcher.Fetcher,
	items repository.ItemRepository,
	fanout *Fanout,
	thresholds policy.Thresholds,
	backoff []time.Duration,
	logger *zap.Logger,
	onRetry func(),
) *CheckService {
	if onRetry == nil {
		onRetry = func() {}
	}
	return &CheckService{
		fetcher:    f,
		items:      items,
		fanout:     fanout,
		thresholds: thresholds,
		backoff:    backoff,
		logger:     logger,
		onRetry:    onRetry,
	}
}

// Check polls one streamer.
//
// ctx only bounds the rate-limit backoff waits. Once started, the fetch,
// delivery and persistence steps run to completion even if ctx is cancelled,
// so a shutdown never leaves a snapshot half-applied.
//
// Order matters: notifications go out before the new snapshot is stored. A
// crash in between re-notifies on the next check instead of losing items.
func (s *CheckService) Check(ctx context.Context, st domain.Streamer) Result {
	work := context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("streamer_id", st.ID), zap.String("nickname", st.Nickname))

	snap, attempts, err := s.fetch(ctx, work, st.NicknameKey())
	res := Result{Attempts: attempts}
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			log.Warn("wishlist fetch rate limited, giving up", zap.Int("attempts", attempts))
			res.Outcome = OutcomeRateLimited
			return res
		}
		log.Warn("wishlist fetch failed", zap.Error(err))
		res.Outcome = OutcomeFetchFailed
		return res
	}
	if !snap.Success {
		log.Debug("wishlist source reported an unsuccessful fetch")
		res.Outcome = OutcomeUnsuccessful
		return res
	}

	fetched := dropKeyless(snap.Items)
	if dropped := len(snap.Items) - len(fetched); dropped > 0 {
		log.Warn("ignoring wishlist items without product or external id", zap.Int("dropped", dropped))
	}

	stored, err := s.items.GetStored(work, st.ID)
	if err != nil {
		log.Error("failed to load stored wishlist", zap.Error(err))
		res.Outcome = OutcomeStoreFailed
		return res
	}

	decision := policy.Evaluate(stored, fetched, s.thresholds)
	if !decision.Trusted() {
		log.Warn("wishlist snapshot rejected",
			zap.String("guard", string(decision.Skip)),
			zap.Int("stored", len(stored)),
			zap.Int("fetched", len(fetched)),
		)
		res.Outcome = OutcomeAnomaly
		res.Guard = decision.Skip
		return res
	}
	res.NewItems = len(decision.NewItems)

	switch {
	case decision.ColdStart:
		log.Info("cold start, storing baseline without notifying", zap.Int("items", len(fetched)))
		res.Outcome = OutcomeColdStart
	case decision.ShouldNotify():
		res.Fanout = s.fanout.Notify(work, st, decision.NewItems)
		log.Info("new wishlist items announced",
			zap.Int("new_items", res.NewItems),
			zap.Int("sent", res.Fanout.Sent),
			zap.Int("failed", res.Fanout.Failed),
		)
		res.Outcome = OutcomeNotified
	default:
		res.Outcome = OutcomeUnchanged
	}

	if err := s.items.PersistSnapshot(work, st.ID, fetched); err != nil {
		log.Error("failed to persist wishlist snapshot", zap.Error(err))
		res.Outcome = OutcomePersistFailed
	}
	return res
}

// fetch calls the fetcher, retrying rate-limit rejections once per backoff
// entry. Other errors are returned immediately.
func (s *CheckService) fetch(ctx, work context.Context, nickname string) (fetcher.Snapshot, int, error) {
	attempts := 0
	for {
		attempts++
		snap, err := s.fetcher.Fetch(work, nickname)
		if err == nil || !errors.Is(err, domain.ErrRateLimited) {
			return snap, attempts, err
		}
		if attempts > len(s.backoff) {
			return fetcher.Snapshot{}, attempts, err
		}

		if ctx.Err() != nil {
			return fetcher.Snapshot{}, attempts, err
		}
		s.onRetry()
		timer := time.NewTimer(s.backoff[attempts-1])
		select {
		case <-ctx.Done():
			timer.Stop()
			return fetcher.Snapshot{}, attempts, err
		case <-timer.C:
		}
	}
}

// dropKeyless removes items carrying no identifier. They would never match
// a stored row and so would be announced as new on every check.
func dropKeyless(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if !it.Key.IsZero() {
			out = append(out, it)
		}
	}
	return out
}
