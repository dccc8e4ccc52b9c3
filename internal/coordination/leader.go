package coordination

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/repository"
)

// State is the leader's view of the scheduler lock.
type State int32

const (
	StateUnlocked State = iota
	StateAcquiring
	StateHeld
	StateWaitingRetry
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateAcquiring:
		return "acquiring"
	case StateHeld:
		return "held"
	case StateWaitingRetry:
		return "waiting_retry"
	case StateStopped:
		return "stopped"
	default:
		return "unlocked"
	}
}

// releaseTimeout bounds the lock release on shutdown.
const releaseTimeout = 5 * time.Second

type Config struct {
	InstanceID        string
	HeartbeatInterval time.Duration
	RetryInterval     time.Duration
}

// Leader makes sure only one instance runs the scheduler at a time.
//
// It keeps trying to take the lock, runs the work function while holding it
// and renews the heartbeat on a fixed cadence. Renewal errors are logged and
// otherwise ignored: a missed heartbeat only brings a takeover closer. A
// renewal that reports the row now belongs to someone else stops the work
// and sends the leader back to retrying.
type Leader struct {
	repo   repository.LockRepository
	cfg    Config
	logger *zap.Logger
	state  atomic.Int32

	// onHeld is optional (nil = no-op); called on every held/not-held change.
	onHeld func(held bool)
}

func NewLeader(repo repository.LockRepository, cfg Config, logger *zap.Logger, onHeld func(bool)) *Leader {
	if onHeld == nil {
		onHeld = func(bool) {}
	}
	return &Leader{
		repo:   repo,
		cfg:    cfg,
		logger: logger.With(zap.String("instance_id", cfg.InstanceID)),
		onHeld: onHeld,
	}
}

func (l *Leader) State() State { return State(l.state.Load()) }

func (l *Leader) IsHeld() bool { return l.State() == StateHeld }

// Run blocks until ctx is cancelled. work receives a context that is
// cancelled when the lock is lost or on shutdown; Run waits for work to
// return before releasing the lock.
func (l *Leader) Run(ctx context.Context, work func(ctx context.Context)) {
	defer l.setState(StateStopped)

	for {
		l.setState(StateAcquiring)
		ok, err := l.repo.TryAcquire(ctx, l.cfg.InstanceID)
		if err != nil && ctx.Err() == nil {
			l.logger.Warn("lock acquisition failed", zap.Error(err))
		}

		if ok {
			l.logger.Info("scheduler lock acquired")
			if !l.hold(ctx, work) {
				return
			}
		} else if err == nil {
			l.logger.Debug("scheduler lock held elsewhere, will retry", zap.Duration("retry_in", l.cfg.RetryInterval))
		}

		l.setState(StateWaitingRetry)
		if !wait(ctx, l.cfg.RetryInterval) {
			return
		}
	}
}

// hold runs work under the lock. It returns true when ownership was lost and
// false when ctx was cancelled.
func (l *Leader) hold(ctx context.Context, work func(ctx context.Context)) bool {
	l.setState(StateHeld)
	l.onHeld(true)
	defer l.onHeld(false)

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		work(workCtx)
	}()

	ticker := time.NewTicker(l.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if done != nil {
				<-done
			}
			l.release(ctx)
			return false

		case <-done:
			// work gave up on its own; keep the lock until shutdown so no
			// other instance starts polling behind our back.
			done = nil

		case <-ticker.C:
			ok, err := l.repo.Renew(ctx, l.cfg.InstanceID)
			if err != nil {
				l.logger.Warn("lock heartbeat failed", zap.Error(err))
				continue
			}
			if !ok {
				l.logger.Warn("scheduler lock lost to another instance, stopping work")
				cancel()
				if done != nil {
					<-done
				}
				l.setState(StateUnlocked)
				return true
			}
		}
	}
}

func (l *Leader) release(ctx context.Context) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := l.repo.Release(rctx, l.cfg.InstanceID); err != nil {
		l.logger.Error("failed to release scheduler lock", zap.Error(err))
		return
	}
	l.logger.Info("scheduler lock released")
}

func (l *Leader) setState(s State) { l.state.Store(int32(s)) }

func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
