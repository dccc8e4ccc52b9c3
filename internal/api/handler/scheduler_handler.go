package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/wishlist-watcher/internal/api/middleware"
	"github.com/notifyhub/wishlist-watcher/internal/coordination"
	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/worker"
)

// Scheduler is the part of *worker.Scheduler the API needs.
type Scheduler interface {
	Snapshot() worker.Snapshot
	Tick(ctx context.Context) int
}

// LockReader is the read side of repository.LockRepository.
type LockReader interface {
	Get(ctx context.Context) (*domain.SchedulerLock, error)
}

// LeaderState is satisfied by *coordination.Leader.
type LeaderState interface {
	State() coordination.State
}

// SchedulerHandler exposes a JSON view of the polling scheduler.
// Raw Prometheus metrics are served separately at /metrics.
type SchedulerHandler struct {
	sched      Scheduler
	leader     LeaderState
	lock       LockReader
	instanceID string
	logger     *zap.Logger
}

func NewSchedulerHandler(
	sched Scheduler,
	leader LeaderState,
	lock LockReader,
	instanceID string,
	logger *zap.Logger,
) *SchedulerHandler {
	return &SchedulerHandler{sched: sched, leader: leader, lock: lock, instanceID: instanceID, logger: logger}
}

type schedulerStatus struct {
	InstanceID string          `json:"instance_id"`
	LockState  string          `json:"lock_state"`
	LockHeld   bool            `json:"lock_held"`
	LockRow    *lockRow        `json:"lock_row"`
	Scheduler  worker.Snapshot `json:"scheduler"`
}

// lockRow is the stored lock as any instance sees it; nil when unowned.
type lockRow struct {
	Owner       string    `json:"owner"`
	AcquiredAt  time.Time `json:"acquired_at"`
	HeartbeatAt time.Time `json:"heartbeat_at"`
}

// GetStatus handles GET /api/v1/scheduler
func (h *SchedulerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	var row *lockRow
	l, err := h.lock.Get(r.Context())
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		h.logger.Error("read scheduler lock failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	default:
		row = &lockRow{Owner: l.InstanceID, AcquiredAt: l.AcquiredAt, HeartbeatAt: l.HeartbeatAt}
	}

	state := h.leader.State()
	respondJSON(w, http.StatusOK, schedulerStatus{
		InstanceID: h.instanceID,
		LockState:  state.String(),
		LockHeld:   state == coordination.StateHeld,
		LockRow:    row,
		Scheduler:  h.sched.Snapshot(),
	})
}

// Tick handles POST /api/v1/scheduler/tick: an immediate due-check, for
// operators who just changed a priority. Only the lock holder may tick.
func (h *SchedulerHandler) Tick(w http.ResponseWriter, r *http.Request) {
	if h.leader.State() != coordination.StateHeld {
		mapError(w, domain.ErrLockNotHeld)
		return
	}
	n := h.sched.Tick(r.Context())
	h.logger.Info("manual tick",
		zap.Int("enqueued", n),
		zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
	)
	respondJSON(w, http.StatusOK, map[string]int{"enqueued": n})
}
