package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/api/handler"
	apimw "github.com/notifyhub/wishlist-watcher/internal/api/middleware"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
)

// Deps are the collaborators the HTTP surface reads from.
type Deps struct {
	DB         handler.Pinger
	Scheduler  handler.Scheduler
	Leader     handler.LeaderState
	Lock       handler.LockReader
	InstanceID string
	Recipients repository.RecipientRepository
	Streamers  repository.StreamerRepository
	Gatherer   prometheus.Gatherer
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(d Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestSize(64 << 10))
	r.Use(apimw.CorrelationID)
	r.Use(apimw.RequestLogger(logger, "/health", "/ready", "/metrics"))

	hh := handler.NewHealthHandler(d.DB)
	sh := handler.NewSchedulerHandler(d.Scheduler, d.Leader, d.Lock, d.InstanceID, logger)
	st := handler.NewSettingsHandler(d.Recipients, d.Streamers, logger)

	r.Get("/health", hh.Health)
	r.Get("/ready", hh.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/scheduler", sh.GetStatus)
		r.Post("/scheduler/tick", sh.Tick)

		r.Put("/streamers/{streamerID}/priority", st.PutPriority)

		r.Get("/users/{userID}/streamers/{streamerID}/settings", st.GetUser)
		r.Put("/users/{userID}/streamers/{streamerID}/settings", st.PutUser)
		r.Get("/groups/{groupID}/streamers/{streamerID}/settings", st.GetGroup)
		r.Put("/groups/{groupID}/streamers/{streamerID}/settings", st.PutGroup)
	})

	return r
}
