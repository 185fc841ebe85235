// Package health provides the liveness endpoints both services expose at
// GET / and GET /health.
package health

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vouch/pkg/platform/httputil"
)

// Response is the health check body.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	WorkerID  string    `json:"workerId"`
}

// Handler reports process health along with the worker identity, so callers
// can tell which instance answered.
type Handler struct {
	workerID string
}

// New creates a health handler for the given worker.
func New(workerID string) *Handler {
	return &Handler{workerID: workerID}
}

// Register mounts the health routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleStatus)
	r.Get("/health", h.HandleStatus)
}

// HandleStatus answers GET / and GET /health.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		WorkerID:  h.workerID,
	})
}
