package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler reports server and database health
type StatusHandler struct {
	db      Pinger
	timeout time.Duration
	now     func() time.Time
}

// NewStatusHandler creates a status handler; timeout bounds the database ping.
func NewStatusHandler(db Pinger, timeout time.Duration) *StatusHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StatusHandler{db: db, timeout: timeout, now: time.Now}
}

type statusResponse struct {
	Server    string    `json:"server"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// Status answers 200 when the database ping succeeds within the timeout and
// 500 otherwise.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := statusResponse{Server: "ok", Database: "ok", Timestamp: h.now().UTC()}
	if err := h.db.Ping(ctx); err != nil {
		log.Printf("Database status check failed: %v", err)
		resp.Database = "error"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
