package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"chessd/pkg/claims"
	"chessd/pkg/reaper"
)

const muxVarJob string = "job"

type Reaper interface {
	Reap(ctx context.Context, job string) (int, error)
}

type AdminHandler struct {
	Reaper Reaper
	Logger *slog.Logger
}

func NewAdminHandler(r Reaper, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		Reaper: r,
		Logger: logger,
	}
}

// Reap runs one reaper job synchronously and reports how many games it
// removed. Partial failures still report the count with a 500.
func (h *AdminHandler) Reap(w http.ResponseWriter, r *http.Request) {
	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	job := mux.Vars(r)[muxVarJob]

	n, err := h.Reaper.Reap(r.Context(), job)
	if errors.Is(err, reaper.ErrUnknownJob) {
		writeError(w, http.StatusNotFound, typeMessage, err.Error())
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	if ok := writeJSONStatus(w, h.Logger, status, map[string]int{"deleted": n}); ok {
		h.Logger.Info("manual reap", "job", job, "deleted", n, "admin", c.Subject)
	}
}
