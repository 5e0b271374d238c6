package api

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gosimple/slug"

	"github.com/okian/levelup/internal/domain/activity"
	"github.com/okian/levelup/internal/domain/types"
)

// SubjectDependencies exposes the derived per-subject views.
type SubjectDependencies interface {
	Progression(ctx context.Context, subject string) (types.ProgressionView, error)
	Pool(ctx context.Context, subject string) (types.PoolView, error)
	Notifications(ctx context.Context, subject string, limit int) ([]types.Notification, error)
	Calendar(ctx context.Context, subject string, days int) ([]activity.Day, error)
	Weekly(ctx context.Context, subject string, weeks int) ([]activity.Week, error)
	Export(ctx context.Context, subject string, w io.Writer) error
}

// SubjectsHandler serves progression, pool and activity views.
type SubjectsHandler struct {
	deps SubjectDependencies
}

// NewSubjectsHandler creates a new subjects handler.
func NewSubjectsHandler(deps SubjectDependencies) *SubjectsHandler {
	return &SubjectsHandler{deps: deps}
}

// HandleProgression handles GET /subjects/{id}/progression.
func (h *SubjectsHandler) HandleProgression(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Progression(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_progression", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePool handles GET /subjects/{id}/pool.
func (h *SubjectsHandler) HandlePool(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Pool(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_pool", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleNotifications handles GET /subjects/{id}/notifications?limit=.
func (h *SubjectsHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_notifications"
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	feed, err := h.deps.Notifications(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// HandleCalendar handles GET /subjects/{id}/calendar?days=.
func (h *SubjectsHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_calendar"
	days, err := intQuery(r, "days", 0)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Calendar(r.Context(), r.PathValue("id"), days)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleWeekly handles GET /subjects/{id}/weekly?weeks=.
func (h *SubjectsHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weekly"
	weeks, err := intQuery(r, "weeks", 0)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Weekly(r.Context(), r.PathValue("id"), weeks)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleExport handles GET /subjects/{id}/export as a CSV download.
func (h *SubjectsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("id")
	var buf bytes.Buffer
	if err := h.deps.Export(r.Context(), subject, &buf); err != nil {
		writeError(w, r, Wrap("api.export", err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(subject)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// exportName is a header-safe file name for a subject's export.
func exportName(subject string) string {
	name := slug.Make(subject)
	if name == "" {
		name = "export"
	}
	return name + "-study-log.csv"
}
