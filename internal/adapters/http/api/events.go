package api

import (
	"context"
	"net/http"

	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/types"
)

// SubmitDependencies accepts submissions for asynchronous recording.
type SubmitDependencies interface {
	SubmitPoints(ctx context.Context, subject string, req types.PointRequest) (types.Ack, error)
	SubmitDamage(ctx context.Context, subject string, req types.DamageRequest) (types.Ack, error)
}

// LogDependencies reads and edits the per-subject event logs.
type LogDependencies interface {
	History(ctx context.Context, subject string) ([]model.PointEvent, error)
	DamageHistory(ctx context.Context, subject string) ([]model.DamageEvent, error)
	Undo(ctx context.Context, subject string, kind model.Kind) (bool, error)
	Reset(ctx context.Context, subject string, kind model.Kind) error
}

// EventDependencies is everything the events handler needs.
type EventDependencies interface {
	SubmitDependencies
	LogDependencies
}

// EventsHandler handles event requests
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type undoResponse struct {
	Removed bool `json:"removed"`
}

// HandlePostPoints handles POST /subjects/{id}/points. An empty body records
// one press.
func (h *EventsHandler) HandlePostPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_points"
	var req types.PointRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	ack, err := h.deps.SubmitPoints(r.Context(), r.PathValue("id"), req)
	writeAck(w, r, op, ack, err)
}

// HandlePostDamage handles POST /subjects/{id}/damage.
func (h *EventsHandler) HandlePostDamage(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_damage"
	var req types.DamageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	ack, err := h.deps.SubmitDamage(r.Context(), r.PathValue("id"), req)
	writeAck(w, r, op, ack, err)
}

func writeAck(w http.ResponseWriter, r *http.Request, op string, ack types.Ack, err error) { //nolint:gocritic // hugeParam
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if ack.Status == types.StatusDuplicate {
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// HandleGetEvents handles GET /subjects/{id}/events.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_events", err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGetDamage handles GET /subjects/{id}/damage.
func (h *EventsHandler) HandleGetDamage(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.DamageHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_damage", err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleUndo handles DELETE /subjects/{id}/events/last?kind=.
func (h *EventsHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	const op = "api.undo"
	kind, err := kindQuery(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	removed, err := h.deps.Undo(r.Context(), r.PathValue("id"), kind)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{Removed: removed})
}

// HandleReset handles DELETE /subjects/{id}/events?kind=.
func (h *EventsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	kind, err := kindQuery(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.Reset(r.Context(), r.PathValue("id"), kind); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// kindQuery reads ?kind=, defaulting to the point log.
func kindQuery(r *http.Request) (model.Kind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return model.KindPoints, nil
	}
	return model.ParseKind(raw)
}
