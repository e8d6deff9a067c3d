package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/repository"
)

// AnalyticsRecorder is the subset of the analytics sink used over HTTP
type AnalyticsRecorder interface {
	Record(ctx context.Context, e domain.AnalyticsEvent)
	Find(ctx context.Context, f repository.AnalyticsFilter) ([]domain.AnalyticsEvent, error)
}

// RecordEventRequest is a client-side telemetry event
type RecordEventRequest struct {
	EventName string         `json:"event_name" validate:"required,max=64,excludesall=\x00\n\r\t"`
	EventData map[string]any `json:"event_data,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	SessionID string         `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

// AnalyticsHandler serves analytics endpoints
type AnalyticsHandler struct {
	sink AnalyticsRecorder
}

// NewAnalyticsHandler creates an AnalyticsHandler
func NewAnalyticsHandler(sink AnalyticsRecorder) *AnalyticsHandler {
	return &AnalyticsHandler{sink: sink}
}

// HandleRecord accepts an event. Recording is fire-and-forget, so the
// response is 202 even if the event is later dropped.
// @Summary Record analytics event
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body RecordEventRequest true "Event"
// @Success 202 {object} SuccessResponse
// @Failure 400 {object} ValidationErrorResponse
// @Router /api/v1/analytics/events [post]
func (h *AnalyticsHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordEventRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Record event"); err != nil {
		return
	}

	e := domain.AnalyticsEvent{
		EventName: req.EventName,
		EventData: req.EventData,
		SessionID: req.SessionID,
	}
	if e.SessionID == "" {
		e.SessionID = logger.SessionIDFromContext(r.Context())
	}
	if req.Timestamp != nil {
		e.Timestamp = req.Timestamp.UTC()
	}

	h.sink.Record(r.Context(), e)
	respondJSON(w, http.StatusAccepted, SuccessResponse{Message: MsgEventAccepted})
}

// HandleFind reads recent events, newest first
// @Summary Query analytics events
// @Tags analytics
// @Produce json
// @Param event_name query string false "Event name"
// @Param session_id query string false "Session"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "Max events"
// @Success 200 {array} domain.AnalyticsEvent
// @Router /api/v1/analytics/events [get]
func (h *AnalyticsHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	limit, ok := GetIntQueryParam(r, w, "limit", 0)
	if !ok {
		return
	}

	f := repository.AnalyticsFilter{
		EventName: r.URL.Query().Get("event_name"),
		SessionID: r.URL.Query().Get("session_id"),
		Limit:     limit,
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf(ErrMsgInvalidQueryParam, "since"))
			return
		}
		f.Since = since
	}

	events, err := h.sink.Find(r.Context(), f)
	if err != nil {
		respondServiceError(w, r, "Find analytics events", err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}
