package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/logger"
)

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse defines the response structure for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs a failed operation and writes the mapped response.
// Schema violations carry their per-field messages back to the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, opName string, err error) {
	log := logger.FromContext(r.Context())
	status, msg := mapServiceErrorToUserMessage(err)
	if status >= http.StatusInternalServerError {
		log.Error(opName+" failed", "error", err)
	} else {
		log.Warn(opName+" rejected", "error", err, "status", status)
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, status, ValidationErrorResponse{Error: msg, Fields: verr.Fields})
		return
	}
	respondError(w, status, msg)
}

// specificMessages gives friendlier text for errors players commonly hit.
// Order matters only for readability: every entry is a distinct sentinel.
var specificMessages = []struct {
	err error
	msg string
}{
	{domain.ErrPlayerNotFound, ErrMsgPlayerNotFound},
	{domain.ErrPlayerArchived, ErrMsgPlayerArchived},
	{domain.ErrListingNotFound, ErrMsgListingNotFound},
	{domain.ErrListingNotActive, ErrMsgListingNotActive},
	{domain.ErrInsufficientFunds, ErrMsgNotEnoughMoney},
	{domain.ErrInsufficientQuantity, ErrMsgNotEnoughItems},
	{domain.ErrSelfPurchase, ErrMsgSelfPurchase},
	{domain.ErrNotListingOwner, ErrMsgNotListingOwner},
	{domain.ErrGuildNotFound, ErrMsgGuildNotFound},
	{domain.ErrGuildFull, ErrMsgGuildFull},
	{domain.ErrAlreadyInGuild, ErrMsgAlreadyInGuild},
	{domain.ErrAlreadyGuildMember, ErrMsgAlreadyGuildMember},
	{domain.ErrNotGuildMember, ErrMsgNotGuildMember},
	{domain.ErrLeaderMustTransfer, ErrMsgLeaderMustTransfer},
	{domain.ErrNotGuildLeader, ErrMsgNotGuildLeader},
	{domain.ErrNotTreasurer, ErrMsgNotTreasurer},
	{domain.ErrApplicationRequired, ErrMsgApplicationNeeded},
	{domain.ErrLevelTooLow, ErrMsgLevelTooLow},
	{domain.ErrInsufficientTreasury, ErrMsgTreasuryTooLow},
	{domain.ErrWorldNotFound, ErrMsgWorldNotFound},
}

// mapServiceErrorToUserMessage maps domain errors to HTTP status codes and
// user-facing messages. The status follows the error kind; the message is
// the most specific one known.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	status, generic := statusForKind(err)
	if status == http.StatusInternalServerError {
		return status, generic
	}
	for _, m := range specificMessages {
		if errors.Is(err, m.err) {
			return status, m.msg
		}
	}
	return status, generic
}

func statusForKind(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, ErrMsgValidationFailed
	case errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict, ErrMsgAlreadyExists
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrMsgConcurrentUpdate
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusUnprocessableEntity, ErrMsgPreconditionFailed
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, ErrMsgInvalidStateError
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrMsgResourceNotFound
	}
	return http.StatusInternalServerError, ErrMsgGenericServerError
}
