package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/jacentio/tickets/ticket"
)

// Response is the body of every ticket route.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func (h *Handler) ok(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Response{Success: true, Data: data, Message: message})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("rejected request",
		"requestID", requestIDFrom(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := ticket.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"requestID", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind.String(),
			"error", err,
		)
	} else {
		h.logger.Info("request refused",
			"requestID", requestIDFrom(r.Context()),
			"path", r.URL.Path,
			"kind", kind.String(),
		)
	}
	writeJSON(w, status, Response{Message: message(kind, err)})
}

// statusOf maps an error kind to an HTTP status.
func statusOf(kind ticket.Kind) int {
	switch kind {
	case ticket.KindNotFound, ticket.KindNoRecordsFound:
		return http.StatusNotFound
	case ticket.KindValidation:
		return http.StatusBadRequest
	case ticket.KindParentCycle:
		return http.StatusConflict
	case ticket.KindCreationFailed:
		return http.StatusInternalServerError
	case ticket.KindTransientStorage:
		return http.StatusServiceUnavailable
	case ticket.KindTimeout:
		return http.StatusGatewayTimeout
	case ticket.KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// message is the client facing text for err. Unclassified errors are not
// echoed back since they may carry storage details.
func message(kind ticket.Kind, err error) string {
	switch kind {
	case ticket.KindUnknown:
		return "internal error"
	case ticket.KindTransientStorage:
		return "storage temporarily unavailable"
	case ticket.KindTimeout:
		return "request timed out"
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
