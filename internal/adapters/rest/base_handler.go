package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/philly/devtools-relay/internal/adapters/api"
	"github.com/philly/devtools-relay/internal/platform/apperror"
	"github.com/philly/devtools-relay/internal/platform/logger"
)

// maxBodyBytes caps request bodies; snapshots can be large.
const maxBodyBytes = 4 << 20

// BaseHandler contains common dependencies and helper methods for all handlers
type BaseHandler struct {
	logger logger.Logger
}

// NewBaseHandler creates a new base handler with common dependencies
func NewBaseHandler(logger logger.Logger) *BaseHandler {
	return &BaseHandler{
		logger: logger,
	}
}

// WriteJSONError writes a JSON error response in the api.Error shape
func (h *BaseHandler) WriteJSONError(w http.ResponseWriter, r *http.Request, code string, message string, statusCode int) {
	h.writeError(w, r, api.Error{Error: code, Message: message}, statusCode)
}

func (h *BaseHandler) writeError(w http.ResponseWriter, r *http.Request, body api.Error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error(r.Context(), "failed to encode error response",
			"error", err,
			"error_code", body.Error,
			"status_code", statusCode,
		)
	}
}

// WriteJSONResponse writes a successful JSON response
func (h *BaseHandler) WriteJSONResponse(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(r.Context(), "failed to encode response",
			"error", err,
			"status_code", statusCode,
		)
	}
}

// HandleError maps err to its AppError response. Anything that is not an
// AppError becomes a 500 whose cause is logged but never returned.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	body := api.Error{
		Error:   string(appErr.Code),
		Message: appErr.Message,
		Context: appErr.Details,
	}
	if appErr.BusinessCode != "" {
		bizCode := string(appErr.BusinessCode)
		body.BusinessCode = &bizCode
	}

	h.writeError(w, r, body, appErr.HTTPStatus)
}

// DecodeJSON reads the request body into dst. On failure it writes a 400 and
// returns false.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		message := "Invalid request body"
		if errors.Is(err, io.EOF) {
			message = "Request body is required"
		}
		h.HandleError(w, r, apperror.Wrap(err, apperror.CodeValidationFailed, apperror.BusinessCodeInvalidBody, message))
		return false
	}
	return true
}

// HandleParamError is the api.ChiServerOptions error handler for parameters
// that fail to bind.
func (h *BaseHandler) HandleParamError(w http.ResponseWriter, r *http.Request, err error) {
	h.HandleError(w, r, apperror.Wrap(err, apperror.CodeValidationFailed, apperror.BusinessCodeInvalidParameter, err.Error()))
}
