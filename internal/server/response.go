package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// envelope is the uniform JSON body every endpoint returns.
type envelope struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (s *Server) respondSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	utils.WriteJSONResponse(w, statusCode, envelope{
		Status:     "success",
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

func (s *Server) respondErrorMessage(w http.ResponseWriter, statusCode int, message string) {
	utils.WriteJSONResponse(w, statusCode, envelope{
		Status:     "error",
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
		Error:      message,
	})
}

// respondError maps a domain error to an HTTP status. Internal errors are
// logged with detail but reported generically in production.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.IsNotFoundError(err):
		s.respondErrorMessage(w, http.StatusNotFound, err.Error())
	case apperrors.IsValidationError(err), apperrors.IsBadRequestError(err):
		s.respondErrorMessage(w, http.StatusBadRequest, err.Error())
	case apperrors.IsRateLimitedError(err):
		s.respondErrorMessage(w, http.StatusTooManyRequests, err.Error())
	case apperrors.IsDuplicateError(err):
		s.respondErrorMessage(w, http.StatusConflict, err.Error())
	default:
		logger.FromContext(r.Context()).Error("Request failed", zap.Error(err))
		message := err.Error()
		if s.production {
			message = "internal server error"
		}
		s.respondErrorMessage(w, http.StatusInternalServerError, message)
	}
}

// decodeJSON parses the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %s", apperrors.ErrBadRequest, err.Error())
	}
	return nil
}
