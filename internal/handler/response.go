package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/service"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, model.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var serviceErr *service.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Code {
		case model.ErrCodeNotFound:
			writeErrorResponse(w, http.StatusNotFound, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeValidation, model.ErrCodeInvalidAmount, model.ErrCodeInvalidInput:
			writeErrorResponse(w, http.StatusBadRequest, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeInsufficientFunds:
			writeErrorResponse(w, http.StatusUnprocessableEntity, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeDuplicateAccountNumber, model.ErrCodeDuplicateEmail:
			writeErrorResponse(w, http.StatusConflict, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeStoreUnavailable:
			logger.ErrorContext(r.Context(), "record store unavailable", "path", r.URL.Path, "error", serviceErr.Err)
			writeErrorResponse(w, http.StatusServiceUnavailable, serviceErr.Message, serviceErr.Code)
		default:
			logger.ErrorContext(r.Context(), "unhandled service error", "path", r.URL.Path, "code", serviceErr.Code, "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", model.ErrCodeInternalError)
		}
		return
	}

	// Unknown error
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", model.ErrCodeInternalError)
}

// decodeJSON reads a single JSON object from the request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeErrorResponse(w, http.StatusBadRequest, "Request body is required", model.ErrCodeInvalidInput)
			return false
		}
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", model.ErrCodeInvalidInput)
		return false
	}
	return true
}

// uuidParam parses the named URL parameter as a UUID
func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid "+label+" ID format", model.ErrCodeInvalidInput)
		return uuid.Nil, false
	}
	return id, true
}
