package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/service"
)

// OperatorHandler handles operator-related HTTP requests
type OperatorHandler struct {
	operatorService *service.OperatorService
	logger          *slog.Logger
}

// NewOperatorHandler creates a new operator handler
func NewOperatorHandler(operatorService *service.OperatorService, logger *slog.Logger) *OperatorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperatorHandler{
		operatorService: operatorService,
		logger:          logger,
	}
}

// Routes mounts the operator endpoints
func (h *OperatorHandler) Routes(r chi.Router) {
	r.Get("/", h.ListOperators)
	r.Post("/", h.CreateOperator)
	r.Get("/search", h.SearchOperators)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetOperator)
		r.Put("/", h.UpdateOperator)
		r.Delete("/", h.DeleteOperator)
	})
}

// CreateOperator handles POST /v1/operators
func (h *OperatorHandler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var req model.OperatorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	operator, err := h.operatorService.CreateOperator(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/v1/operators/"+operator.ID.String())
	writeJSON(w, http.StatusCreated, operator)
}

// ListOperators handles GET /v1/operators
func (h *OperatorHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if activeStr := r.URL.Query().Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "invalid active parameter", model.ErrCodeInvalidInput)
			return
		}
		activeOnly = active
	}

	operators, err := h.operatorService.ListOperators(r.Context(), activeOnly)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, operators)
}

// SearchOperators handles GET /v1/operators/search?name=
func (h *OperatorHandler) SearchOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.operatorService.SearchOperators(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, operators)
}

// GetOperator handles GET /v1/operators/{id}
func (h *OperatorHandler) GetOperator(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := uuidParam(w, r, "id", "operator")
	if !ok {
		return
	}

	operator, err := h.operatorService.GetOperator(r.Context(), operatorID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, operator)
}

// UpdateOperator handles PUT /v1/operators/{id}
func (h *OperatorHandler) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := uuidParam(w, r, "id", "operator")
	if !ok {
		return
	}

	var req model.OperatorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	operator, err := h.operatorService.UpdateOperator(r.Context(), operatorID, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, operator)
}

// DeleteOperator handles DELETE /v1/operators/{id}
func (h *OperatorHandler) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := uuidParam(w, r, "id", "operator")
	if !ok {
		return
	}

	if err := h.operatorService.DeleteOperator(r.Context(), operatorID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
