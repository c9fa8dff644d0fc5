package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/service"
)

// accountResponse is the wire form of an account. Money is rendered with
// exactly two decimals.
type accountResponse struct {
	ID               uuid.UUID         `json:"id"`
	AccountNumber    string            `json:"account_number"`
	AccountHolder    string            `json:"account_holder"`
	Balance          string            `json:"balance"`
	AccountType      model.AccountType `json:"account_type"`
	AccountTypeLabel string            `json:"account_type_label"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	IsActive         bool              `json:"is_active"`
}

func newAccountResponse(a *model.Account) accountResponse {
	return accountResponse{
		ID:               a.ID,
		AccountNumber:    a.AccountNumber,
		AccountHolder:    a.AccountHolder,
		Balance:          a.Balance.StringFixed(model.MoneyScale),
		AccountType:      a.AccountType,
		AccountTypeLabel: a.AccountType.DisplayName(),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		IsActive:         a.IsActive,
	}
}

func newAccountListResponse(accounts []*model.Account) []accountResponse {
	out := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = newAccountResponse(a)
	}
	return out
}

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *service.AccountService, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Routes mounts the account endpoints
func (h *AccountHandler) Routes(r chi.Router) {
	r.Get("/", h.ListAccounts)
	r.Post("/", h.CreateAccount)
	r.Get("/number/{accountNumber}", h.GetAccountByNumber)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetAccount)
		r.Put("/", h.UpdateAccount)
		r.Delete("/", h.DeleteAccount)
		r.Post("/deposit", h.Deposit)
		r.Post("/withdraw", h.Withdraw)
	})
}

// AccountNumberRoutes mounts the account number utility endpoints
func (h *AccountHandler) AccountNumberRoutes(r chi.Router) {
	r.Post("/", h.GenerateAccountNumber)
	r.Get("/{number}/validate", h.ValidateAccountNumber)
}

// CreateAccount handles POST /v1/accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/v1/accounts/"+account.ID.String())
	writeJSON(w, http.StatusCreated, newAccountResponse(account))
}

// ListAccounts handles GET /v1/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAccountFilter(r.URL.Query())
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error(), model.ErrCodeInvalidInput)
		return
	}

	accounts, err := h.accountService.ListAccounts(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountListResponse(accounts))
}

// GetAccount handles GET /v1/accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := uuidParam(w, r, "id", "account")
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	// Set ETag for caching
	etag := fmt.Sprintf(`"%s-%d"`, account.ID.String(), account.UpdatedAt.UnixNano())
	w.Header().Set("ETag", etag)

	// Check If-None-Match header
	if ifNoneMatch := r.Header.Get("If-None-Match"); ifNoneMatch == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// GetAccountByNumber handles GET /v1/accounts/number/{accountNumber}
func (h *AccountHandler) GetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(chi.URLParam(r, "accountNumber"))
	if number == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Account number is required", model.ErrCodeInvalidInput)
		return
	}

	account, err := h.accountService.GetAccountByNumber(r.Context(), number)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// UpdateAccount handles PUT /v1/accounts/{id}
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := uuidParam(w, r, "id", "account")
	if !ok {
		return
	}

	var req model.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.UpdateAccount(r.Context(), accountID, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// DeleteAccount handles DELETE /v1/accounts/{id}
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := uuidParam(w, r, "id", "account")
	if !ok {
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), accountID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Deposit handles POST /v1/accounts/{id}/deposit
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.accountService.Deposit)
}

// Withdraw handles POST /v1/accounts/{id}/withdraw
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.accountService.Withdraw)
}

type amountOperation func(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error)

func (h *AccountHandler) applyAmount(w http.ResponseWriter, r *http.Request, op amountOperation) {
	accountID, ok := uuidParam(w, r, "id", "account")
	if !ok {
		return
	}

	var req model.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := op(r.Context(), accountID, req.Amount)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// GenerateAccountNumber handles POST /v1/account-numbers
func (h *AccountHandler) GenerateAccountNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.accountService.GenerateAccountNumber()
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AccountNumberResponse{AccountNumber: number, Valid: true})
}

// ValidateAccountNumber handles GET /v1/account-numbers/{number}/validate
func (h *AccountHandler) ValidateAccountNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	writeJSON(w, http.StatusOK, model.AccountNumberResponse{
		AccountNumber: number,
		Valid:         h.accountService.ValidateAccountNumber(number),
	})
}

// parseAccountFilter reads ?active, ?holder, ?minBalance and ?type
func parseAccountFilter(values url.Values) (model.AccountFilter, error) {
	var filter model.AccountFilter

	if activeStr := values.Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return filter, fmt.Errorf("invalid active parameter")
		}
		filter.ActiveOnly = active
	}

	filter.AccountHolder = strings.TrimSpace(values.Get("holder"))

	if minStr := values.Get("minBalance"); minStr != "" {
		minBalance, err := decimal.NewFromString(minStr)
		if err != nil {
			return filter, fmt.Errorf("invalid minBalance parameter")
		}
		filter.MinBalance = &minBalance
	}

	filter.AccountType = model.AccountType(strings.ToUpper(strings.TrimSpace(values.Get("type"))))

	return filter, nil
}
