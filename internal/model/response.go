package model

import "time"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Store        StoreHealth       `json:"store"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// StoreHealth represents record store connectivity status
type StoreHealth struct {
	Driver         string `json:"driver"`
	Status         string `json:"status"`
	Migration      string `json:"migration_version,omitempty"`
	ConnectionPool string `json:"connection_pool,omitempty"`
}

// Common error codes
const (
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeInvalidAmount          = "INVALID_AMOUNT"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeInternalError          = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidInput           = "INVALID_INPUT"
	ErrCodeDuplicateAccountNumber = "DUPLICATE_ACCOUNT_NUMBER"
	ErrCodeDuplicateEmail         = "DUPLICATE_EMAIL"
	ErrCodeStoreUnavailable       = "STORE_UNAVAILABLE"
)
