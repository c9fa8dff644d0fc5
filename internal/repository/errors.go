package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Repository errors
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrOperatorNotFound       = errors.New("operator not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrDuplicateAccountNumber = errors.New("account number already exists")
	ErrDuplicateEmail         = errors.New("operator email already exists")
	ErrInvalidAmount          = errors.New("invalid amount")
)

// Postgres SQLSTATE codes the stores translate into sentinels
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
