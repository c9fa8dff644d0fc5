package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"banking-backoffice-api/internal/model"
)

const operatorColumns = `id, name, email, phone, is_active`

// OperatorRepository handles operator-related database operations
type OperatorRepository struct {
	db *sql.DB
}

var _ OperatorStore = (*OperatorRepository)(nil)

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

func scanOperator(row rowScanner) (*model.Operator, error) {
	operator := &model.Operator{}
	if err := row.Scan(
		&operator.ID,
		&operator.Name,
		&operator.Email,
		&operator.Phone,
		&operator.IsActive,
	); err != nil {
		return nil, err
	}
	return operator, nil
}

// Create inserts a new operator
func (r *OperatorRepository) Create(ctx context.Context, operator model.Operator) (*model.Operator, error) {
	query := `
		INSERT INTO operators (name, email, phone, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + operatorColumns

	created, err := scanOperator(r.db.QueryRowContext(ctx, query,
		operator.Name,
		operator.Email,
		operator.Phone,
		operator.IsActive,
	))
	if err != nil {
		if pqCode(err) == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}

	return created, nil
}

// GetByID retrieves an operator by its ID
func (r *OperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE id = $1`

	operator, err := scanOperator(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}

	return operator, nil
}

// GetByEmail retrieves an operator by email
func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE email = $1`

	operator, err := scanOperator(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to get operator by email: %w", err)
	}

	return operator, nil
}

// ExistsByEmail checks if an email is already registered
func (r *OperatorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM operators WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check operator existence: %w", err)
	}
	return exists, nil
}

// List returns every operator, or only the active ones, ordered by name
func (r *OperatorRepository) List(ctx context.Context, activeOnly bool) ([]*model.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name, email`

	return r.query(ctx, query)
}

// SearchByName returns the operators whose name contains name, ignoring case
func (r *OperatorRepository) SearchByName(ctx context.Context, name string) ([]*model.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY name, email`

	return r.query(ctx, query, escapeLike(name))
}

func (r *OperatorRepository) query(ctx context.Context, query string, args ...any) ([]*model.Operator, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	defer rows.Close()

	operators := make([]*model.Operator, 0)
	for rows.Next() {
		operator, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, operator)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operators: %w", err)
	}

	return operators, nil
}

// Mutate locks the operator row, applies fn and writes the result back
func (r *OperatorRepository) Mutate(ctx context.Context, id uuid.UUID, fn OperatorMutation) (*model.Operator, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be no-op if tx.Commit() succeeds

	query := `SELECT ` + operatorColumns + ` FROM operators WHERE id = $1 FOR UPDATE`
	current, err := scanOperator(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to get operator for update: %w", err)
	}

	next, err := fn(*current)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID

	update := `UPDATE operators SET name = $1, email = $2, phone = $3, is_active = $4 WHERE id = $5`
	if _, err := tx.ExecContext(ctx, update, next.Name, next.Email, next.Phone, next.IsActive, next.ID); err != nil {
		if pqCode(err) == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update operator: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit operator update: %w", err)
	}

	return &next, nil
}

// Delete permanently removes an operator
func (r *OperatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM operators WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operator: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOperatorNotFound
	}

	return nil
}

// Count returns the number of stored operators
func (r *OperatorRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count operators: %w", err)
	}
	return count, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
