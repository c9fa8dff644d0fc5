package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/notification"
	"banking-backoffice-api/internal/repository"
)

// OperatorService handles back-office operator management
type OperatorService struct {
	store    repository.OperatorStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewOperatorService creates a new operator service
func NewOperatorService(store repository.OperatorStore, notifier Notifier, logger *slog.Logger) *OperatorService {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OperatorService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOperator registers a new operator. Emails are unique.
func (s *OperatorService) CreateOperator(ctx context.Context, req *model.OperatorRequest) (*model.Operator, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	exists, err := s.store.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, storeError(err)
	}
	if exists {
		return nil, storeError(repository.ErrDuplicateEmail)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	operator, err := s.store.Create(ctx, model.Operator{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: active,
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("operator created", "operator_id", operator.ID, "email", operator.Email)
	s.notify(ctx, notification.OperatorCreated, operator.ID)

	return operator, nil
}

// GetOperator retrieves an operator by ID
func (s *OperatorService) GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	operator, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return operator, nil
}

// GetOperatorByEmail retrieves an operator by email, ignoring case
func (s *OperatorService) GetOperatorByEmail(ctx context.Context, email string) (*model.Operator, error) {
	operator, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, storeError(err)
	}
	return operator, nil
}

// ListOperators returns every operator, or only active ones
func (s *OperatorService) ListOperators(ctx context.Context, activeOnly bool) ([]*model.Operator, error) {
	operators, err := s.store.List(ctx, activeOnly)
	if err != nil {
		return nil, storeError(err)
	}
	return operators, nil
}

// SearchOperators finds operators whose name contains name, ignoring case
func (s *OperatorService) SearchOperators(ctx context.Context, name string) ([]*model.Operator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ServiceError{
			Code:    model.ErrCodeInvalidInput,
			Message: "Search name is required",
		}
	}

	operators, err := s.store.SearchByName(ctx, name)
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Debug("operators searched", "name", name, "count", len(operators))
	return operators, nil
}

// UpdateOperator overwrites an operator. A changed email is checked against
// the other operators by the store's unique index.
func (s *OperatorService) UpdateOperator(ctx context.Context, id uuid.UUID, req *model.OperatorRequest) (*model.Operator, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	operator, err := s.store.Mutate(ctx, id, func(current model.Operator) (model.Operator, error) {
		current.Name = req.Name
		current.Email = req.Email
		current.Phone = req.Phone
		if req.IsActive != nil {
			current.IsActive = *req.IsActive
		}
		return current, nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("operator updated", "operator_id", operator.ID)
	s.notify(ctx, notification.OperatorUpdated, operator.ID)

	return operator, nil
}

// DeleteOperator permanently removes an operator
func (s *OperatorService) DeleteOperator(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err)
	}

	s.logger.Info("operator deleted", "operator_id", id)
	s.notify(ctx, notification.OperatorDeleted, id)

	return nil
}

// Count returns the number of stored operators
func (s *OperatorService) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, storeError(err)
	}
	return count, nil
}

func (s *OperatorService) notify(ctx context.Context, typ notification.EventType, id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notifier panicked", "type", typ, "operator_id", id, "panic", r)
		}
	}()

	s.notifier.Notify(ctx, notification.Event{
		Type:       typ,
		OperatorID: id,
		OccurredAt: s.now(),
	})
}
