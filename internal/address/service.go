package address

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the customer address book.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]Response, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Response, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (*Response, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an address service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]Response, 0, len(addresses))
	for i := range addresses {
		out = append(out, *toResponse(&addresses[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var created *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
		}

		// the first address becomes the default automatically
		isDefault := input.IsDefault || count == 0
		if isDefault && count > 0 {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}

		label := input.Label
		if label == "" {
			label = "Home"
		}
		address := &models.Address{
			UserID:     userID,
			Label:      label,
			Line1:      input.Line1,
			Line2:      input.Line2,
			City:       input.City,
			State:      input.State,
			PostalCode: input.PostalCode,
			Phone:      input.Phone,
			IsDefault:  isDefault,
		}
		created, err = repo.Create(ctx, address)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(created), nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if addressID == uuid.Nil {
		return nil, pkgerrors.Validation("address id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByIDForUser(ctx, addressID, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.NotFound("address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}

		updates := map[string]any{}
		if input.Label != nil {
			updates["label"] = *input.Label
		}
		if input.Line1 != nil {
			updates["line1"] = *input.Line1
		}
		if input.Line2 != nil {
			updates["line2"] = *input.Line2
		}
		if input.City != nil {
			updates["city"] = *input.City
		}
		if input.State != nil {
			updates["state"] = *input.State
		}
		if input.PostalCode != nil {
			updates["postal_code"] = *input.PostalCode
		}
		if input.Phone != nil {
			updates["phone"] = *input.Phone
		}
		if input.IsDefault != nil && *input.IsDefault != current.IsDefault {
			if *input.IsDefault {
				if err := repo.ClearDefault(ctx, userID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
				}
			}
			updates["is_default"] = *input.IsDefault
		}
		if len(updates) == 0 {
			return nil
		}
		if err := repo.Update(ctx, addressID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByIDForUser(ctx, addressID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload address")
	}
	return toResponse(updated), nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if addressID == uuid.Nil {
		return pkgerrors.Validation("address id required")
	}

	_, err := s.repo.FindByIDForUser(ctx, addressID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// deleting an absent entry is a no-op
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if err := s.repo.Delete(ctx, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}
