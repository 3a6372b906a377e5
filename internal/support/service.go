package support

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
	"github.com/sliceline/pizzeria-backend/pkg/pagination"
)

// Service exposes the public contact form and the staff triage queue.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Response, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	Resolve(ctx context.Context, messageID uuid.UUID, input ResolveInput) (*Response, error)
}

type service struct {
	repo Repository
}

// NewService builds a support service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("support repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*Response, error) {
	message := &models.ContactMessage{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:   input.Phone,
		Subject: strings.TrimSpace(input.Subject),
		Message: strings.TrimSpace(input.Message),
		Status:  enums.ContactStatusOpen,
	}
	created, err := s.repo.Create(ctx, message)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store contact message")
	}
	return toResponse(created), nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	if filters.Status != nil {
		if _, err := enums.ParseContactStatus(*filters.Status); err != nil {
			return nil, pkgerrors.Validation(fmt.Sprintf("invalid status filter %q", *filters.Status))
		}
	}

	messages, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contact messages")
	}

	limit := pagination.ClampLimit(params.Limit)
	var nextCursor *string
	if len(messages) > limit {
		last := messages[limit-1]
		cursor := (pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}).Token()
		nextCursor = &cursor
		messages = messages[:limit]
	}

	out := make([]Response, 0, len(messages))
	for i := range messages {
		out = append(out, *toResponse(&messages[i]))
	}
	return &List{Messages: out, NextCursor: nextCursor}, nil
}

func (s *service) Resolve(ctx context.Context, messageID uuid.UUID, input ResolveInput) (*Response, error) {
	if messageID == uuid.Nil {
		return nil, pkgerrors.Validation("message id required")
	}

	message, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.NotFound("contact message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact message")
	}
	if message.Status == enums.ContactStatusResolved {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "message already resolved")
	}

	updates := map[string]any{"status": enums.ContactStatusResolved}
	if input.Note != nil {
		updates["resolution_note"] = *input.Note
	}
	if err := s.repo.Update(ctx, messageID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve contact message")
	}

	resolved, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload contact message")
	}
	return toResponse(resolved), nil
}
