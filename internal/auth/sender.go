package auth

import (
	"context"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/logger"
)

// CodeSender delivers a verification code to the user. Email/SMS providers are
// external collaborators; production wires a real sender here.
type CodeSender interface {
	Send(ctx context.Context, user *models.User, purpose, code string) error
}

// LogSender writes codes to the application log. Dev environments only.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender builds a sender that logs codes instead of delivering them.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, user *models.User, purpose, code string) error {
	if s.log != nil {
		ctx = s.log.WithFields(ctx, map[string]any{
			"email":   user.Email,
			"purpose": purpose,
			"code":    code,
		})
		s.log.Info(ctx, "verification code issued")
	}
	return nil
}
