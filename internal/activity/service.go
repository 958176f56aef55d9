package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=activity
type Repository interface {
	CreateEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, limit int) ([]*Entry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log records an action. Failures are logged and swallowed so auditing never
// breaks the operation being audited.
func (s *Service) Log(ctx context.Context, userID uuid.UUID, action Action, format string, args ...any) {
	e := &Entry{
		UserID:  userID,
		Action:  action,
		Details: fmt.Sprintf(format, args...),
	}

	if err := s.repo.CreateEntry(ctx, e); err != nil {
		slog.Error("failed to record activity", "action", action, "user_id", userID, "error", err)
	}
}

// Recent returns the latest entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return s.repo.ListEntries(ctx, min(limit, MaxLimit))
}
