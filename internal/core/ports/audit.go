package ports

import (
	"context"

	"github.com/servicedesk/session-gateway/internal/core/domain"
)

// AuthEventRepository persists the session audit trail.
type AuthEventRepository interface {
	Insert(ctx context.Context, event domain.AuthEvent) error
	Recent(ctx context.Context, limit int) ([]domain.AuthEvent, error)
}

// AuthEventSink accepts audit events for asynchronous recording.
type AuthEventSink interface {
	Record(event domain.AuthEvent)
}
