package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrelay/telemed-api/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
	List(ctx context.Context, clinicID uuid.UUID, filters *model.SessionFilters) ([]*model.Session, error)
	// Exists is deliberately not tenant-scoped: the signaling path only
	// holds a session id (link-join patients carry no token).
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type ChatRepository interface {
	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error)
}

type FileRepository interface {
	AppendFile(ctx context.Context, file *model.SessionFile) error
	ListFiles(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionFile, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
}
