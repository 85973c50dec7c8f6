package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/medrelay/telemed-api/internal/repository"
)

type sessionRepository struct {
	db *sqlx.DB
}

type chatRepository struct {
	db *sqlx.DB
}

type fileRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

func NewFileRepository(db *sqlx.DB) repository.FileRepository {
	return &fileRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}
