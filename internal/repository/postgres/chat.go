package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medrelay/telemed-api/internal/model"
)

func (r *chatRepository) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO session_chat_messages (
			id, session_id, sender_id, sender_name, message,
			encrypted, sent_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.SenderID,
		msg.SenderName,
		msg.Message,
		msg.Encrypted,
		msg.SentAt,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, session_id, sender_id, sender_name, message,
			   encrypted, sent_at, created_at
		FROM session_chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var messages []*model.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

func (r *fileRepository) AppendFile(ctx context.Context, file *model.SessionFile) error {
	query := `
		INSERT INTO session_files (
			id, session_id, file_name, file_type, file_size,
			encrypted_data, iv, encrypted, uploaded_by, uploaded_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID,
		file.SessionID,
		file.FileName,
		file.FileType,
		file.FileSize,
		file.EncryptedData,
		file.IV,
		file.Encrypted,
		file.UploadedBy,
		file.UploadedAt,
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append session file: %w", err)
	}
	return nil
}

func (r *fileRepository) ListFiles(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionFile, error) {
	query := `
		SELECT id, session_id, file_name, file_type, file_size,
			   encrypted_data, iv, encrypted, uploaded_by, uploaded_at, created_at
		FROM session_files
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var files []*model.SessionFile
	if err := r.db.SelectContext(ctx, &files, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}
	return files, nil
}
