package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/internal/repository"
	"github.com/medrelay/telemed-api/pkg/errors"
)

// MaxFileSize caps uploaded file payloads at 10 MiB.
const MaxFileSize = 10 << 20

// Service is the append-only store for opaque chat and file payloads.
// Content arrives already encrypted by the clients and is stored exactly
// as received; nothing here decrypts, inspects, or transforms it.
type Service struct {
	sessions repository.SessionRepository
	chat     repository.ChatRepository
	files    repository.FileRepository
	logger   zerolog.Logger
}

func NewService(sessions repository.SessionRepository, chat repository.ChatRepository, files repository.FileRepository, logger zerolog.Logger) *Service {
	return &Service{
		sessions: sessions,
		chat:     chat,
		files:    files,
		logger:   logger,
	}
}

func (s *Service) AppendMessage(ctx context.Context, sessionID uuid.UUID, req *model.SendChatRequest) (*model.ChatMessage, error) {
	if req.EncryptedMessage == "" {
		return nil, errors.NewValidation("message is required")
	}
	if req.SenderID == "" {
		return nil, errors.NewValidation("senderId is required")
	}

	if err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sentAt := now
	if req.Timestamp != nil {
		sentAt = *req.Timestamp
	}
	encrypted := true
	if req.Encrypted != nil {
		encrypted = *req.Encrypted
	}

	msg := &model.ChatMessage{
		ID:         uuid.New(),
		SessionID:  sessionID,
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		Message:    req.EncryptedMessage,
		Encrypted:  encrypted,
		SentAt:     sentAt,
		CreatedAt:  now,
	}

	if err := s.chat.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	messages, err := s.chat.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	return messages, nil
}

func (s *Service) AppendFile(ctx context.Context, sessionID uuid.UUID, req *model.UploadFileRequest) (*model.SessionFile, error) {
	if req.FileName == "" {
		return nil, errors.NewValidation("fileName is required")
	}
	if req.EncryptedData == "" {
		return nil, errors.NewValidation("encryptedData is required")
	}
	if req.FileSize <= 0 {
		return nil, errors.NewValidation("fileSize is required")
	}
	if req.FileSize > MaxFileSize {
		return nil, errors.NewValidation("file size exceeds the 10 MiB limit")
	}

	if err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	uploadedAt := now
	if req.UploadedAt != nil {
		uploadedAt = *req.UploadedAt
	}
	encrypted := true
	if req.Encrypted != nil {
		encrypted = *req.Encrypted
	}

	file := &model.SessionFile{
		ID:            uuid.New(),
		SessionID:     sessionID,
		FileName:      req.FileName,
		FileType:      req.FileType,
		FileSize:      req.FileSize,
		EncryptedData: req.EncryptedData,
		IV:            req.IV,
		Encrypted:     encrypted,
		UploadedBy:    req.UploadedBy,
		UploadedAt:    uploadedAt,
		CreatedAt:     now,
	}

	if err := s.files.AppendFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *Service) ListFiles(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionFile, error) {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	files, err := s.files.ListFiles(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []*model.SessionFile{}
	}
	return files, nil
}

func (s *Service) requireSession(ctx context.Context, sessionID uuid.UUID) error {
	exists, err := s.sessions.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFound("session", nil)
	}
	return nil
}
