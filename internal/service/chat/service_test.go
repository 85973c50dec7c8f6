package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/pkg/errors"
)

type fakeSessionRepo struct {
	known map[uuid.UUID]bool
}

func (r *fakeSessionRepo) Create(context.Context, *model.Session) error { return nil }
func (r *fakeSessionRepo) Get(context.Context, uuid.UUID, uuid.UUID) (*model.Session, error) {
	return nil, errors.NewNotFound("session", nil)
}
func (r *fakeSessionRepo) Update(context.Context, *model.Session) error { return nil }
func (r *fakeSessionRepo) List(context.Context, uuid.UUID, *model.SessionFilters) ([]*model.Session, error) {
	return nil, nil
}
func (r *fakeSessionRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.known[id], nil
}

type fakeChatRepo struct {
	messages []*model.ChatMessage
}

func (r *fakeChatRepo) AppendMessage(_ context.Context, msg *model.ChatMessage) error {
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeChatRepo) ListMessages(_ context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	var out []*model.ChatMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeFileRepo struct {
	files []*model.SessionFile
}

func (r *fakeFileRepo) AppendFile(_ context.Context, file *model.SessionFile) error {
	r.files = append(r.files, file)
	return nil
}

func (r *fakeFileRepo) ListFiles(_ context.Context, sessionID uuid.UUID) ([]*model.SessionFile, error) {
	var out []*model.SessionFile
	for _, f := range r.files {
		if f.SessionID == sessionID {
			out = append(out, f)
		}
	}
	return out, nil
}

func newTestService(sessionID uuid.UUID) (*Service, *fakeChatRepo, *fakeFileRepo) {
	chatRepo := &fakeChatRepo{}
	fileRepo := &fakeFileRepo{}
	sessions := &fakeSessionRepo{known: map[uuid.UUID]bool{sessionID: true}}
	return NewService(sessions, chatRepo, fileRepo, zerolog.Nop()), chatRepo, fileRepo
}

func TestAppendMessageStoresCiphertextVerbatim(t *testing.T) {
	sessionID := uuid.New()
	svc, chatRepo, _ := newTestService(sessionID)

	// Opaque client-side ciphertext. The store must never touch it.
	payload := "gAAAAABkx7==:9f2c:opaque-client-ciphertext"
	msg, err := svc.AppendMessage(context.Background(), sessionID, &model.SendChatRequest{
		EncryptedMessage: payload,
		SenderID:         "doctor-42",
		SenderName:       "Dr. Reyes",
	})
	require.NoError(t, err)

	assert.Equal(t, payload, msg.Message)
	assert.True(t, msg.Encrypted)
	assert.Equal(t, sessionID, msg.SessionID)
	require.Len(t, chatRepo.messages, 1)
	assert.Equal(t, payload, chatRepo.messages[0].Message)
}

func TestAppendMessageValidation(t *testing.T) {
	sessionID := uuid.New()
	svc, _, _ := newTestService(sessionID)
	ctx := context.Background()

	_, err := svc.AppendMessage(ctx, sessionID, &model.SendChatRequest{SenderID: "doctor-42"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))

	_, err = svc.AppendMessage(ctx, sessionID, &model.SendChatRequest{EncryptedMessage: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}

func TestAppendMessageUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(uuid.New())

	_, err := svc.AppendMessage(context.Background(), uuid.New(), &model.SendChatRequest{
		EncryptedMessage: "x",
		SenderID:         "doctor-42",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestAppendMessageHonorsClientTimestampAndFlag(t *testing.T) {
	sessionID := uuid.New()
	svc, _, _ := newTestService(sessionID)

	sentAt := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	unencrypted := false
	msg, err := svc.AppendMessage(context.Background(), sessionID, &model.SendChatRequest{
		EncryptedMessage: "system notice",
		SenderID:         "system",
		Timestamp:        &sentAt,
		Encrypted:        &unencrypted,
	})
	require.NoError(t, err)

	assert.Equal(t, sentAt, msg.SentAt)
	assert.False(t, msg.Encrypted)
}

func TestListMessagesPreservesAppendOrder(t *testing.T) {
	sessionID := uuid.New()
	svc, _, _ := newTestService(sessionID)
	ctx := context.Background()

	var sent []uuid.UUID
	for _, body := range []string{"first", "second", "third"} {
		msg, err := svc.AppendMessage(ctx, sessionID, &model.SendChatRequest{
			EncryptedMessage: body,
			SenderID:         "patient-17",
		})
		require.NoError(t, err)
		sent = append(sent, msg.ID)
	}

	messages, err := svc.ListMessages(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, msg := range messages {
		assert.Equal(t, sent[i], msg.ID)
	}
}

func TestListMessagesEmptySessionReturnsEmptySlice(t *testing.T) {
	sessionID := uuid.New()
	svc, _, _ := newTestService(sessionID)

	messages, err := svc.ListMessages(context.Background(), sessionID)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestAppendFileStoresPayloadVerbatim(t *testing.T) {
	sessionID := uuid.New()
	svc, _, fileRepo := newTestService(sessionID)

	file, err := svc.AppendFile(context.Background(), sessionID, &model.UploadFileRequest{
		FileName:      "lab-results.pdf",
		FileType:      "application/pdf",
		FileSize:      48213,
		EncryptedData: "base64-opaque-payload==",
		IV:            "9f2c1a80",
		UploadedBy:    "doctor-42",
	})
	require.NoError(t, err)

	assert.Equal(t, "lab-results.pdf", file.FileName)
	assert.Equal(t, "base64-opaque-payload==", file.EncryptedData)
	assert.True(t, file.Encrypted)
	require.Len(t, fileRepo.files, 1)
}

func TestAppendFileValidation(t *testing.T) {
	sessionID := uuid.New()
	svc, _, _ := newTestService(sessionID)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *model.UploadFileRequest
	}{
		{"missing name", &model.UploadFileRequest{EncryptedData: "x", FileSize: 1}},
		{"missing data", &model.UploadFileRequest{FileName: "a.pdf", FileSize: 1}},
		{"missing size", &model.UploadFileRequest{FileName: "a.pdf", EncryptedData: "x"}},
		{"negative size", &model.UploadFileRequest{FileName: "a.pdf", EncryptedData: "x", FileSize: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AppendFile(ctx, sessionID, tc.req)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrValidation))
		})
	}
}

func TestAppendFileRejectsOversizedPayload(t *testing.T) {
	sessionID := uuid.New()
	svc, _, fileRepo := newTestService(sessionID)

	_, err := svc.AppendFile(context.Background(), sessionID, &model.UploadFileRequest{
		FileName:      "scan.dicom",
		EncryptedData: strings.Repeat("x", 64),
		FileSize:      MaxFileSize + 1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
	assert.Empty(t, fileRepo.files)

	// Exactly at the limit is accepted.
	_, err = svc.AppendFile(context.Background(), sessionID, &model.UploadFileRequest{
		FileName:      "scan.dicom",
		EncryptedData: strings.Repeat("x", 64),
		FileSize:      MaxFileSize,
	})
	require.NoError(t, err)
}

func TestListFilesUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(uuid.New())

	_, err := svc.ListFiles(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}
