package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "scheduled"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
	SessionStatusNoShow     SessionStatus = "no_show"
)

// Terminal reports whether no further lifecycle transition is permitted.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusCancelled, SessionStatusNoShow:
		return true
	}
	return false
}

type ConnectionQuality string

const (
	ConnectionQualityExcellent ConnectionQuality = "excellent"
	ConnectionQualityGood      ConnectionQuality = "good"
	ConnectionQualityFair      ConnectionQuality = "fair"
	ConnectionQualityPoor      ConnectionQuality = "poor"
)

func (q ConnectionQuality) Valid() bool {
	switch q {
	case ConnectionQualityExcellent, ConnectionQualityGood, ConnectionQualityFair, ConnectionQualityPoor:
		return true
	}
	return false
}

// SOAPNote is a four-part structured clinical note. Each section is
// encrypted independently at rest.
type SOAPNote struct {
	Subjective string `json:"subjective,omitempty"`
	Objective  string `json:"objective,omitempty"`
	Assessment string `json:"assessment,omitempty"`
	Plan       string `json:"plan,omitempty"`
}

func (n SOAPNote) Value() (driver.Value, error) {
	return json.Marshal(n)
}

func (n *SOAPNote) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	}
	return fmt.Errorf("unsupported type %T for SOAPNote", src)
}

// Session is one telemedicine encounter. Clinical free-text fields are
// stored as ciphertext; the service layer decrypts on read.
type Session struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	ClinicID          uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	AppointmentID     *uuid.UUID        `db:"appointment_id" json:"appointment_id,omitempty"`
	PatientID         uuid.UUID         `db:"patient_id" json:"patient_id"`
	PatientEmail      string            `db:"patient_email" json:"patient_email,omitempty"`
	DoctorID          uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Status            SessionStatus     `db:"status" json:"status"`
	ScheduledStart    time.Time         `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd      time.Time         `db:"scheduled_end" json:"scheduled_end"`
	ActualStartTime   *time.Time        `db:"actual_start_time" json:"actual_start_time,omitempty"`
	ActualEndTime     *time.Time        `db:"actual_end_time" json:"actual_end_time,omitempty"`
	DurationMinutes   *int              `db:"duration_minutes" json:"duration_minutes,omitempty"`
	RoomID            *string           `db:"room_id" json:"room_id,omitempty"`
	Notes             string            `db:"notes" json:"notes,omitempty"`
	Diagnosis         string            `db:"diagnosis" json:"diagnosis,omitempty"`
	StructuredNote    *SOAPNote         `db:"structured_note" json:"structured_note,omitempty"`
	ConnectionQuality ConnectionQuality `db:"connection_quality" json:"connection_quality,omitempty"`
	TechnicalIssues   string            `db:"technical_issues" json:"technical_issues,omitempty"`
	CancelReason      *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// ChatMessage is an append-only, opaque chat entry. When Encrypted is true
// the Message field is client-side ciphertext and is stored verbatim.
type ChatMessage struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SessionID  uuid.UUID `db:"session_id" json:"session_id"`
	SenderID   string    `db:"sender_id" json:"senderId"`
	SenderName string    `db:"sender_name" json:"senderName,omitempty"`
	Message    string    `db:"message" json:"message"`
	Encrypted  bool      `db:"encrypted" json:"encrypted"`
	SentAt     time.Time `db:"sent_at" json:"timestamp"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SessionFile is an append-only record of a client-encrypted file payload.
type SessionFile struct {
	ID            uuid.UUID `db:"id" json:"id"`
	SessionID     uuid.UUID `db:"session_id" json:"session_id"`
	FileName      string    `db:"file_name" json:"fileName"`
	FileType      string    `db:"file_type" json:"fileType,omitempty"`
	FileSize      int64     `db:"file_size" json:"fileSize"`
	EncryptedData string    `db:"encrypted_data" json:"encryptedData"`
	IV            string    `db:"iv" json:"iv,omitempty"`
	Encrypted     bool      `db:"encrypted" json:"encrypted"`
	UploadedBy    string    `db:"uploaded_by" json:"uploadedBy,omitempty"`
	UploadedAt    time.Time `db:"uploaded_at" json:"uploadedAt"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type CreateSessionRequest struct {
	PatientID      uuid.UUID  `json:"patient_id" binding:"required"`
	DoctorID       uuid.UUID  `json:"doctor_id" binding:"required"`
	AppointmentID  *uuid.UUID `json:"appointment_id"`
	ScheduledStart time.Time  `json:"scheduled_start" binding:"required"`
	ScheduledEnd   time.Time  `json:"scheduled_end" binding:"required,gtfield=ScheduledStart"`
	PatientEmail   string     `json:"patient_email" binding:"omitempty,email"`
}

type StartSessionRequest struct {
	RoomID string `json:"roomId"`
}

type EndSessionRequest struct {
	Notes             string    `json:"notes"`
	Diagnosis         string    `json:"diagnosis"`
	StructuredNote    *SOAPNote `json:"structuredNote"`
	ConnectionQuality string    `json:"connectionQuality" binding:"omitempty,connection_quality"`
	TechnicalIssues   string    `json:"technicalIssues"`
}

type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

type SendChatRequest struct {
	EncryptedMessage string     `json:"encryptedMessage"`
	SenderID         string     `json:"senderId"`
	SenderName       string     `json:"senderName"`
	Timestamp        *time.Time `json:"timestamp"`
	Encrypted        *bool      `json:"encrypted"`
}

type UploadFileRequest struct {
	FileName      string     `json:"fileName"`
	FileType      string     `json:"fileType"`
	FileSize      int64      `json:"fileSize"`
	EncryptedData string     `json:"encryptedData"`
	IV            string     `json:"iv"`
	Encrypted     *bool      `json:"encrypted"`
	UploadedBy    string     `json:"uploadedBy"`
	UploadedAt    *time.Time `json:"uploadedAt"`
}

type SessionFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    SessionStatus
	StartDate time.Time
	EndDate   time.Time
}
