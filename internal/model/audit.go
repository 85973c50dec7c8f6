package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    uuid.UUID       `json:"actor_id" db:"actor_id"`
	ClinicID   uuid.UUID       `json:"clinic_id" db:"clinic_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Details    json.RawMessage `json:"details" db:"details"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionScheduleSession = "schedule_session"
	AuditActionStartSession    = "start_session"
	AuditActionEndSession      = "end_session"
	AuditActionCancelSession   = "cancel_session"
	AuditActionNoShowSession   = "no_show_session"

	// Entity types
	AuditEntitySession = "telemed_session"
)
