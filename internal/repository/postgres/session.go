package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/pkg/errors"
)

const sessionColumns = `
	id, clinic_id, appointment_id, patient_id, patient_email, doctor_id, status,
	scheduled_start, scheduled_end, actual_start_time, actual_end_time,
	duration_minutes, room_id, notes, diagnosis, structured_note,
	connection_quality, technical_issues, cancel_reason,
	created_at, updated_at
`

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO telemed_sessions (` + sessionColumns + `)
		VALUES (
			:id, :clinic_id, :appointment_id, :patient_id, :patient_email, :doctor_id, :status,
			:scheduled_start, :scheduled_end, :actual_start_time, :actual_end_time,
			:duration_minutes, :room_id, :notes, :diagnosis, :structured_note,
			:connection_quality, :technical_issues, :cancel_reason,
			:created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM telemed_sessions
		WHERE id = $1 AND clinic_id = $2
	`
	var session model.Session
	err := r.db.GetContext(ctx, &session, query, id, clinicID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("session", err)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *model.Session) error {
	query := `
		UPDATE telemed_sessions
		SET status = :status,
			actual_start_time = :actual_start_time,
			actual_end_time = :actual_end_time,
			duration_minutes = :duration_minutes,
			room_id = :room_id,
			notes = :notes,
			diagnosis = :diagnosis,
			structured_note = :structured_note,
			connection_quality = :connection_quality,
			technical_issues = :technical_issues,
			cancel_reason = :cancel_reason,
			updated_at = :updated_at
		WHERE id = :id AND clinic_id = :clinic_id
	`
	session.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("session", nil)
	}
	return nil
}

func (r *sessionRepository) List(ctx context.Context, clinicID uuid.UUID, filters *model.SessionFilters) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM telemed_sessions
		WHERE clinic_id = $1
	`
	args := []interface{}{clinicID}
	argCount := 2

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND scheduled_start >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND scheduled_start < $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY scheduled_start ASC"

	var sessions []*model.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM telemed_sessions WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists, nil
}
