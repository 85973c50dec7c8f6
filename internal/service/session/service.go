package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrelay/telemed-api/internal/email"
	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/internal/repository"
	"github.com/medrelay/telemed-api/internal/service/audit"
	"github.com/medrelay/telemed-api/pkg/crypto"
	"github.com/medrelay/telemed-api/pkg/errors"
)

// Service owns the telemedicine session lifecycle: the state machine from
// scheduling to completion, timestamps, duration, and encryption of
// clinical text before it reaches the repository.
type Service struct {
	repo    repository.SessionRepository
	auditor *audit.Service
	cipher  *crypto.FieldCipher
	mailer  email.Service
	logger  zerolog.Logger

	now func() time.Time
}

func NewService(repo repository.SessionRepository, auditor *audit.Service, cipher *crypto.FieldCipher, mailer email.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		cipher:  cipher,
		mailer:  mailer,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) CreateSession(ctx context.Context, clinicID, actorID uuid.UUID, req *model.CreateSessionRequest) (*model.Session, error) {
	if !req.ScheduledEnd.After(req.ScheduledStart) {
		return nil, errors.NewValidation("scheduled_end must be after scheduled_start")
	}

	now := s.now().UTC()
	session := &model.Session{
		ID:             uuid.New(),
		ClinicID:       clinicID,
		AppointmentID:  req.AppointmentID,
		PatientID:      req.PatientID,
		PatientEmail:   req.PatientEmail,
		DoctorID:       req.DoctorID,
		Status:         model.SessionStatusScheduled,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.auditor.Log(ctx, actorID, clinicID, model.AuditActionScheduleSession, model.AuditEntitySession, session.ID, &audit.LogOptions{
		Details: map[string]interface{}{
			"action":          "schedule_session",
			"scheduled_start": session.ScheduledStart,
		},
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	if session.PatientEmail != "" {
		if err := s.mailer.SendSessionInvite(ctx, session.PatientEmail, session); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID.String()).Msg("failed to send session invite")
		}
	}

	return session, nil
}

func (s *Service) GetSession(ctx context.Context, clinicID, id uuid.UUID) (*model.Session, error) {
	session, err := s.repo.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	s.decryptClinicalFields(session)
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context, clinicID uuid.UUID, filters *model.SessionFilters) ([]*model.Session, error) {
	sessions, err := s.repo.List(ctx, clinicID, filters)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		s.decryptClinicalFields(session)
	}
	return sessions, nil
}

// Start moves a SCHEDULED session to IN_PROGRESS and stamps the actual
// start time. A second start call (page refresh, both browsers racing) is
// a no-op returning the current state; starting a terminal session is a
// state conflict.
func (s *Service) Start(ctx context.Context, clinicID, id, actorID uuid.UUID, roomID string) (*model.Session, error) {
	session, err := s.repo.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if session.Status == model.SessionStatusInProgress {
		s.decryptClinicalFields(session)
		return session, nil
	}
	if session.Status != model.SessionStatusScheduled {
		return nil, errors.NewInvalidState(fmt.Sprintf(
			"cannot start session: current status is %s, start requires %s",
			session.Status, model.SessionStatusScheduled,
		))
	}

	now := s.now().UTC()
	session.Status = model.SessionStatusInProgress
	session.ActualStartTime = &now
	if roomID != "" {
		session.RoomID = &roomID
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	if err := s.auditor.Log(ctx, actorID, clinicID, model.AuditActionStartSession, model.AuditEntitySession, session.ID, &audit.LogOptions{
		Details: map[string]interface{}{
			"action":  "start_session",
			"room_id": roomID,
		},
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	s.decryptClinicalFields(session)
	return session, nil
}

// End completes a session. It is permitted from IN_PROGRESS, and from
// SCHEDULED to cover calls ended without ever formally starting; in that
// case duration stays unset because there is no start time to measure
// from. Clinical text goes through the field cipher before persistence.
func (s *Service) End(ctx context.Context, clinicID, id, actorID uuid.UUID, req *model.EndSessionRequest) (*model.Session, error) {
	session, err := s.repo.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if session.Status != model.SessionStatusInProgress && session.Status != model.SessionStatusScheduled {
		return nil, errors.NewInvalidState(fmt.Sprintf(
			"cannot end session: current status is %s, end requires %s or %s",
			session.Status, model.SessionStatusInProgress, model.SessionStatusScheduled,
		))
	}

	if req.ConnectionQuality != "" && !model.ConnectionQuality(req.ConnectionQuality).Valid() {
		return nil, errors.NewValidation("invalid connection quality classification")
	}

	now := s.now().UTC()
	session.Status = model.SessionStatusCompleted
	session.ActualEndTime = &now

	if session.ActualStartTime != nil {
		minutes := roundedMinutes(now.Sub(*session.ActualStartTime))
		session.DurationMinutes = &minutes
	}

	if err := s.encryptEndOfCallFields(session, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	if err := s.auditor.Log(ctx, actorID, clinicID, model.AuditActionEndSession, model.AuditEntitySession, session.ID, &audit.LogOptions{
		Details: map[string]interface{}{
			"action":           "end_session",
			"duration_minutes": session.DurationMinutes,
		},
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	s.decryptClinicalFields(session)
	return session, nil
}

// Cancel is permitted from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, clinicID, id, actorID uuid.UUID, reason string) (*model.Session, error) {
	session, err := s.repo.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if session.Status.Terminal() {
		return nil, errors.NewInvalidState(fmt.Sprintf(
			"cannot cancel session: current status %s is terminal", session.Status,
		))
	}

	session.Status = model.SessionStatusCancelled
	if reason != "" {
		session.CancelReason = &reason
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	if err := s.auditor.Log(ctx, actorID, clinicID, model.AuditActionCancelSession, model.AuditEntitySession, session.ID, &audit.LogOptions{
		Details: map[string]interface{}{
			"action": "cancel_session",
			"reason": reason,
		},
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	if session.PatientEmail != "" {
		if err := s.mailer.SendCancellationNotice(ctx, session.PatientEmail, session, reason); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID.String()).Msg("failed to send cancellation notice")
		}
	}

	s.decryptClinicalFields(session)
	return session, nil
}

// MarkNoShow records that a participant never joined. Permitted from
// SCHEDULED and IN_PROGRESS.
func (s *Service) MarkNoShow(ctx context.Context, clinicID, id, actorID uuid.UUID) (*model.Session, error) {
	session, err := s.repo.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if session.Status != model.SessionStatusScheduled && session.Status != model.SessionStatusInProgress {
		return nil, errors.NewInvalidState(fmt.Sprintf(
			"cannot mark session as no-show: current status is %s", session.Status,
		))
	}

	session.Status = model.SessionStatusNoShow

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	if err := s.auditor.Log(ctx, actorID, clinicID, model.AuditActionNoShowSession, model.AuditEntitySession, session.ID, &audit.LogOptions{
		Details: map[string]interface{}{
			"action": "no_show_session",
		},
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	s.decryptClinicalFields(session)
	return session, nil
}

// roundedMinutes converts an elapsed duration to whole minutes, rounding
// half up: 17m30s becomes 18.
func roundedMinutes(elapsed time.Duration) int {
	if elapsed < 0 {
		return 0
	}
	return int((elapsed + 30*time.Second) / time.Minute)
}

func (s *Service) encryptEndOfCallFields(session *model.Session, req *model.EndSessionRequest) error {
	var err error
	if req.Notes != "" {
		if session.Notes, err = s.cipher.Encrypt(req.Notes); err != nil {
			return err
		}
	}
	if req.Diagnosis != "" {
		if session.Diagnosis, err = s.cipher.Encrypt(req.Diagnosis); err != nil {
			return err
		}
	}
	if req.TechnicalIssues != "" {
		if session.TechnicalIssues, err = s.cipher.Encrypt(req.TechnicalIssues); err != nil {
			return err
		}
	}
	if req.ConnectionQuality != "" {
		session.ConnectionQuality = model.ConnectionQuality(req.ConnectionQuality)
	}
	if req.StructuredNote != nil {
		note := &model.SOAPNote{}
		if note.Subjective, err = s.cipher.Encrypt(req.StructuredNote.Subjective); err != nil {
			return err
		}
		if note.Objective, err = s.cipher.Encrypt(req.StructuredNote.Objective); err != nil {
			return err
		}
		if note.Assessment, err = s.cipher.Encrypt(req.StructuredNote.Assessment); err != nil {
			return err
		}
		if note.Plan, err = s.cipher.Encrypt(req.StructuredNote.Plan); err != nil {
			return err
		}
		session.StructuredNote = note
	}
	return nil
}

// decryptClinicalFields decodes stored ciphertext for the caller. Legacy
// plaintext values pass through unchanged inside the cipher.
func (s *Service) decryptClinicalFields(session *model.Session) {
	session.Notes = s.cipher.Decrypt(session.Notes)
	session.Diagnosis = s.cipher.Decrypt(session.Diagnosis)
	session.TechnicalIssues = s.cipher.Decrypt(session.TechnicalIssues)
	if session.StructuredNote != nil {
		session.StructuredNote.Subjective = s.cipher.Decrypt(session.StructuredNote.Subjective)
		session.StructuredNote.Objective = s.cipher.Decrypt(session.StructuredNote.Objective)
		session.StructuredNote.Assessment = s.cipher.Decrypt(session.StructuredNote.Assessment)
		session.StructuredNote.Plan = s.cipher.Decrypt(session.StructuredNote.Plan)
	}
}
