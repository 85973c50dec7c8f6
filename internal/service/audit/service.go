package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Details   interface{}
	IPAddress string
	UserAgent string
}

// Log creates an audit log entry. Lifecycle transitions treat this as a
// mandatory side effect: callers propagate the error instead of dropping it.
func (s *Service) Log(ctx context.Context, actorID, clinicID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) error {
	var details json.RawMessage
	var err error

	ipAddress := ""
	userAgent := ""
	if opts != nil {
		if opts.Details != nil {
			details, err = json.Marshal(opts.Details)
			if err != nil {
				return err
			}
		}
		ipAddress = opts.IPAddress
		userAgent = opts.UserAgent
	}

	// Pull IP and User-Agent from the gin context when not supplied.
	if gc, ok := ctx.(*gin.Context); ok && ipAddress == "" {
		ipAddress = gc.ClientIP()
		userAgent = gc.GetHeader("User-Agent")
	}

	log := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		ClinicID:   clinicID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
	}

	return s.repo.Create(ctx, log)
}
