package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/telemed-api/internal/middleware"
	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/internal/service/session"
	"github.com/medrelay/telemed-api/pkg/errors"
	"github.com/medrelay/telemed-api/pkg/httputil"
)

type Handler struct {
	service *session.Service
}

func NewHandler(service *session.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:sessionId", h.GetSession)
		sessions.PUT("/:sessionId", h.UpdateLifecycle)
	}
}

func (h *Handler) CreateSession(c *gin.Context) {
	clinicID, userID, ok := callerScope(c)
	if !ok {
		return
	}

	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewValidation(err.Error()))
		return
	}

	created, err := h.service.CreateSession(c.Request.Context(), clinicID, userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) GetSession(c *gin.Context) {
	clinicID, _, ok := callerScope(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewValidation("invalid session ID"))
		return
	}

	found, err := h.service.GetSession(c.Request.Context(), clinicID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) ListSessions(c *gin.Context) {
	clinicID, _, ok := callerScope(c)
	if !ok {
		return
	}

	filters := &model.SessionFilters{}
	if v := c.Query("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, errors.NewValidation("invalid patient ID"))
			return
		}
		filters.PatientID = id
	}
	if v := c.Query("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, errors.NewValidation("invalid doctor ID"))
			return
		}
		filters.DoctorID = id
	}
	if v := c.Query("status"); v != "" {
		filters.Status = model.SessionStatus(v)
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), clinicID, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sessions)
}

// UpdateLifecycle dispatches PUT /sessions/:sessionId?action=... to the
// matching lifecycle transition.
func (h *Handler) UpdateLifecycle(c *gin.Context) {
	clinicID, userID, ok := callerScope(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewValidation("invalid session ID"))
		return
	}

	var updated *model.Session
	switch action := c.Query("action"); action {
	case "start":
		var req model.StartSessionRequest
		if !bindOptionalJSON(c, &req) {
			return
		}
		updated, err = h.service.Start(c.Request.Context(), clinicID, id, userID, req.RoomID)
	case "end":
		var req model.EndSessionRequest
		if !bindOptionalJSON(c, &req) {
			return
		}
		updated, err = h.service.End(c.Request.Context(), clinicID, id, userID, &req)
	case "cancel":
		var req model.CancelSessionRequest
		if !bindOptionalJSON(c, &req) {
			return
		}
		updated, err = h.service.Cancel(c.Request.Context(), clinicID, id, userID, req.Reason)
	case "no_show":
		updated, err = h.service.MarkNoShow(c.Request.Context(), clinicID, id, userID)
	default:
		httputil.RespondWithError(c, errors.NewValidation("unknown lifecycle action"))
		return
	}

	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func callerScope(c *gin.Context) (clinicID, userID uuid.UUID, ok bool) {
	clinicID, ok = contextUUID(c, middleware.ContextClinicID)
	if !ok {
		httputil.RespondWithError(c, errors.NewUnauthorized("missing clinic scope"))
		return
	}
	userID, ok = contextUUID(c, middleware.ContextUserID)
	if !ok {
		httputil.RespondWithError(c, errors.NewUnauthorized("missing user identity"))
		return
	}
	return clinicID, userID, true
}

// bindOptionalJSON binds the request body when one is present. Lifecycle
// actions accept an empty body.
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithError(c, errors.NewValidation(err.Error()))
		return false
	}
	return true
}

func contextUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
