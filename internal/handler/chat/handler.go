package chat

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/internal/service/chat"
	"github.com/medrelay/telemed-api/pkg/errors"
	"github.com/medrelay/telemed-api/pkg/httputil"
)

type Handler struct {
	service *chat.Service
}

func NewHandler(service *chat.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions/:sessionId")
	{
		sessions.POST("/chat", h.SendMessage)
		sessions.GET("/chat", h.ListMessages)
		sessions.POST("/files", h.UploadFile)
		sessions.GET("/files", h.ListFiles)
	}
}

func (h *Handler) SendMessage(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req model.SendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewValidation(err.Error()))
		return
	}

	msg, err := h.service.AppendMessage(c.Request.Context(), sessionID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, gin.H{
		"messageId": msg.ID,
		"message":   msg,
	})
}

func (h *Handler) ListMessages(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"messages": messages})
}

func (h *Handler) UploadFile(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req model.UploadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewValidation(err.Error()))
		return
	}

	file, err := h.service.AppendFile(c.Request.Context(), sessionID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, file)
}

func (h *Handler) ListFiles(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	files, err := h.service.ListFiles(c.Request.Context(), sessionID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"files": files})
}

func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewValidation("invalid session ID"))
		return uuid.Nil, false
	}
	return id, true
}
