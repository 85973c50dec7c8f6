package signaling

import (
	"github.com/gin-gonic/gin"

	"github.com/medrelay/telemed-api/internal/model"
	"github.com/medrelay/telemed-api/internal/service/signaling"
	"github.com/medrelay/telemed-api/pkg/errors"
	"github.com/medrelay/telemed-api/pkg/httputil"
)

type Handler struct {
	relay *signaling.Relay
}

func NewHandler(relay *signaling.Relay) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes wires the signaling endpoints. These are reachable
// without a session token: a patient joining by link has none. Session
// existence is still verified on every call.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/signaling")
	{
		group.POST("/:sessionId", h.SendSignal)
		group.GET("/:sessionId", h.PollSignals)
	}
}

func (h *Handler) SendSignal(c *gin.Context) {
	var req model.SendSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewValidation(err.Error()))
		return
	}

	msg, err := h.relay.Send(c.Request.Context(), c.Param("sessionId"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"id":   msg.ID,
		"sent": true,
	})
}

func (h *Handler) PollSignals(c *gin.Context) {
	signals, err := h.relay.Poll(
		c.Request.Context(),
		c.Param("sessionId"),
		c.Query("userId"),
		c.Query("lastSignalId"),
	)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"signals": signals})
}
