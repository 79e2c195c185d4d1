package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/service"
)

// NotifyHandler handles the explicit notification trigger
type NotifyHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewNotifyHandler creates a new NotifyHandler
func NewNotifyHandler(services *service.Services, log zerolog.Logger) *NotifyHandler {
	return &NotifyHandler{
		services: services,
		log:      log.With().Str("handler", "notify").Logger(),
	}
}

// Notify handles POST /v1/notify. An empty recipient set is success with an
// informational marker, not an error.
func (h *NotifyHandler) Notify(c *gin.Context) {
	var req models.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidNotificationKind(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be one of: new, reminder"})
		return
	}

	result, err := h.services.Notifier.Notify(c.Request.Context(), req.AppointmentID, req.Type)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if result.NoRecipients {
		c.JSON(http.StatusOK, gin.H{"success": true, "info": "no_tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
