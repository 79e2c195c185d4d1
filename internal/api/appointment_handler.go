package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/service"
)

// AppointmentHandler handles appointment CRUD endpoints
type AppointmentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler
func NewAppointmentHandler(services *service.Services, log zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		services: services,
		log:      log.With().Str("handler", "appointment").Logger(),
	}
}

// Create handles POST /v1/appointments. The mayors are notified before the
// response goes out; if delivery fails the appointment is still created and
// the response carries a warning instead of the notification result.
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointment, notification, err := h.services.Appointment.Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := gin.H{"appointment": appointment}
	if notification != nil {
		resp["notification"] = notification
	} else {
		resp["warning"] = "notification_failed"
	}
	c.JSON(http.StatusCreated, resp)
}

// List handles GET /v1/appointments?scope=today|upcoming|all
func (h *AppointmentHandler) List(c *gin.Context) {
	scope := models.AppointmentScope(c.DefaultQuery("scope", string(models.ScopeAll)))
	if !models.ValidScope(scope) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be one of: all, today, upcoming"})
		return
	}

	appointments, err := h.services.Appointment.List(c.Request.Context(), scope)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// Get handles GET /v1/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	appointment, err := h.services.Appointment.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appointment})
}

// Update handles PUT /v1/appointments/:id
func (h *AppointmentHandler) Update(c *gin.Context) {
	var req models.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointment, err := h.services.Appointment.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appointment})
}

// Delete handles DELETE /v1/appointments/:id
func (h *AppointmentHandler) Delete(c *gin.Context) {
	if err := h.services.Appointment.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
