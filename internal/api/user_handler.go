package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/config"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/service"
)

// UserHandler handles registration, admin user management, push-token
// registration and the bootstrap-admin endpoint
type UserHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// Register handles POST /v1/auth/register. The identity comes from the
// verified bearer token; the account starts pending until an administrator
// approves it.
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := currentClaims(c)
	user, err := h.services.Directory.Register(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// BootstrapAdmin handles POST /v1/admin/bootstrap. Exactly one caller ever
// succeeds; later calls get 409 admin_exists.
func (h *UserHandler) BootstrapAdmin(c *gin.Context) {
	claims := currentClaims(c)
	if err := h.services.Directory.BootstrapAdmin(c.Request.Context(), claims.UserID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List handles GET /v1/users (admin only)
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.services.Directory.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// Update handles PATCH /v1/users/:id (admin only): approve a pending user
// with a role, suspend, or reactivate.
func (h *UserHandler) Update(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Directory.UpdateUser(c.Request.Context(), c.Param("id"), &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterToken handles POST /v1/push/tokens. Tokens accumulate per user;
// re-registering an existing token is a no-op.
func (h *UserHandler) RegisterToken(c *gin.Context) {
	var req models.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := currentClaims(c)
	if err := h.services.Directory.RegisterToken(c.Request.Context(), claims.UserID, req.Token); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// VAPIDKey handles GET /v1/push/vapid-key. Clients need the public key to
// subscribe for push delivery.
func (h *UserHandler) VAPIDKey(c *gin.Context) {
	if h.cfg.Push.VAPIDKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "VAPID key not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vapid_key": h.cfg.Push.VAPIDKey})
}
