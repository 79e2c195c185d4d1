package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/models"
)

// respondError maps domain errors onto HTTP responses. Unknown errors are
// logged and collapsed to a generic 500 so internals never leak.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var deliveryErr *models.DeliveryError

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, models.ErrAdminExists):
		c.JSON(http.StatusConflict, gin.H{"error": "admin_exists"})
	case errors.As(err, &deliveryErr):
		log.Warn().Err(err).Msg("Push delivery failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery_failed"})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
