package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/readmodel"
)

// DashboardHandler serves the read model to connected dashboards: a live
// SSE stream plus a filtered point-in-time view.
type DashboardHandler struct {
	rm  *readmodel.ReadModel
	log zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(rm *readmodel.ReadModel, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		rm:  rm,
		log: log.With().Str("handler", "dashboard").Logger(),
	}
}

// Stream handles GET /v1/appointments/stream?scope=. Each connection gets
// its own subscription: the current set immediately, then the full sorted
// set on every store change, with the online flag for the offline
// indicator. The subscription is released when the client disconnects; a
// scope change is a new request, so the old subscription is torn down
// before the new one starts.
func (h *DashboardHandler) Stream(c *gin.Context) {
	scope := models.AppointmentScope(c.DefaultQuery("scope", string(models.ScopeAll)))
	if !models.ValidScope(scope) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be one of: all, today, upcoming"})
		return
	}

	sub := h.rm.Subscribe(scope)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case update, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("appointments", update)
			return true
		}
	})
}

// View handles GET /v1/appointments/dashboard. It serves the synchronized
// (live or cached) set with the secondary local filters applied, plus the
// aggregate counts derived from the unfiltered set.
func (h *DashboardHandler) View(c *gin.Context) {
	scope := models.AppointmentScope(c.DefaultQuery("scope", string(models.ScopeAll)))
	if !models.ValidScope(scope) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be one of: all, today, upcoming"})
		return
	}

	opts := readmodel.FilterOptions{
		SearchTerm: c.Query("q"),
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
		Status:     readmodel.StatusBucket(c.DefaultQuery("status", string(readmodel.BucketAll))),
		SortBy:     readmodel.SortField(c.DefaultQuery("sort_by", string(readmodel.SortByDate))),
		SortDesc:   c.Query("sort_order") == "desc",
	}

	appointments, online := h.rm.Current(scope)
	today := time.Now().Format("2006-01-02")
	filtered := readmodel.ApplyFilter(appointments, opts, today)

	c.JSON(http.StatusOK, gin.H{
		"appointments": filtered,
		"counts":       h.rm.CurrentCounts(scope),
		"online":       online,
	})
}
