package availability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/handler"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/service/appointment"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	availability := r.Group("/availability")
	{
		availability.GET("/slots", h.GetSlots)
		availability.GET("/forecast", h.GetForecast)
	}
}

// GetSlots lists the free candidate slots of a day, recomputed from storage
// on every call.
func (h *Handler) GetSlots(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), day)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"date":  day.Format(dateLayout),
		"slots": slots,
	}))
}

func (h *Handler) GetForecast(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}

	forecast, err := h.service.Forecast(c.Request.Context(), day)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(forecast))
}

func parseDay(c *gin.Context) (time.Time, bool) {
	day, err := time.ParseInLocation(dateLayout, c.Query("date"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return day, true
}
