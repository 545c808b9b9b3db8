package export

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/handler"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/service/export"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *export.Service
}

func NewHandler(service *export.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	exports := r.Group("/exports")
	{
		exports.GET("/csv", h.ExportCSV)
		exports.GET("/reminders", h.ListReminders)
		exports.POST("/reminders/:id/sent", h.MarkReminderSent)
	}

	appointments := r.Group("/appointments")
	{
		appointments.GET("/:id/calendar-link", h.CalendarLink)
		appointments.GET("/:id/whatsapp-link", h.WhatsAppLink)
	}
}

// ExportCSV streams the report for [from, to) as a CSV attachment.
func (h *Handler) ExportCSV(c *gin.Context) {
	from, err := time.ParseInLocation(dateLayout, c.Query("from"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date, expected YYYY-MM-DD"))
		return
	}
	to, err := time.ParseInLocation(dateLayout, c.Query("to"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to date, expected YYYY-MM-DD"))
		return
	}

	csv, err := h.service.CSVRange(c.Request.Context(), from, to)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	filename := fmt.Sprintf("appuntamenti_%s_%s.csv", from.Format(dateLayout), to.Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

func (h *Handler) CalendarLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	link, err := h.service.CalendarLink(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"url": link}))
}

func (h *Handler) WhatsAppLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	link, err := h.service.WhatsAppLink(c.Request.Context(), id, time.Now())
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"url": link}))
}

func (h *Handler) ListReminders(c *gin.Context) {
	reminders, err := h.service.PendingReminders(c.Request.Context(), time.Now())
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reminders))
}

func (h *Handler) MarkReminderSent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.service.MarkReminderSent(c.Request.Context(), id, time.Now()); err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"reminder_sent": true}))
}
