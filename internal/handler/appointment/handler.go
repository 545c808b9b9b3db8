package appointment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/handler"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/drag"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/service/appointment"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service     *appointment.Service
	rescheduler *drag.Rescheduler
}

func NewHandler(service *appointment.Service, rescheduler *drag.Rescheduler) *Handler {
	return &Handler{
		service:     service,
		rescheduler: rescheduler,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/upcoming", h.ListUpcoming)
		appointments.GET("/agenda", h.WeekAgenda)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)

		appointments.POST("/:id/toggle-done", h.ToggleDone)
		appointments.POST("/:id/move", h.MoveAppointment)
		appointments.POST("/recurrence", h.GenerateRecurrence)

		appointments.POST("/:id/drag", h.BeginDrag)
		appointments.POST("/drag/move", h.MoveDrag)
		appointments.POST("/drag/drop", h.DropDrag)
		appointments.POST("/drag/cancel", h.CancelDrag)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	apt, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

// ListAppointments returns the appointments of a day or an explicit
// [from, to) range; both bounds are dates.
func (h *Handler) ListAppointments(c *gin.Context) {
	if date := c.Query("date"); date != "" {
		day, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
			return
		}
		appointments, err := h.service.ReloadRange(c.Request.Context(), day)
		if err != nil {
			handler.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
		return
	}

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

	appointments, err := h.service.ListRange(c.Request.Context(), from, to)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) ListUpcoming(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
			return
		}
		limit = parsed
	}

	appointments, err := h.service.ListUpcoming(c.Request.Context(), time.Now(), limit)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

// WeekAgenda returns the Monday-through-Saturday week of the requested date,
// each day with its appointments already placed on the grid.
func (h *Handler) WeekAgenda(c *gin.Context) {
	day, err := time.ParseInLocation(dateLayout, c.Query("date"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	agenda, err := h.service.WeekAgenda(c.Request.Context(), day)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(agenda))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	apt, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

// DeleteAppointment removes an appointment permanently. Deleting an id that
// is already gone still succeeds.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": true}))
}

func (h *Handler) ToggleDone(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.service.ToggleDone(c.Request.Context(), id)
	if err != nil {
		if apperrors.IsPersistence(err) {
			h.writeReloadError(c, id, err)
			return
		}
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) MoveAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.MoveAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	apt, err := h.service.Move(c.Request.Context(), id, req.NewStart)
	if err != nil {
		if apperrors.IsPersistence(err) {
			h.writeReloadError(c, id, err)
			return
		}
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

// writeReloadError answers a failed write with the authoritative day of the
// stored record so the client can roll back its optimistic state. When even
// the re-read fails the plain error envelope goes out instead.
func (h *Handler) writeReloadError(c *gin.Context, id uuid.UUID, err error) {
	stored, getErr := h.service.Get(c.Request.Context(), id)
	if getErr != nil {
		handler.WriteError(c, err)
		return
	}

	appointments, reloadErr := h.service.ReloadRange(c.Request.Context(), stored.StartTime)
	if reloadErr != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{
		"status":       "error",
		"message":      err.Error(),
		"reload":       true,
		"appointments": appointments,
	})
}

func (h *Handler) GenerateRecurrence(c *gin.Context) {
	var req model.RecurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	series, err := h.service.GenerateRecurrence(c.Request.Context(), &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"count":        len(series),
		"appointments": series,
	}))
}

// -- drag session ------------------------------------------------------------

type dragBeginRequest struct {
	PointerID string `json:"pointer_id" binding:"required"`
}

type dragMoveRequest struct {
	PointerID    string `json:"pointer_id" binding:"required"`
	DeltaMinutes int    `json:"delta_minutes"`
}

type dragEndRequest struct {
	PointerID string `json:"pointer_id" binding:"required"`
}

// BeginDrag opens a drag session on an appointment. Only one session can be
// active at a time.
func (h *Handler) BeginDrag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req dragBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	if err := h.rescheduler.Begin(req.PointerID, apt); err != nil {
		c.JSON(http.StatusConflict, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"state":     h.rescheduler.State().String(),
		"candidate": h.rescheduler.Candidate(),
	}))
}

func (h *Handler) MoveDrag(c *gin.Context) {
	var req dragMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	candidate, err := h.rescheduler.Move(req.PointerID, req.DeltaMinutes)
	if err != nil {
		c.JSON(dragStatus(err), handler.NewErrorResponse(handler.BindingError(err)))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"candidate": candidate}))
}

// DropDrag persists the session's candidate time. When the write fails the
// session is over and the client must reload the day from the response.
func (h *Handler) DropDrag(c *gin.Context) {
	var req dragEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	day := h.rescheduler.Candidate()

	commit, err := h.rescheduler.Drop(c.Request.Context(), req.PointerID)
	if err != nil {
		if err == drag.ErrNotDragging || err == drag.ErrWrongPointer {
			c.JSON(dragStatus(err), handler.NewErrorResponse(handler.BindingError(err)))
			return
		}

		// The write failed; hand back the authoritative day so the client
		// can roll back its optimistic state.
		appointments, reloadErr := h.service.ReloadRange(c.Request.Context(), day)
		if reloadErr != nil {
			handler.WriteError(c, reloadErr)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"status":       "error",
			"message":      err.Error(),
			"reload":       true,
			"appointments": appointments,
		})
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(commit))
}

func (h *Handler) CancelDrag(c *gin.Context) {
	var req dragEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(handler.BindingError(err)))
		return
	}

	if err := h.rescheduler.Cancel(req.PointerID); err != nil {
		c.JSON(dragStatus(err), handler.NewErrorResponse(handler.BindingError(err)))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"state": h.rescheduler.State().String(),
	}))
}

func dragStatus(err error) int {
	switch err {
	case drag.ErrDragInProgress:
		return http.StatusConflict
	case drag.ErrNotDragging, drag.ErrWrongPointer:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
