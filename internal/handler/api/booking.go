package api

import (
	"net/http"

	"parking-booking/internal/domain/booking"
	reqdto "parking-booking/internal/handler/dto/request"
	resdto "parking-booking/internal/handler/dto/response"
	"parking-booking/internal/usecase/commands"
	"parking-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Book a slot for a time range; the price is fixed at creation
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.BookingEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	view, err := h.cmds.CreateBooking(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", "/api/bookings/"+view.ID.String())
	c.JSON(http.StatusCreated, resdto.BookingEnvelope{Message: "Booking created successfully", Booking: resdto.FromBookingView(view)})
}

// @Summary List my bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.BookingListEnvelope
// @Router /api/bookings/my-bookings [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	views, err := h.q.ListMyBookings(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	bookings := resdto.FromBookingViews(views)
	c.JSON(http.StatusOK, resdto.BookingListEnvelope{Message: "Bookings fetched", Count: len(bookings), Bookings: bookings})
}

// @Summary List all bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, confirmed, cancelled or completed"
// @Success 200 {object} resdto.BookingListEnvelope
// @Failure 403 {object} httperr.Response
// @Router /api/bookings [get]
func (h *BookingHandler) ListAll(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var status *booking.Status
	if v := c.Query("status"); v != "" {
		s, err := booking.NewStatus(v)
		if err != nil {
			respondError(c, err)
			return
		}
		status = &s
	}
	views, err := h.q.ListAllBookings(c.Request.Context(), actor, status)
	if err != nil {
		respondError(c, err)
		return
	}
	bookings := resdto.FromBookingViews(views)
	c.JSON(http.StatusOK, resdto.BookingListEnvelope{Message: "Bookings fetched", Count: len(bookings), Bookings: bookings})
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingEnvelope
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	view, err := h.q.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.BookingEnvelope{Message: "Booking fetched", Booking: resdto.FromBookingView(view)})
}

// @Summary Cancel booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingEnvelope
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/bookings/{id}/cancel [put]
func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	view, err := h.cmds.CancelBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.BookingEnvelope{Message: "Booking cancelled successfully", Booking: resdto.FromBookingView(view)})
}

// @Summary Update booking status
// @Description Admin moves a booking forward along its lifecycle
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.UpdateBookingStatusRequest true "Target status"
// @Success 200 {object} resdto.BookingEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/bookings/{id}/status [put]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req reqdto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	next, err := req.ToStatus()
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.cmds.UpdateBookingStatus(c.Request.Context(), actor, id, next)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.BookingEnvelope{Message: "Booking status updated", Booking: resdto.FromBookingView(view)})
}
