package api

import (
	"net/http"

	reqdto "parking-booking/internal/handler/dto/request"
	resdto "parking-booking/internal/handler/dto/response"
	"parking-booking/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	cmds commands.PaymentCommands
}

func NewPaymentHandler(cmds commands.PaymentCommands) *PaymentHandler {
	return &PaymentHandler{cmds: cmds}
}

// @Summary Create payment order
// @Description Opens a gateway order for the booking's total price
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateOrderRequest true "Booking"
// @Success 200 {object} resdto.OrderResponse
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/payment/create-order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req reqdto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.cmds.CreateOrder(c.Request.Context(), actor, req.BookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderResult("Order created successfully", res))
}

// @Summary Verify payment
// @Description Checks the checkout signature and confirms the booking
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.VerifyPaymentRequest true "Checkout callback"
// @Success 200 {object} resdto.BookingEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/payment/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req reqdto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	view, err := h.cmds.VerifyPayment(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.BookingEnvelope{Message: "Payment verified successfully", Booking: resdto.FromBookingView(view)})
}

// @Summary Record payment failure
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.PaymentFailureRequest true "Failure"
// @Success 200 {object} resdto.BookingEnvelope
// @Failure 409 {object} httperr.Response
// @Router /api/payment/failure [post]
func (h *PaymentHandler) Failure(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req reqdto.PaymentFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	view, err := h.cmds.RecordFailure(c.Request.Context(), actor, req.BookingID, req.Error)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.BookingEnvelope{Message: "Payment failure recorded", Booking: resdto.FromBookingView(view)})
}
