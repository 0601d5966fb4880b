package api

import (
	"net/http"
	"strconv"

	"parking-booking/internal/domain/slot"
	reqdto "parking-booking/internal/handler/dto/request"
	resdto "parking-booking/internal/handler/dto/response"
	"parking-booking/internal/usecase/commands"
	"parking-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	cmds commands.SlotCommands
	q    queries.SlotQueries
}

func NewSlotHandler(cmds commands.SlotCommands, q queries.SlotQueries) *SlotHandler {
	return &SlotHandler{cmds: cmds, q: q}
}

// @Summary List parking slots
// @Description List slots, newest first, with optional exact-match filters
// @Tags slots
// @Produce json
// @Param state query string false "State"
// @Param city query string false "City"
// @Param locationType query string false "Location type"
// @Param vehicleType query string false "car, bike or truck"
// @Param available query bool false "Availability flag"
// @Success 200 {object} resdto.SlotListEnvelope
// @Failure 400 {object} httperr.Response
// @Router /api/slots [get]
func (h *SlotHandler) List(c *gin.Context) {
	filter, err := slotFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := h.q.ListSlots(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	slots := resdto.FromSlotViews(views)
	c.JSON(http.StatusOK, resdto.SlotListEnvelope{Message: "Parking slots fetched", Count: len(slots), Slots: slots})
}

// @Summary Get parking slot
// @Tags slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} resdto.SlotEnvelope
// @Failure 404 {object} httperr.Response
// @Router /api/slots/{id} [get]
func (h *SlotHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	view, err := h.q.GetSlot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.SlotEnvelope{Message: "Parking slot fetched", Slot: resdto.FromSlotView(view)})
}

// @Summary Create parking slot
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateSlotRequest true "Slot"
// @Success 201 {object} resdto.SlotEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/slots [post]
func (h *SlotHandler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req reqdto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	attrs, err := req.ToAttributes()
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.cmds.CreateSlot(c.Request.Context(), actor, attrs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", "/api/slots/"+view.ID.String())
	c.JSON(http.StatusCreated, resdto.SlotEnvelope{Message: "Parking slot created", Slot: resdto.FromSlotView(view)})
}

// @Summary Update parking slot
// @Description Partial update; availability is changed through its own endpoint
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Slot ID"
// @Param request body reqdto.UpdateSlotRequest true "Fields to change"
// @Success 200 {object} resdto.SlotEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/slots/{id} [put]
func (h *SlotHandler) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req reqdto.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := req.ToPatch()
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.cmds.UpdateSlot(c.Request.Context(), actor, id, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.SlotEnvelope{Message: "Parking slot updated", Slot: resdto.FromSlotView(view)})
}

// @Summary Delete parking slot
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param id path string true "Slot ID"
// @Success 200 {object} resdto.MessageResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/slots/{id} [delete]
func (h *SlotHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.cmds.DeleteSlot(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.MessageResponse{Message: "Parking slot deleted"})
}

// @Summary Override slot availability
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Slot ID"
// @Param request body reqdto.SetAvailabilityRequest true "Flag"
// @Success 200 {object} resdto.SlotEnvelope
// @Router /api/slots/{id}/availability [patch]
func (h *SlotHandler) SetAvailability(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req reqdto.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	view, err := h.cmds.OverrideAvailability(c.Request.Context(), actor, id, *req.IsAvailable)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.SlotEnvelope{Message: "Slot availability updated", Slot: resdto.FromSlotView(view)})
}

func slotFilterFromQuery(c *gin.Context) (queries.SlotFilter, error) {
	f := queries.SlotFilter{
		State: c.Query("state"),
		City:  c.Query("city"),
	}
	if v := c.Query("locationType"); v != "" {
		lt, err := slot.NewLocationType(v)
		if err != nil {
			return queries.SlotFilter{}, err
		}
		f.LocationType = &lt
	}
	if v := c.Query("vehicleType"); v != "" {
		vt, err := slot.NewVehicleType(v)
		if err != nil {
			return queries.SlotFilter{}, err
		}
		f.VehicleType = &vt
	}
	if v, ok := c.GetQuery("available"); ok {
		// anything but "true" means false
		b, _ := strconv.ParseBool(v)
		f.Available = &b
	}
	return f, nil
}
