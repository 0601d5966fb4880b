//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"parking-booking/internal/domain/slot"
	"parking-booking/internal/handler/api"
	resdto "parking-booking/internal/handler/dto/response"
	"parking-booking/internal/usecase/queries"
	"parking-booking/tests/common/builder"
	"parking-booking/tests/common/httptest"
	"parking-booking/tests/common/testutil"
	commandsmock "parking-booking/tests/mock/commands"
	queriesmock "parking-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SlotHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	auth         authFixture
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockSlotCommands
	mockQueries  *queriesmock.MockSlotQueries
}

func (s *SlotHandlerTestSuite) SetupTest() {
	s.router = newEngine()
	s.auth = newAuthFixture()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockSlotCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockSlotQueries(s.mockCtrl)
	h := api.NewSlotHandler(s.mockCommands, s.mockQueries)

	s.router.GET("/slots", h.List)
	s.router.GET("/slots/:id", h.Get)
	admin := s.router.Group("/slots", s.auth.mw.RequireAuth(), s.auth.mw.RequireAdmin())
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
	admin.PATCH("/:id/availability", h.SetAvailability)
}

func (s *SlotHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestSlotHandlerSuite(t *testing.T) {
	suite.Run(t, new(SlotHandlerTestSuite))
}

func (s *SlotHandlerTestSuite) TestList() {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	s.Run("success: filters are parsed and prices are in major units", func() {
		view := builder.NewSlotBuilder().BuildView(uuid.New(), now)
		car, mall, avail := slot.VehicleCar, slot.LocationMall, true
		want := queries.SlotFilter{City: "Bengaluru", VehicleType: &car, LocationType: &mall, Available: &avail}
		s.mockQueries.EXPECT().ListSlots(gomock.Any(), want).Return([]*queries.SlotView{view}, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			"/slots?city=Bengaluru&vehicleType=car&locationType=Mall&available=true", nil, "")

		var body resdto.SlotListEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(1, body.Count)
		s.Equal(50.0, body.Slots[0].PricePerHour)
		s.Equal([]string{"covered", "cctv"}, body.Slots[0].Features)
	})

	s.Run("success: empty result is an empty array", func() {
		s.mockQueries.EXPECT().ListSlots(gomock.Any(), queries.SlotFilter{}).Return(nil, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/slots", nil, "")

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
		s.JSONEq(`{"message":"Parking slots fetched","count":0,"slots":[]}`, rec.Body.String())
	})

	s.Run("error: 400 on unknown vehicle type", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/slots?vehicleType=boat", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid vehicle type")
	})
}

func (s *SlotHandlerTestSuite) TestGet() {
	id := uuid.New()

	s.Run("success", func() {
		view := builder.NewSlotBuilder().BuildView(id, time.Now())
		s.mockQueries.EXPECT().GetSlot(gomock.Any(), id).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/slots/"+id.String(), nil, "")

		var body resdto.SlotEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(id, body.Slot.ID)
	})

	s.Run("error: 404 for a deleted or unknown slot", func() {
		s.mockQueries.EXPECT().GetSlot(gomock.Any(), id).Return(nil, slot.ErrSlotNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/slots/"+id.String(), nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "parking slot not found")
	})

	s.Run("error: 400 for a malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/slots/not-a-uuid", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid id")
	})
}

type testCaseSlot struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

func (s *SlotHandlerTestSuite) TestCreate() {
	b := builder.NewSlotBuilder()
	adminToken := s.auth.token(s.auth.admin)

	s.Run("success: 201 with the created slot", func() {
		view := b.BuildView(uuid.New(), time.Now())
		s.mockCommands.EXPECT().CreateSlot(gomock.Any(), s.auth.admin, b.BuildAttrs()).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/slots", b.BuildRequest(), adminToken)

		var body resdto.SlotEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal("Parking slot created", body.Message)
		s.Equal("/api/slots/"+view.ID.String(), rec.Header().Get("Location"))
	})

	s.Run("error: 401 without a token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/slots", b.BuildRequest(), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Access token required")
	})

	s.Run("error: 403 for a non-admin", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/slots", b.BuildRequest(), s.auth.token(s.auth.driver))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Admin access required")
	})

	s.Run("error: 409 on duplicate identity", func() {
		s.mockCommands.EXPECT().CreateSlot(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, slot.ErrDuplicateSlot)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/slots", b.BuildRequest(), adminToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "already exists")
	})

	s.Run("error: 400 on validation errors", func() {
		cases := []testCaseSlot{
			{name: "missing slotNumber", mutate: testutil.Field("slotNumber", nil), expectCode: http.StatusBadRequest},
			{name: "missing floor", mutate: testutil.Field("floor", nil), expectCode: http.StatusBadRequest},
			{name: "zero price", mutate: testutil.Field("pricePerHour", 0), expectCode: http.StatusBadRequest},
			{name: "negative price", mutate: testutil.Field("pricePerHour", -10), expectCode: http.StatusBadRequest},
			{name: "unknown location type", mutate: testutil.Field("locationType", "Beach"), expectCode: http.StatusBadRequest},
			{name: "unknown vehicle type", mutate: testutil.Field("vehicleType", "boat"), expectCode: http.StatusBadRequest},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				body := testutil.DtoMap(s.T(), b.BuildRequest(), tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/slots", body, adminToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
			})
		}
	})

	s.Run("success: floor zero is accepted", func() {
		ground := builder.NewSlotBuilder().With(func(b *builder.SlotBuilder) { b.Floor = 0 })
		s.mockCommands.EXPECT().CreateSlot(gomock.Any(), s.auth.admin, ground.BuildAttrs()).
			Return(ground.BuildView(uuid.New(), time.Now()), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/slots", ground.BuildRequest(), adminToken)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})
}

func (s *SlotHandlerTestSuite) TestUpdate() {
	id := uuid.New()
	adminToken := s.auth.token(s.auth.admin)

	s.Run("success: only supplied fields reach the patch", func() {
		city := "Mysuru"
		var got slot.Patch
		s.mockCommands.EXPECT().UpdateSlot(gomock.Any(), s.auth.admin, id, gomock.Any()).
			DoAndReturn(func(_ any, _ any, _ uuid.UUID, p slot.Patch) (*queries.SlotView, error) {
				got = p
				return builder.NewSlotBuilder().BuildView(id, time.Now()), nil
			})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, "/slots/"+id.String(),
			map[string]any{"city": city, "pricePerHour": 75.5}, adminToken)

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
		want := slot.Patch{City: &city}
		price := got.PricePerHour
		got.PricePerHour = nil
		if diff := cmp.Diff(want, got); diff != "" {
			s.Failf("patch mismatch", "(-want +got):\n%s", diff)
		}
		s.Require().NotNil(price)
		s.Equal(int64(7550), price.Minor())
	})

	s.Run("error: 404 when the slot is gone", func() {
		s.mockCommands.EXPECT().UpdateSlot(gomock.Any(), gomock.Any(), id, gomock.Any()).Return(nil, slot.ErrSlotNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, "/slots/"+id.String(), map[string]any{"city": "Mysuru"}, adminToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "")
	})
}

func (s *SlotHandlerTestSuite) TestDelete() {
	id := uuid.New()
	adminToken := s.auth.token(s.auth.admin)

	s.Run("success", func() {
		s.mockCommands.EXPECT().DeleteSlot(gomock.Any(), s.auth.admin, id).Return(nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/slots/"+id.String(), nil, adminToken)

		var body resdto.MessageResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("Parking slot deleted", body.Message)
	})

	s.Run("error: 409 while bookings are active", func() {
		s.mockCommands.EXPECT().DeleteSlot(gomock.Any(), s.auth.admin, id).Return(slot.ErrSlotInUse)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/slots/"+id.String(), nil, adminToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "active bookings")
	})

	s.Run("error: 500 hides internal detail", func() {
		s.mockCommands.EXPECT().DeleteSlot(gomock.Any(), s.auth.admin, id).Return(errors.New("connection reset by peer"))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/slots/"+id.String(), nil, adminToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
		s.NotContains(rec.Body.String(), "connection reset")
	})
}

func (s *SlotHandlerTestSuite) TestSetAvailability() {
	id := uuid.New()
	adminToken := s.auth.token(s.auth.admin)

	s.Run("success", func() {
		view := builder.NewSlotBuilder().BuildView(id, time.Now())
		view.IsAvailable = false
		s.mockCommands.EXPECT().OverrideAvailability(gomock.Any(), s.auth.admin, id, false).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/slots/"+id.String()+"/availability",
			map[string]any{"isAvailable": false}, adminToken)

		var body resdto.SlotEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.False(body.Slot.IsAvailable)
	})

	s.Run("error: 400 when the flag is missing", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/slots/"+id.String()+"/availability",
			map[string]any{}, adminToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})
}
