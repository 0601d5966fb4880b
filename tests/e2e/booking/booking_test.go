//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"parking-booking/internal/domain/user"
	resdto "parking-booking/internal/handler/dto/response"
	"parking-booking/internal/infra/payment"
	"parking-booking/tests/common/authtest"
	"parking-booking/tests/common/builder"
	"parking-booking/tests/common/dbtest"
	"parking-booking/tests/common/httptest"
	"parking-booking/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type BookingE2ESuite struct {
	e2e.SharedSuite

	jwt        *authtest.JWTHelper
	adminToken string
	driverID   uuid.UUID
	driver     string
	otherID    uuid.UUID
	other      string
}

func TestBookingE2ESuite(t *testing.T) {
	suite.Run(t, new(BookingE2ESuite))
}

func (s *BookingE2ESuite) SetupTest() {
	s.SharedSuite.SetupTest()
	s.Gateway.Reset()
	s.seedActors()
}

func (s *BookingE2ESuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
	s.Gateway.Reset()
	s.seedActors()
}

func (s *BookingE2ESuite) seedActors() {
	t := s.T()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)

	adminID := dbtest.CreateTestUser(t, s.DB, "Parking Admin", "admin@example.com", "admin")
	s.adminToken = s.jwt.GenerateToken(t, adminID, user.RoleAdmin)

	s.driverID = dbtest.CreateTestUser(t, s.DB, "Ravi Kumar", "ravi@example.com", "user")
	s.driver = s.jwt.GenerateToken(t, s.driverID, user.RoleUser)

	s.otherID = dbtest.CreateTestUser(t, s.DB, "Meera Nair", "meera@example.com", "user")
	s.other = s.jwt.GenerateToken(t, s.otherID, user.RoleUser)
}

// ------------------------------------------------------------
// helpers
// ------------------------------------------------------------

func (s *BookingE2ESuite) createSlot(mutate func(*builder.SlotBuilder)) resdto.SlotResponse {
	b := builder.NewSlotBuilder()
	if mutate != nil {
		b.With(mutate)
	}
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/slots", b.BuildRequest(), s.adminToken)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var env resdto.SlotEnvelope
	httptest.DecodeResponseBody(s.T(), w.Body, &env)
	s.Require().NotNil(env.Slot)
	httptest.AssertHeaders(s.T(), w, map[string]string{"Location": "/api/slots/" + env.Slot.ID.String()})
	return *env.Slot
}

func (s *BookingE2ESuite) getSlot(id uuid.UUID) resdto.SlotResponse {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/slots/"+id.String(), nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var env resdto.SlotEnvelope
	httptest.DecodeResponseBody(s.T(), w.Body, &env)
	return *env.Slot
}

func (s *BookingE2ESuite) setAvailability(id uuid.UUID, available bool) {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPatch, "/api/slots/"+id.String()+"/availability",
		map[string]any{"isAvailable": available}, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *BookingE2ESuite) book(token string, b *builder.BookingBuilder) (int, *resdto.BookingResponse, string) {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings", b.BuildRequest(), token)
	if w.Code != http.StatusCreated {
		return w.Code, nil, w.Body.String()
	}
	var env resdto.BookingEnvelope
	httptest.DecodeResponseBody(s.T(), w.Body, &env)
	return w.Code, env.Booking, ""
}

func (s *BookingE2ESuite) mustBook(token string, b *builder.BookingBuilder) resdto.BookingResponse {
	code, bk, body := s.book(token, b)
	s.Require().Equal(http.StatusCreated, code, body)
	return *bk
}

func (s *BookingE2ESuite) getBooking(token string, id uuid.UUID) resdto.BookingResponse {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings/"+id.String(), nil, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var env resdto.BookingEnvelope
	httptest.DecodeResponseBody(s.T(), w.Body, &env)
	return *env.Booking
}

func tomorrowAt(hour int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

// ------------------------------------------------------------
// slots
// ------------------------------------------------------------

func (s *BookingE2ESuite) TestSlotLifecycle() {
	s.Run("admin creates and lists a slot", func() {
		created := s.createSlot(nil)

		s.Equal("A-101", created.SlotNumber)
		s.Equal(50.0, created.PricePerHour)
		s.True(created.IsAvailable)

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/slots?city=Bengaluru&vehicleType=car", nil, "")
		s.Require().Equal(http.StatusOK, w.Code)

		var list resdto.SlotListEnvelope
		httptest.DecodeResponseBody(s.T(), w.Body, &list)
		s.Require().Equal(1, list.Count)
		if diff := cmp.Diff(created, *list.Slots[0]); diff != "" {
			s.Failf("slot mismatch", "(-created +listed):\n%s", diff)
		}
	})

	s.Run("duplicate identity is rejected", func() {
		s.createSlot(nil)

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/slots", builder.NewSlotBuilder().BuildRequest(), s.adminToken)
		s.Equal(http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("drivers cannot create slots", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/slots", builder.NewSlotBuilder().BuildRequest(), s.driver)
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("slot with a future booking cannot be deleted", func() {
		sl := s.createSlot(nil)
		s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodDelete, "/api/slots/"+sl.ID.String(), nil, s.adminToken)
		s.Equal(http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("deleted slot disappears from reads", func() {
		sl := s.createSlot(nil)

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodDelete, "/api/slots/"+sl.ID.String(), nil, s.adminToken)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/slots/"+sl.ID.String(), nil, "")
		s.Equal(http.StatusNotFound, w.Code)

		// the identity is free again
		s.createSlot(nil)
	})
}

// ------------------------------------------------------------
// bookings
// ------------------------------------------------------------

func (s *BookingE2ESuite) TestCreateBooking() {
	s.Run("prices by rounded-up hours and takes the slot", func() {
		sl := s.createSlot(nil)
		start := tomorrowAt(9)

		got := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, start).Between(start, start.Add(150*time.Minute)))

		want := resdto.BookingResponse{
			UserID:        s.driverID,
			VehicleNumber: "KA01AB1234",
			VehicleModel:  "Swift",
			StartTime:     start,
			EndTime:       start.Add(150 * time.Minute),
			TotalHours:    3,
			TotalPrice:    150,
			Status:        "pending",
			PaymentStatus: "pending",
		}
		opts := cmp.Options{
			cmpopts.IgnoreFields(resdto.BookingResponse{}, "ID", "ParkingSlot", "User", "CreatedAt", "UpdatedAt"),
			cmpopts.EquateApproxTime(time.Second),
		}
		if diff := cmp.Diff(want, got, opts); diff != "" {
			s.Failf("booking mismatch", "(-want +got):\n%s", diff)
		}
		s.Require().NotNil(got.ParkingSlot)
		s.Equal(sl.ID, got.ParkingSlot.ID)

		s.False(s.getSlot(sl.ID).IsAvailable)
	})

	s.Run("slot taken by a booking refuses the next one", func() {
		sl := s.createSlot(nil)
		s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))

		code, _, body := s.book(s.other, builder.NewBookingBuilder(sl.ID, tomorrowAt(15)))
		s.Equal(http.StatusConflict, code)
		s.Contains(body, "parking slot is not available")
	})

	s.Run("overlap is refused even after an availability override", func() {
		sl := s.createSlot(nil)
		s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))
		s.setAvailability(sl.ID, true)

		code, _, body := s.book(s.other, builder.NewBookingBuilder(sl.ID, tomorrowAt(10)))
		s.Equal(http.StatusConflict, code)
		s.Contains(body, "slot is already booked for the selected time")

		// touching intervals do not overlap
		s.setAvailability(sl.ID, true)
		s.mustBook(s.other, builder.NewBookingBuilder(sl.ID, tomorrowAt(11)))
	})

	s.Run("concurrent requests produce a single booking", func() {
		sl := s.createSlot(nil)
		b := builder.NewBookingBuilder(sl.ID, tomorrowAt(9))

		const workers = 8
		codes := make([]int, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings", b.BuildRequest(), s.driver)
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		created, conflicts := 0, 0
		for _, c := range codes {
			switch c {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicts++
			}
		}
		s.Equal(1, created, "codes: %v", codes)
		s.Equal(workers-1, conflicts, "codes: %v", codes)

		var n int
		err := s.DB.QueryRow(s.T().Context(), "SELECT count(*) FROM bookings WHERE slot_id = $1", sl.ID).Scan(&n)
		s.Require().NoError(err)
		s.Equal(1, n)
	})

	s.Run("unknown slot", func() {
		code, _, _ := s.book(s.driver, builder.NewBookingBuilder(uuid.New(), tomorrowAt(9)))
		s.Equal(http.StatusNotFound, code)
	})

	s.Run("expired token", func() {
		sl := s.createSlot(nil)
		expired := s.jwt.CreateExpiredToken(s.T(), s.driverID, user.RoleUser)

		code, _, _ := s.book(expired, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))
		s.Equal(http.StatusUnauthorized, code)
	})
}

func (s *BookingE2ESuite) TestReadsAndOwnership() {
	sl := s.createSlot(nil)
	mine := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))

	got := s.getBooking(s.driver, mine.ID)
	s.Require().NotNil(got.User)
	s.Equal("Ravi Kumar", got.User.Name)

	w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings/"+mine.ID.String(), nil, s.other)
	httptest.AssertErrorResponse(s.T(), w, http.StatusForbidden, "not authorized to access this booking")

	// admins read everything
	s.Equal(mine.ID, s.getBooking(s.adminToken, mine.ID).ID)

	w = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings/my-bookings", nil, s.other)
	s.Require().Equal(http.StatusOK, w.Code)
	var list resdto.BookingListEnvelope
	httptest.DecodeResponseBody(s.T(), w.Body, &list)
	s.Equal(0, list.Count)

	w = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings?status=pending", nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	list = resdto.BookingListEnvelope{}
	httptest.DecodeResponseBody(s.T(), w.Body, &list)
	s.Require().Equal(1, list.Count)
	s.Equal(mine.ID, list.Bookings[0].ID)

	w = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings", nil, s.driver)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *BookingE2ESuite) TestCancelBooking() {
	s.Run("cancel frees the slot", func() {
		sl := s.createSlot(nil)
		now := time.Now().UTC().Truncate(time.Second)
		bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, now.Add(-30*time.Minute)))
		s.False(s.getSlot(sl.ID).IsAvailable)

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/bookings/"+bk.ID.String()+"/cancel", nil, s.driver)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		s.Equal("cancelled", s.getBooking(s.driver, bk.ID).Status)
		s.True(s.getSlot(sl.ID).IsAvailable)

		// the interval can be booked again
		s.mustBook(s.other, builder.NewBookingBuilder(sl.ID, now.Add(-30*time.Minute)))
	})

	s.Run("second cancel is refused", func() {
		sl := s.createSlot(nil)
		bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))
		path := "/api/bookings/" + bk.ID.String() + "/cancel"

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, path, nil, s.driver)
		s.Require().Equal(http.StatusOK, w.Code)

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodPut, path, nil, s.driver)
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("only the owner or an admin may cancel", func() {
		sl := s.createSlot(nil)
		bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/bookings/"+bk.ID.String()+"/cancel", nil, s.other)
		s.Equal(http.StatusForbidden, w.Code)

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/bookings/"+bk.ID.String()+"/cancel", nil, s.adminToken)
		s.Equal(http.StatusOK, w.Code)
	})
}

func (s *BookingE2ESuite) TestAdminStatusUpdate() {
	sl := s.createSlot(nil)
	bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))
	path := "/api/bookings/" + bk.ID.String() + "/status"

	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, path, map[string]any{"status": "confirmed"}, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = httptest.PerformRequest(s.T(), s.Router, http.MethodPut, path, map[string]any{"status": "pending"}, s.adminToken)
	s.Equal(http.StatusConflict, w.Code, "status cannot move backwards")

	w = httptest.PerformRequest(s.T(), s.Router, http.MethodPut, path, map[string]any{"status": "completed"}, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(s.getSlot(sl.ID).IsAvailable)

	w = httptest.PerformRequest(s.T(), s.Router, http.MethodPut, path, map[string]any{"status": "cancelled"}, s.adminToken)
	s.Equal(http.StatusConflict, w.Code)
}

// ------------------------------------------------------------
// payments
// ------------------------------------------------------------

func (s *BookingE2ESuite) TestPaymentFlow() {
	s.Run("order, verify and replay", func() {
		sl := s.createSlot(nil)
		bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/create-order",
			map[string]any{"bookingId": bk.ID}, s.driver)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		var order resdto.OrderResponse
		httptest.DecodeResponseBody(s.T(), w.Body, &order)
		s.Equal(int64(10000), order.Amount)
		s.Equal("INR", order.Currency)
		s.Equal(s.Config.Payment.KeyID, order.KeyID)

		sent := s.Gateway.LastOrder(s.T())
		s.Equal(order.OrderID, sent.ID)
		s.Equal("booking_"+bk.ID.String(), sent.Receipt)
		s.Equal(bk.ID.String(), sent.Notes["bookingId"])

		sig := payment.NewSignatureVerifier(s.Config.Payment.KeySecret).Sign(order.OrderID, "pay_e2e0001")
		verify := map[string]any{
			"bookingId":           bk.ID,
			"razorpay_order_id":   order.OrderID,
			"razorpay_payment_id": "pay_e2e0001",
			"razorpay_signature":  sig,
		}
		w = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", verify, s.driver)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		got := s.getBooking(s.driver, bk.ID)
		s.Equal("confirmed", got.Status)
		s.Equal("completed", got.PaymentStatus)
		s.Equal("pay_e2e0001", got.PaymentID)
		s.Equal(order.OrderID, got.PaymentOrderID)

		// replaying the same payment changes nothing
		w = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", verify, s.driver)
		s.Equal(http.StatusOK, w.Code)

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/create-order",
			map[string]any{"bookingId": bk.ID}, s.driver)
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("forged signature leaves the booking untouched", func() {
		sl := s.createSlot(nil)
		bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", map[string]any{
			"bookingId":           bk.ID,
			"razorpay_order_id":   "order_forged",
			"razorpay_payment_id": "pay_forged",
			"razorpay_signature":  "deadbeef",
		}, s.driver)
		httptest.AssertErrorResponse(s.T(), w, http.StatusBadRequest, "Invalid payment signature")

		got := s.getBooking(s.driver, bk.ID)
		s.Equal("pending", got.Status)
		s.Equal("pending", got.PaymentStatus)
	})

	s.Run("gateway outage surfaces as unavailable", func() {
		sl := s.createSlot(nil)
		bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))
		s.Gateway.FailNext()

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/create-order",
			map[string]any{"bookingId": bk.ID}, s.driver)
		httptest.AssertErrorResponse(s.T(), w, http.StatusServiceUnavailable, "payment gateway is unavailable")
		s.Empty(s.getBooking(s.driver, bk.ID).PaymentOrderID)
	})

	s.Run("failure is recorded and payment can be retried", func() {
		sl := s.createSlot(nil)
		bk := s.mustBook(s.driver, builder.NewBookingBuilder(sl.ID, tomorrowAt(9)))

		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/failure",
			map[string]any{"bookingId": bk.ID, "error": "card declined"}, s.driver)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		got := s.getBooking(s.driver, bk.ID)
		s.Equal("failed", got.PaymentStatus)
		s.Equal("card declined", got.FailureReason)

		w = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/create-order",
			map[string]any{"bookingId": bk.ID}, s.driver)
		s.Equal(http.StatusOK, w.Code)
	})
}

// ------------------------------------------------------------
// sweeper
// ------------------------------------------------------------

func (s *BookingE2ESuite) TestSweepCompletesExpiredBookings() {
	now := time.Now().UTC().Truncate(time.Second)

	past := s.createSlot(nil)
	expired := s.mustBook(s.driver, builder.NewBookingBuilder(past.ID, now.Add(-3*time.Hour)))
	s.False(s.getSlot(past.ID).IsAvailable)

	future := s.createSlot(func(b *builder.SlotBuilder) { b.SlotNumber = "A-102" })
	upcoming := s.mustBook(s.other, builder.NewBookingBuilder(future.ID, tomorrowAt(9)))

	rep := s.Sweeper.Sweep(s.T().Context())
	s.True(rep.Ran)
	s.Equal(1, rep.Completed)
	s.Zero(rep.Failed)

	s.Equal("completed", s.getBooking(s.driver, expired.ID).Status)
	s.True(s.getSlot(past.ID).IsAvailable)

	s.Equal("pending", s.getBooking(s.other, upcoming.ID).Status)
	s.False(s.getSlot(future.ID).IsAvailable)

	// a second tick finds nothing to do
	rep = s.Sweeper.Sweep(s.T().Context())
	s.Equal(0, rep.Completed, fmt.Sprintf("%+v", rep))
}
