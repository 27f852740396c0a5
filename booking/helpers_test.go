package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flightbook/model"
)

var testNow = time.Date(2024, 5, 20, 9, 30, 0, 0, time.Local)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func newTestSession(opts ...SessionOption) *Session {
	base := []SessionOption{
		WithClock(func() time.Time { return testNow }),
		WithStrictInvariants(true),
	}
	return NewSession(append(base, opts...)...)
}

func lenientSession() *Session {
	return newTestSession(WithStrictInvariants(false))
}

func oneWay(count int) model.SearchCriteria {
	return model.SearchCriteria{
		TripType:        model.OneWay,
		OriginCode:      "IST",
		DestinationCode: "LHR",
		DepartureDate:   day(2024, 6, 1),
		PassengerCount:  count,
	}
}

func roundTrip(count int) model.SearchCriteria {
	c := oneWay(count)
	c.TripType = model.RoundTrip
	c.ReturnDate = day(2024, 6, 8)
	return c
}

func flight(id int64, from, to string, departure time.Time) model.FlightOption {
	return model.FlightOption{
		Id:               id,
		FlightNumber:     "TK" + from + to,
		DepartureTime:    model.NewDateTime(departure.Add(8 * time.Hour)),
		ArrivalTime:      model.NewDateTime(departure.Add(12 * time.Hour)),
		DepartureAirport: model.Airport{IataCode: from},
		ArrivalAirport:   model.Airport{IataCode: to},
		CurrentPrice:     150,
	}
}

func passenger(first string) model.Passenger {
	return model.Passenger{
		FirstName:      first,
		LastName:       "Yilmaz",
		IdentityNumber: "12345678901",
		BirthDate:      "1990-04-12",
		Email:          first + "@example.com",
		Phone:          "+905551112233",
	}
}

func passengers(n int) []model.Passenger {
	names := []string{"ada", "bora", "cem", "deniz", "ece", "fatih", "gul", "hakan", "ipek"}
	out := make([]model.Passenger, n)
	for i := range out {
		out[i] = passenger(names[i])
	}
	return out
}

func availableSeats(numbers ...string) []model.Seat {
	out := make([]model.Seat, 0, len(numbers))
	for i, n := range numbers {
		out = append(out, model.Seat{
			Id:         int64(i + 1),
			SeatNumber: n,
			SeatClass:  model.Economy,
			Price:      100,
			Status:     model.SeatAvailable,
		})
	}
	return out
}

func withBooked(seats []model.Seat, numbers ...string) []model.Seat {
	for i := range seats {
		for _, n := range numbers {
			if seats[i].SeatNumber == n {
				seats[i].Status = model.SeatBooked
			}
		}
	}
	return seats
}

// seatedSession returns a session with flights chosen, passengers entered and seat maps
// loaded for every active leg. No seats are assigned.
func seatedSession(t *testing.T, s *Session, c model.SearchCriteria) *Session {
	t.Helper()
	require.NoError(t, s.StartSearch(c))
	require.NoError(t, s.SelectOutboundFlight(flight(1, c.OriginCode, c.DestinationCode, c.DepartureDate)))
	require.NoError(t, s.UpdatePassengers(passengers(c.PassengerCount)))
	require.NoError(t, s.SetContact(0))
	require.NoError(t, s.Dispatch(LoadSeatInventory{Leg: Outbound, FlightID: 1, Seats: availableSeats("12A", "12B", "12C", "13A")}))
	if c.IsRoundTrip() {
		require.NoError(t, s.SelectReturnFlight(flight(2, c.DestinationCode, c.OriginCode, c.ReturnDate)))
		require.NoError(t, s.Dispatch(LoadSeatInventory{Leg: Return, FlightID: 2, Seats: availableSeats("20A", "20B", "20C")}))
	}
	return s
}

type mockFlights struct {
	mock.Mock
}

func (m *mockFlights) SearchFlights(ctx context.Context, q model.FlightQuery) ([]model.FlightOption, error) {
	args := m.Called(ctx, q)
	flights, _ := args.Get(0).([]model.FlightOption)
	return flights, args.Error(1)
}

type mockSeats struct {
	mock.Mock
}

func (m *mockSeats) GetSeats(ctx context.Context, flightID int64) ([]model.Seat, error) {
	args := m.Called(ctx, flightID)
	seats, _ := args.Get(0).([]model.Seat)
	return seats, args.Error(1)
}

type mockPurchaser struct {
	mock.Mock
}

func (m *mockPurchaser) BuyTicket(ctx context.Context, req model.PurchaseRequest, key string) (model.PurchaseResponse, error) {
	args := m.Called(ctx, req, key)
	resp, _ := args.Get(0).(model.PurchaseResponse)
	return resp, args.Error(1)
}

type conflictErr struct {
	msg string
}

func (e conflictErr) Error() string    { return "409 Conflict: " + e.msg }
func (e conflictErr) Message() string  { return e.msg }
func (e conflictErr) IsConflict() bool { return true }
