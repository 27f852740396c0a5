package devserver

import (
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"flightbook/model"
)

var (
	errUnknownFlight  = errors.New("flight not found")
	errTicketNotFound = errors.New("no ticket found for this pnr and identity number")
	errAlreadyClosed  = errors.New("ticket is already cancelled")
)

// seatTakenError is answered with 409.
type seatTakenError struct {
	flight string
	seat   string
}

func (e *seatTakenError) Error() string {
	return fmt.Sprintf("seat %s on flight %s is no longer available", e.seat, e.flight)
}

var defaultAirports = []model.Airport{
	{Id: 1, City: "İstanbul", IataCode: "IST", Country: "Türkiye", Name: "İstanbul Airport"},
	{Id: 2, City: "İstanbul", IataCode: "SAW", Country: "Türkiye", Name: "Sabiha Gökçen International Airport"},
	{Id: 3, City: "Ankara", IataCode: "ESB", Country: "Türkiye", Name: "Esenboğa International Airport"},
	{Id: 4, City: "İzmir", IataCode: "ADB", Country: "Türkiye", Name: "Adnan Menderes Airport"},
	{Id: 5, City: "Antalya", IataCode: "AYT", Country: "Türkiye", Name: "Antalya Airport"},
	{Id: 6, City: "London", IataCode: "LHR", Country: "United Kingdom", Name: "Heathrow Airport"},
	{Id: 7, City: "Paris", IataCode: "CDG", Country: "France", Name: "Charles de Gaulle Airport"},
	{Id: 8, City: "Berlin", IataCode: "BER", Country: "Germany", Name: "Berlin Brandenburg Airport"},
	{Id: 9, City: "Amsterdam", IataCode: "AMS", Country: "Netherlands", Name: "Schiphol Airport"},
	{Id: 10, City: "New York", IataCode: "JFK", Country: "United States", Name: "John F. Kennedy International Airport"},
}

// Departure slots of the daily schedule on every route.
var departureSlots = []time.Duration{
	7*time.Hour + 30*time.Minute,
	13*time.Hour + 15*time.Minute,
	19*time.Hour + 45*time.Minute,
}

const (
	seatRows      = 10
	businessRows  = 2
	seatColumns   = "ABCDEF"
	businessRatio = 2.5
)

type flightRecord struct {
	option model.FlightOption
	seats  []model.Seat
}

type purchaseLeg struct {
	flight *flightRecord
	seatOf func(model.Passenger) *string
}

type ticketRecord struct {
	info           model.TicketInfo
	identityNumber string
	flightID       int64
}

// inventory is the whole backend state. Flights are generated on first search of a
// route and day and keep their ids for the life of the process.
type inventory struct {
	mu         sync.Mutex
	airports   []model.Airport
	flights    map[int64]*flightRecord
	schedule   map[string][]int64
	tickets    []*ticketRecord
	purchases  map[string]model.PurchaseResponse
	nextFlight int64
	nextTicket int64
	newPnr     func() string
}

func newInventory(airports []model.Airport) *inventory {
	return &inventory{
		airports:   airports,
		flights:    map[int64]*flightRecord{},
		schedule:   map[string][]int64{},
		purchases:  map[string]model.PurchaseResponse{},
		nextFlight: 1000,
		nextTicket: 1,
		newPnr:     randomPnr,
	}
}

func (inv *inventory) airport(code string) (model.Airport, bool) {
	for _, a := range inv.airports {
		if strings.EqualFold(a.IataCode, code) {
			return a, true
		}
	}
	return model.Airport{}, false
}

func (inv *inventory) searchFlights(from, to string, date time.Time) ([]model.FlightOption, error) {
	dep, ok := inv.airport(from)
	if !ok {
		return nil, fmt.Errorf("unknown airport %q", from)
	}
	arr, ok := inv.airport(to)
	if !ok {
		return nil, fmt.Errorf("unknown airport %q", to)
	}
	if dep.IataCode == arr.IataCode {
		return nil, errors.New("departure and arrival airports must differ")
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	key := dep.IataCode + "-" + arr.IataCode + "-" + date.Format(time.DateOnly)
	ids, ok := inv.schedule[key]
	if !ok {
		ids = inv.generate(dep, arr, date)
		inv.schedule[key] = ids
	}
	out := make([]model.FlightOption, 0, len(ids))
	for _, id := range ids {
		out = append(out, inv.flights[id].option)
	}
	return out, nil
}

func (inv *inventory) generate(dep, arr model.Airport, date time.Time) []int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(dep.IataCode + arr.IataCode))
	seed := h.Sum32()
	base := 80 + float64(seed%220)
	duration := time.Duration(75+seed%240) * time.Minute

	ids := make([]int64, 0, len(departureSlots))
	for i, slot := range departureSlots {
		inv.nextFlight++
		id := inv.nextFlight
		departure := date.Add(slot)
		opt := model.FlightOption{
			Id:               id,
			FlightNumber:     fmt.Sprintf("FB%d", 100+(seed+uint32(i)*37)%900),
			DepartureTime:    model.NewDateTime(departure),
			ArrivalTime:      model.NewDateTime(departure.Add(duration)),
			DepartureAirport: dep,
			ArrivalAirport:   arr,
			CurrentPrice:     base + float64(i)*25,
		}
		if i == 1 {
			discount := opt.CurrentPrice * 0.85
			opt.DiscountPrice = &discount
		}
		inv.flights[id] = &flightRecord{option: opt, seats: seatMap(id, opt.Price())}
		ids = append(ids, id)
	}
	return ids
}

func seatMap(flightID int64, fare float64) []model.Seat {
	seats := make([]model.Seat, 0, seatRows*len(seatColumns))
	for row := 1; row <= seatRows; row++ {
		for col, letter := range seatColumns {
			seat := model.Seat{
				Id:         flightID*100 + int64(len(seats)+1),
				SeatNumber: fmt.Sprintf("%d%c", row, letter),
				SeatClass:  model.Economy,
				Price:      fare,
				Status:     model.SeatAvailable,
			}
			if row <= businessRows {
				seat.SeatClass = model.Business
				seat.Price = fare * businessRatio
			}
			if (row*7+col+int(flightID))%9 == 0 {
				seat.Status = model.SeatBooked
			}
			seats = append(seats, seat)
		}
	}
	return seats
}

func (inv *inventory) seats(flightID int64) ([]model.Seat, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	f, ok := inv.flights[flightID]
	if !ok {
		return nil, errUnknownFlight
	}
	return slices.Clone(f.seats), nil
}

// buy books every requested seat or none of them. A repeated idempotency key returns the
// first response.
func (inv *inventory) buy(req model.PurchaseRequest, idempotencyKey string) (model.PurchaseResponse, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if idempotencyKey != "" {
		if res, ok := inv.purchases[idempotencyKey]; ok {
			return res, nil
		}
	}

	outbound, ok := inv.flights[req.OutboundFlightId]
	if !ok {
		return model.PurchaseResponse{}, fmt.Errorf("outbound %w", errUnknownFlight)
	}
	legs := []purchaseLeg{{outbound, func(p model.Passenger) *string { return p.OutboundSeatNumber }}}
	if req.IsRoundTrip {
		if req.ReturnFlightId == nil {
			return model.PurchaseResponse{}, errors.New("return flight is required for a round trip")
		}
		ret, ok := inv.flights[*req.ReturnFlightId]
		if !ok {
			return model.PurchaseResponse{}, fmt.Errorf("return %w", errUnknownFlight)
		}
		legs = append(legs, purchaseLeg{ret, func(p model.Passenger) *string { return p.ReturnSeatNumber }})
	}

	type booking struct {
		flight    *flightRecord
		seat      int
		passenger model.Passenger
	}
	var bookings []booking
	for _, leg := range legs {
		taken := map[string]bool{}
		for _, p := range req.Passengers {
			number := leg.seatOf(p)
			if number == nil || *number == "" {
				return model.PurchaseResponse{}, fmt.Errorf("passenger %s has no seat on flight %s", p.FirstName, leg.flight.option.FlightNumber)
			}
			idx := slices.IndexFunc(leg.flight.seats, func(s model.Seat) bool { return s.SeatNumber == *number })
			if idx < 0 {
				return model.PurchaseResponse{}, fmt.Errorf("seat %s does not exist on flight %s", *number, leg.flight.option.FlightNumber)
			}
			if leg.flight.seats[idx].Booked() || taken[*number] {
				return model.PurchaseResponse{}, &seatTakenError{flight: leg.flight.option.FlightNumber, seat: *number}
			}
			taken[*number] = true
			bookings = append(bookings, booking{flight: leg.flight, seat: idx, passenger: p})
		}
	}

	res := model.PurchaseResponse{
		Pnr:           inv.newPnr(),
		FlightNumber:  outbound.option.FlightNumber,
		Route:         outbound.option.DepartureAirport.IataCode + "-" + outbound.option.ArrivalAirport.IataCode,
		DepartureTime: outbound.option.DepartureTime,
		ArrivalTime:   outbound.option.ArrivalTime,
	}
	for _, b := range bookings {
		seat := &b.flight.seats[b.seat]
		seat.Status = model.SeatBooked
		res.TotalPrice += seat.Price

		id := inv.nextTicket
		inv.nextTicket++
		opt := b.flight.option
		inv.tickets = append(inv.tickets, &ticketRecord{
			identityNumber: b.passenger.IdentityNumber,
			flightID:       opt.Id,
			info: model.TicketInfo{
				Id:                       id,
				Pnr:                      res.Pnr,
				PassengerName:            b.passenger.FullName(),
				DepartureAirportIataCode: opt.DepartureAirport.IataCode,
				DepartureAirportCity:     opt.DepartureAirport.City,
				ArrivalAirportIataCode:   opt.ArrivalAirport.IataCode,
				ArrivalAirportCity:       opt.ArrivalAirport.City,
				DepartureTime:            opt.DepartureTime,
				ArrivalTime:              opt.ArrivalTime,
				FlightNumber:             opt.FlightNumber,
				SeatNumber:               seat.SeatNumber,
				Status:                   model.TicketActive,
				SoldPrice:                seat.Price,
			},
		})
		res.Tickets = append(res.Tickets, model.TicketRecord{
			TicketId:      id,
			PassengerName: b.passenger.FullName(),
			SeatNumber:    seat.SeatNumber,
		})
	}
	if idempotencyKey != "" {
		inv.purchases[idempotencyKey] = res
	}
	return res, nil
}

func (inv *inventory) lookup(q model.TicketQuery) ([]model.TicketInfo, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var out []model.TicketInfo
	for _, t := range inv.matching(q) {
		out = append(out, t.info)
	}
	if len(out) == 0 {
		return nil, errTicketNotFound
	}
	return out, nil
}

// cancel cancels the passenger's active tickets under the PNR and frees their seats.
func (inv *inventory) cancel(q model.TicketQuery) (int, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	tickets := inv.matching(q)
	if len(tickets) == 0 {
		return 0, errTicketNotFound
	}
	n := 0
	for _, t := range tickets {
		if t.info.Status == model.TicketCancelled {
			continue
		}
		t.info.Status = model.TicketCancelled
		if f, ok := inv.flights[t.flightID]; ok {
			for i := range f.seats {
				if f.seats[i].SeatNumber == t.info.SeatNumber {
					f.seats[i].Status = model.SeatAvailable
				}
			}
		}
		n++
	}
	if n == 0 {
		return 0, errAlreadyClosed
	}
	return n, nil
}

func (inv *inventory) matching(q model.TicketQuery) []*ticketRecord {
	var out []*ticketRecord
	for _, t := range inv.tickets {
		if strings.EqualFold(t.info.Pnr, q.Pnr) && t.identityNumber == q.IdentityNumber {
			out = append(out, t)
		}
	}
	return out
}

func randomPnr() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
}
