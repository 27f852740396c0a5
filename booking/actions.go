package booking

import (
	"fmt"
	"time"

	"flightbook/model"
)

// Action is one named transition of a Session.
type Action interface {
	Name() string
	apply(st *state, today time.Time) error
}

// SetSearchCriteria replaces the criteria. Selections survive unless the passenger
// count changes, which drops passengers, contact and seat assignments.
type SetSearchCriteria struct {
	Criteria model.SearchCriteria
}

func (SetSearchCriteria) Name() string { return "set_search_criteria" }

func (a SetSearchCriteria) apply(st *state, today time.Time) error {
	if err := ValidateCriteria(a.Criteria, today); err != nil {
		return err
	}
	c := NormalizeCriteria(a.Criteria)
	if st.hasCriteria && len(st.passengers) > 0 && c.PassengerCount != st.criteria.PassengerCount {
		st.passengers = nil
		st.contact = -1
		for _, leg := range []Leg{Outbound, Return} {
			st.legs[leg].assigned = nil
		}
		st.confirmed = NoneConfirmed
	}
	st.criteria = c
	st.hasCriteria = true
	return nil
}

// StartSearch installs criteria for a fresh search and clears everything downstream.
type StartSearch struct {
	Criteria model.SearchCriteria
}

func (StartSearch) Name() string { return "start_search" }

func (a StartSearch) apply(st *state, today time.Time) error {
	if err := ValidateCriteria(a.Criteria, today); err != nil {
		return err
	}
	*st = emptyState()
	st.criteria = NormalizeCriteria(a.Criteria)
	st.hasCriteria = true
	return nil
}

// SelectFlight sets the flight of a leg. Picking a different flight clears that leg's seats.
type SelectFlight struct {
	Leg    Leg
	Flight model.FlightOption
}

func (a SelectFlight) Name() string { return "select_" + a.Leg.String() + "_flight" }

func (a SelectFlight) apply(st *state, _ time.Time) error {
	if !a.Leg.valid() {
		return violation(fmt.Errorf("leg %d", a.Leg))
	}
	if !st.hasCriteria {
		return violation(ErrNoCriteria)
	}
	if a.Leg == Return && (!st.criteria.IsRoundTrip() || st.outbound == nil) {
		return violation(fmt.Errorf("%w: return flight needs a round trip with an outbound flight", ErrLegLocked))
	}

	current := st.flight(a.Leg)
	if current == nil || current.Id != a.Flight.Id {
		st.clearLeg(a.Leg)
	}
	f := a.Flight
	if a.Leg == Return {
		st.ret = &f
	} else {
		st.outbound = &f
	}
	return nil
}

// ResetLeg clears a leg's flight, its seat map and its confirmation. The other leg is untouched.
type ResetLeg struct {
	Leg Leg
}

func (a ResetLeg) Name() string { return "reset_" + a.Leg.String() + "_flight" }

func (a ResetLeg) apply(st *state, _ time.Time) error {
	if !a.Leg.valid() {
		return violation(fmt.Errorf("leg %d", a.Leg))
	}
	if a.Leg == Return {
		st.ret = nil
	} else {
		st.outbound = nil
	}
	st.clearLeg(a.Leg)
	return nil
}

// UpdatePassengers replaces the roster. Seat numbers on the records are ignored; the
// per-leg seat maps stay authoritative.
type UpdatePassengers struct {
	Passengers []model.Passenger
}

func (UpdatePassengers) Name() string { return "update_passengers" }

func (a UpdatePassengers) apply(st *state, _ time.Time) error {
	if !st.hasCriteria {
		return violation(ErrNoCriteria)
	}
	if len(a.Passengers) != st.criteria.PassengerCount {
		return violation(fmt.Errorf("%w: got %d, want %d", ErrPassengerCount, len(a.Passengers), st.criteria.PassengerCount))
	}
	passengers := make([]model.Passenger, len(a.Passengers))
	for i, p := range a.Passengers {
		p.OutboundSeatNumber = nil
		p.ReturnSeatNumber = nil
		passengers[i] = p
	}
	st.passengers = passengers
	return nil
}

// LoadSeatInventory installs the seat snapshot fetched for a leg's flight. A refetch for
// the same flight keeps assignments whose seats are still available.
type LoadSeatInventory struct {
	Leg      Leg
	FlightID int64
	Seats    []model.Seat
}

func (a LoadSeatInventory) Name() string { return "load_" + a.Leg.String() + "_seats" }

func (a LoadSeatInventory) apply(st *state, _ time.Time) error {
	if !a.Leg.valid() {
		return violation(fmt.Errorf("leg %d", a.Leg))
	}
	flight := st.flight(a.Leg)
	if flight == nil {
		return violation(fmt.Errorf("%w: %s", ErrNoFlight, a.Leg))
	}
	if flight.Id != a.FlightID {
		return ErrStaleResponse
	}

	inventory := make(map[string]model.Seat, len(a.Seats))
	for _, seat := range a.Seats {
		inventory[seat.SeatNumber] = seat
	}

	l := &st.legs[a.Leg]
	kept := map[int]string{}
	if l.flightID == a.FlightID {
		for i, number := range l.assigned {
			if seat, ok := inventory[number]; ok && !seat.Booked() {
				kept[i] = number
			}
		}
		if len(kept) != len(l.assigned) {
			st.lowerConfirmation(a.Leg)
		}
	} else {
		st.lowerConfirmation(a.Leg)
	}
	*l = legSeats{
		flightID:  a.FlightID,
		inventory: inventory,
		order:     sortedSeatNumbers(a.Seats),
		assigned:  kept,
	}
	return nil
}

// AssignSeat gives a passenger a seat on a leg, moving them off any seat they held.
type AssignSeat struct {
	Leg        Leg
	Passenger  int
	SeatNumber string
}

func (a AssignSeat) Name() string { return "assign_" + a.Leg.String() + "_seat" }

func (a AssignSeat) apply(st *state, _ time.Time) error {
	if err := checkLegReachable(st, a.Leg); err != nil {
		return err
	}
	if a.Passenger < 0 || a.Passenger >= len(st.passengers) {
		return violation(fmt.Errorf("%w: %d", ErrInvalidIndex, a.Passenger))
	}
	l := &st.legs[a.Leg]
	if l.inventory == nil {
		return violation(fmt.Errorf("%w: %s", ErrInventoryNotLoaded, a.Leg))
	}
	seat, ok := l.inventory[a.SeatNumber]
	if !ok {
		return violation(fmt.Errorf("%w: %s", ErrUnknownSeat, a.SeatNumber))
	}
	if seat.Booked() {
		return &SeatConflictError{Leg: a.Leg, SeatNumber: a.SeatNumber, Reason: "already booked"}
	}
	for i, number := range l.assigned {
		if number != a.SeatNumber {
			continue
		}
		if i == a.Passenger {
			return nil
		}
		return &SeatConflictError{Leg: a.Leg, SeatNumber: a.SeatNumber, Reason: fmt.Sprintf("assigned to passenger %d", i+1)}
	}

	if l.assigned == nil {
		l.assigned = map[int]string{}
	}
	l.assigned[a.Passenger] = a.SeatNumber
	st.lowerConfirmation(a.Leg)
	return nil
}

// UnassignSeat frees a passenger's seat on a leg. Unseated passengers are a no-op.
type UnassignSeat struct {
	Leg       Leg
	Passenger int
}

func (a UnassignSeat) Name() string { return "unassign_" + a.Leg.String() + "_seat" }

func (a UnassignSeat) apply(st *state, _ time.Time) error {
	if !a.Leg.valid() {
		return violation(fmt.Errorf("leg %d", a.Leg))
	}
	if a.Passenger < 0 || a.Passenger >= len(st.passengers) {
		return violation(fmt.Errorf("%w: %d", ErrInvalidIndex, a.Passenger))
	}
	l := &st.legs[a.Leg]
	if _, ok := l.assigned[a.Passenger]; !ok {
		return nil
	}
	delete(l.assigned, a.Passenger)
	st.lowerConfirmation(a.Leg)
	return nil
}

type SetContact struct {
	Passenger int
}

func (SetContact) Name() string { return "set_contact" }

func (a SetContact) apply(st *state, _ time.Time) error {
	if a.Passenger < 0 || a.Passenger >= len(st.passengers) {
		return violation(fmt.Errorf("%w: %d", ErrInvalidIndex, a.Passenger))
	}
	st.contact = a.Passenger
	return nil
}

// ConfirmLeg marks a leg's seating final. It fails unless every passenger has a seat.
type ConfirmLeg struct {
	Leg Leg
}

func (a ConfirmLeg) Name() string { return "confirm_" + a.Leg.String() + "_leg" }

func (a ConfirmLeg) apply(st *state, _ time.Time) error {
	if err := checkLegReachable(st, a.Leg); err != nil {
		return err
	}
	if !st.legComplete(a.Leg) {
		return fmt.Errorf("%s leg: %w", a.Leg, ErrIncompleteAssignment)
	}
	if a.Leg == Return {
		st.confirmed = BothConfirmed
	} else {
		st.confirmed = max(st.confirmed, OutboundConfirmed)
	}
	return nil
}

type Reset struct{}

func (Reset) Name() string { return "reset" }

func (Reset) apply(st *state, _ time.Time) error {
	*st = emptyState()
	return nil
}

// checkLegReachable enforces that the return leg opens only after the outbound leg is confirmed.
func checkLegReachable(st *state, leg Leg) error {
	if !leg.valid() {
		return violation(fmt.Errorf("leg %d", leg))
	}
	if st.flight(leg) == nil {
		return violation(fmt.Errorf("%w: %s", ErrNoFlight, leg))
	}
	if leg == Return {
		if !st.criteria.IsRoundTrip() {
			return violation(fmt.Errorf("%w: one-way trip has no return leg", ErrLegLocked))
		}
		if st.confirmed < OutboundConfirmed {
			return violation(fmt.Errorf("%w: outbound seats not confirmed", ErrLegLocked))
		}
	}
	return nil
}
