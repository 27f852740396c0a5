package booking

import (
	"context"
	"fmt"

	"flightbook/model"
)

type SeatInventory interface {
	GetSeats(ctx context.Context, flightID int64) ([]model.Seat, error)
}

// SeatSnapshot is a fetched seat map, tagged with the flight it was fetched for.
type SeatSnapshot struct {
	Leg      Leg
	FlightID int64
	Seats    []model.Seat
	Err      error
}

type ClickOutcome int

const (
	ClickIgnored ClickOutcome = iota
	SeatAssigned
	SeatReleased
)

type ClickResult struct {
	Outcome    ClickOutcome
	Passenger  int
	SeatNumber string
}

// SeatEngine turns seat clicks into session actions, one leg at a time.
type SeatEngine struct {
	session *Session
	gateway SeatInventory
}

func NewSeatEngine(session *Session, gateway SeatInventory) *SeatEngine {
	return &SeatEngine{session: session, gateway: gateway}
}

// Reachable reports whether the leg's seat screen may be shown. The return leg opens
// once the outbound seats are confirmed.
func (e *SeatEngine) Reachable(leg Leg) error {
	if _, ok := e.session.Flight(leg); !ok {
		return fmt.Errorf("%w: %s", ErrNoFlight, leg)
	}
	if leg == Return {
		if e.session.TripType() != model.RoundTrip {
			return fmt.Errorf("%w: one-way trip has no return leg", ErrLegLocked)
		}
		if !e.session.Confirmed(Outbound) {
			return fmt.Errorf("%w: confirm outbound seats first", ErrLegLocked)
		}
	}
	return nil
}

// Request returns the flight whose seats should be fetched for the leg.
func (e *SeatEngine) Request(leg Leg) (int64, error) {
	if err := e.Reachable(leg); err != nil {
		return 0, err
	}
	f, _ := e.session.Flight(leg)
	return f.Id, nil
}

// Fetch calls the gateway without touching the session.
func (e *SeatEngine) Fetch(ctx context.Context, leg Leg, flightID int64) SeatSnapshot {
	snap := SeatSnapshot{Leg: leg, FlightID: flightID}
	seats, err := e.gateway.GetSeats(ctx, flightID)
	if err != nil {
		snap.Err = &GatewayError{Op: "load " + leg.String() + " seats", Err: err}
		return snap
	}
	snap.Seats = seats
	return snap
}

// Apply installs a snapshot. A snapshot for a flight that is no longer selected is dropped
// with ErrStaleResponse; a failed fetch leaves the previous seat map in place.
func (e *SeatEngine) Apply(snap SeatSnapshot) error {
	if snap.Err != nil {
		return snap.Err
	}
	f, ok := e.session.Flight(snap.Leg)
	if !ok || f.Id != snap.FlightID {
		return ErrStaleResponse
	}
	return e.session.Dispatch(LoadSeatInventory{Leg: snap.Leg, FlightID: snap.FlightID, Seats: snap.Seats})
}

func (e *SeatEngine) Load(ctx context.Context, leg Leg) error {
	id, err := e.Request(leg)
	if err != nil {
		return err
	}
	return e.Apply(e.Fetch(ctx, leg, id))
}

// Click toggles a seat. Booked seats are ignored, a held seat is released, and a free
// seat goes to the first passenger without one on this leg.
func (e *SeatEngine) Click(leg Leg, seatNumber string) (ClickResult, error) {
	result := ClickResult{Outcome: ClickIgnored, SeatNumber: seatNumber}
	if !e.session.InventoryLoaded(leg) {
		return result, fmt.Errorf("%w: %s", ErrInventoryNotLoaded, leg)
	}
	seat, ok := e.session.Seat(leg, seatNumber)
	if !ok {
		return result, fmt.Errorf("%w: %s", ErrUnknownSeat, seatNumber)
	}
	if seat.Booked() {
		return result, nil
	}

	if holder, ok := e.session.SeatHolder(leg, seatNumber); ok {
		if err := e.session.UnassignSeat(leg, holder); err != nil {
			return result, err
		}
		result.Outcome = SeatReleased
		result.Passenger = holder
		return result, nil
	}

	if len(e.session.Passengers()) == 0 {
		return result, fmt.Errorf("%w: passengers not entered", ErrPassengerCount)
	}
	next, ok := e.session.NextUnseated(leg)
	if !ok {
		return result, ErrAllSeated
	}
	if err := e.session.AssignSeat(leg, next, seatNumber); err != nil {
		return result, err
	}
	result.Outcome = SeatAssigned
	result.Passenger = next
	return result, nil
}

func (e *SeatEngine) Confirm(leg Leg) error {
	return e.session.ConfirmLeg(leg)
}

func (e *SeatEngine) Total(leg Leg) float64 {
	return e.session.SeatTotal(leg)
}
