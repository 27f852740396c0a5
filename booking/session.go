// Package booking holds the reservation journey: search criteria, flight choice per leg,
// passengers, seat assignment and purchase.
//
// A Session is owned by one goroutine (the UI loop). Every change goes through Dispatch
// with a typed Action, so each mutation is a named transition that either applies whole
// or leaves the session untouched. Gateway calls never touch the session; their results
// come back as snapshots that are applied through actions on the owning goroutine.
package booking

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flightbook/model"
)

type Leg int

const (
	Outbound Leg = iota
	Return
)

func (l Leg) String() string {
	if l == Return {
		return "return"
	}
	return "outbound"
}

func (l Leg) valid() bool {
	return l == Outbound || l == Return
}

// Confirmation records how far seat confirmation has advanced. The return leg can only
// be confirmed on top of a confirmed outbound leg, so "return confirmed while outbound
// is not" has no representation.
type Confirmation int

const (
	NoneConfirmed Confirmation = iota
	OutboundConfirmed
	BothConfirmed
)

// FlightStage is derived from the selected flights, never stored.
type FlightStage int

const (
	SelectingOutbound FlightStage = iota
	SelectingReturn
	SelectionComplete
)

func (s FlightStage) String() string {
	switch s {
	case SelectingOutbound:
		return "selecting outbound"
	case SelectingReturn:
		return "selecting return"
	default:
		return "complete"
	}
}

type state struct {
	criteria    model.SearchCriteria
	hasCriteria bool
	outbound    *model.FlightOption
	ret         *model.FlightOption
	passengers  []model.Passenger
	contact     int
	legs        [2]legSeats
	confirmed   Confirmation
}

type legSeats struct {
	flightID  int64
	inventory map[string]model.Seat
	order     []string
	assigned  map[int]string
}

func emptyState() state {
	return state{contact: -1}
}

// clone copies everything an action may mutate. Seat inventories are immutable snapshots
// and are shared.
func (s state) clone() state {
	next := s
	if s.outbound != nil {
		f := *s.outbound
		next.outbound = &f
	}
	if s.ret != nil {
		f := *s.ret
		next.ret = &f
	}
	next.passengers = slices.Clone(s.passengers)
	for i := range s.legs {
		next.legs[i].assigned = maps.Clone(s.legs[i].assigned)
	}
	return next
}

func (s *state) flight(leg Leg) *model.FlightOption {
	if leg == Return {
		return s.ret
	}
	return s.outbound
}

func (s *state) legComplete(leg Leg) bool {
	if len(s.passengers) == 0 {
		return false
	}
	assigned := s.legs[leg].assigned
	for i := range s.passengers {
		if assigned[i] == "" {
			return false
		}
	}
	return true
}

// lowerConfirmation drops confirmation of leg and anything that depends on it.
func (s *state) lowerConfirmation(leg Leg) {
	if leg == Outbound {
		s.confirmed = NoneConfirmed
		return
	}
	s.confirmed = min(s.confirmed, OutboundConfirmed)
}

func (s *state) clearLeg(leg Leg) {
	s.legs[leg] = legSeats{}
	s.lowerConfirmation(leg)
}

type Session struct {
	id     string
	state  state
	logger *zap.Logger
	strict bool
	now    func() time.Time
}

type SessionOption func(*Session)

func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictInvariants makes invariant violations panic instead of returning.
func WithStrictInvariants(strict bool) SessionOption {
	return func(s *Session) {
		s.strict = strict
	}
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.NewString(),
		state:  emptyState(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Today() time.Time {
	return truncateDate(s.now())
}

// Dispatch applies an action atomically. On error the session is unchanged.
func (s *Session) Dispatch(a Action) error {
	next := s.state.clone()
	if err := a.apply(&next, s.Today()); err != nil {
		return s.reject(a.Name(), err)
	}
	s.state = next
	s.logger.Debug("booking action applied",
		zap.String("session", s.id),
		zap.String("action", a.Name()))
	return nil
}

func (s *Session) reject(action string, err error) error {
	var v *InvariantViolation
	if errors.As(err, &v) {
		if v.Action == "" {
			v.Action = action
		}
		s.logger.Error("booking invariant violated",
			zap.String("session", s.id),
			zap.String("action", action),
			zap.Error(err))
		if s.strict {
			panic(err)
		}
		return err
	}
	s.logger.Debug("booking action rejected",
		zap.String("session", s.id),
		zap.String("action", action),
		zap.Error(err))
	return err
}

func (s *Session) SetSearchCriteria(c model.SearchCriteria) error {
	return s.Dispatch(SetSearchCriteria{Criteria: c})
}

func (s *Session) StartSearch(c model.SearchCriteria) error {
	return s.Dispatch(StartSearch{Criteria: c})
}

func (s *Session) SelectOutboundFlight(f model.FlightOption) error {
	return s.Dispatch(SelectFlight{Leg: Outbound, Flight: f})
}

func (s *Session) SelectReturnFlight(f model.FlightOption) error {
	return s.Dispatch(SelectFlight{Leg: Return, Flight: f})
}

func (s *Session) ResetOutboundFlight() error {
	return s.Dispatch(ResetLeg{Leg: Outbound})
}

func (s *Session) ResetReturnFlight() error {
	return s.Dispatch(ResetLeg{Leg: Return})
}

func (s *Session) UpdatePassengers(passengers []model.Passenger) error {
	return s.Dispatch(UpdatePassengers{Passengers: passengers})
}

func (s *Session) AssignSeat(leg Leg, passenger int, seatNumber string) error {
	return s.Dispatch(AssignSeat{Leg: leg, Passenger: passenger, SeatNumber: seatNumber})
}

func (s *Session) UnassignSeat(leg Leg, passenger int) error {
	return s.Dispatch(UnassignSeat{Leg: leg, Passenger: passenger})
}

func (s *Session) SetContact(passenger int) error {
	return s.Dispatch(SetContact{Passenger: passenger})
}

func (s *Session) ConfirmLeg(leg Leg) error {
	return s.Dispatch(ConfirmLeg{Leg: leg})
}

func (s *Session) Reset() {
	_ = s.Dispatch(Reset{})
}

func (s *Session) Criteria() (model.SearchCriteria, bool) {
	return s.state.criteria, s.state.hasCriteria
}

func (s *Session) TripType() model.TripType {
	return s.state.criteria.TripType
}

func (s *Session) PassengerCount() int {
	return s.state.criteria.PassengerCount
}

func (s *Session) Flight(leg Leg) (model.FlightOption, bool) {
	f := s.state.flight(leg)
	if f == nil {
		return model.FlightOption{}, false
	}
	return *f, true
}

func (s *Session) OutboundFlight() (model.FlightOption, bool) {
	return s.Flight(Outbound)
}

func (s *Session) ReturnFlight() (model.FlightOption, bool) {
	return s.Flight(Return)
}

// ActiveLegs lists the legs that need seats: outbound always, return for round trips.
func (s *Session) ActiveLegs() []Leg {
	if s.state.criteria.IsRoundTrip() {
		return []Leg{Outbound, Return}
	}
	return []Leg{Outbound}
}

func (s *Session) FlightStage() FlightStage {
	switch {
	case s.state.outbound == nil:
		return SelectingOutbound
	case s.state.criteria.IsRoundTrip() && s.state.ret == nil:
		return SelectingReturn
	default:
		return SelectionComplete
	}
}

// Passengers returns the roster with each passenger's seat numbers filled in.
func (s *Session) Passengers() []model.Passenger {
	out := make([]model.Passenger, len(s.state.passengers))
	for i, p := range s.state.passengers {
		p.OutboundSeatNumber = seatPtr(s.state.legs[Outbound].assigned[i])
		p.ReturnSeatNumber = seatPtr(s.state.legs[Return].assigned[i])
		out[i] = p
	}
	return out
}

func (s *Session) Contact() (int, bool) {
	return s.state.contact, s.state.contact >= 0
}

func (s *Session) ContactPassenger() (model.Passenger, bool) {
	i, ok := s.Contact()
	if !ok || i >= len(s.state.passengers) {
		return model.Passenger{}, false
	}
	return s.state.passengers[i], true
}

// SeatMap returns a copy of passenger index -> seat number for the leg.
func (s *Session) SeatMap(leg Leg) map[int]string {
	out := make(map[int]string, len(s.state.legs[leg].assigned))
	maps.Copy(out, s.state.legs[leg].assigned)
	return out
}

func (s *Session) InventoryLoaded(leg Leg) bool {
	return s.state.legs[leg].inventory != nil
}

// Seats returns the loaded inventory ordered by row, then column.
func (s *Session) Seats(leg Leg) []model.Seat {
	l := s.state.legs[leg]
	out := make([]model.Seat, 0, len(l.order))
	for _, number := range l.order {
		out = append(out, l.inventory[number])
	}
	return out
}

func (s *Session) Seat(leg Leg, seatNumber string) (model.Seat, bool) {
	seat, ok := s.state.legs[leg].inventory[seatNumber]
	return seat, ok
}

// SeatHolder returns the passenger holding seatNumber on the leg.
func (s *Session) SeatHolder(leg Leg, seatNumber string) (int, bool) {
	for i, n := range s.state.legs[leg].assigned {
		if n == seatNumber {
			return i, true
		}
	}
	return 0, false
}

// NextUnseated returns the lowest passenger index without a seat on the leg.
func (s *Session) NextUnseated(leg Leg) (int, bool) {
	assigned := s.state.legs[leg].assigned
	for i := range s.state.passengers {
		if assigned[i] == "" {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) LegComplete(leg Leg) bool {
	return s.state.legComplete(leg)
}

func (s *Session) Confirmation() Confirmation {
	return s.state.confirmed
}

func (s *Session) Confirmed(leg Leg) bool {
	if leg == Return {
		return s.state.confirmed == BothConfirmed
	}
	return s.state.confirmed >= OutboundConfirmed
}

// SeatTotal sums the prices of the seats assigned on the leg.
func (s *Session) SeatTotal(leg Leg) float64 {
	l := s.state.legs[leg]
	total := 0.0
	for _, number := range l.assigned {
		total += l.inventory[number].Price
	}
	return total
}

// ReadyForPurchase reports why the booking cannot be submitted yet, or nil.
func (s *Session) ReadyForPurchase() error {
	st := &s.state
	if !st.hasCriteria {
		return fmt.Errorf("%w: %w", ErrNotReady, ErrNoCriteria)
	}
	for _, leg := range s.ActiveLegs() {
		if st.flight(leg) == nil {
			return fmt.Errorf("%w: %s: %w", ErrNotReady, leg, ErrNoFlight)
		}
	}
	if len(st.passengers) != st.criteria.PassengerCount {
		return fmt.Errorf("%w: %w", ErrNotReady, ErrPassengerCount)
	}
	if st.contact < 0 || st.contact >= len(st.passengers) {
		return fmt.Errorf("%w: contact passenger not designated", ErrNotReady)
	}
	for _, leg := range s.ActiveLegs() {
		if !st.legComplete(leg) || !s.Confirmed(leg) {
			return fmt.Errorf("%w: %s leg: %w", ErrNotReady, leg, ErrIncompleteAssignment)
		}
	}
	return nil
}

// PurchaseRequest assembles the wire request from a ready session.
func (s *Session) PurchaseRequest() (model.PurchaseRequest, error) {
	if err := s.ReadyForPurchase(); err != nil {
		return model.PurchaseRequest{}, err
	}
	st := &s.state
	roundTrip := st.criteria.IsRoundTrip()

	passengers := s.Passengers()
	if !roundTrip {
		for i := range passengers {
			passengers[i].ReturnSeatNumber = nil
		}
	}

	req := model.PurchaseRequest{
		OutboundFlightId: st.outbound.Id,
		ContactEmail:     st.passengers[st.contact].Email,
		Passengers:       passengers,
		IsRoundTrip:      roundTrip,
	}
	if roundTrip {
		id := st.ret.Id
		req.ReturnFlightId = &id
	}
	return req, nil
}

func seatPtr(number string) *string {
	if number == "" {
		return nil
	}
	return &number
}

func sortedSeatNumbers(seats []model.Seat) []string {
	out := make([]string, 0, len(seats))
	for _, seat := range seats {
		out = append(out, seat.SeatNumber)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := model.Seat{SeatNumber: out[i]}, model.Seat{SeatNumber: out[j]}
		if a.Row() != b.Row() {
			return a.Row() < b.Row()
		}
		return a.Column() < b.Column()
	})
	return out
}
