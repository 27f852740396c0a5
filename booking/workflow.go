package booking

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"flightbook/model"
)

type FlightSearcher interface {
	SearchFlights(ctx context.Context, q model.FlightQuery) ([]model.FlightOption, error)
}

// DayOffset selects one of the three day tabs around the anchor date.
type DayOffset int

const (
	PreviousDay DayOffset = -1
	AnchorDay   DayOffset = 0
	NextDay     DayOffset = 1
)

var dayOffsets = [3]DayOffset{PreviousDay, AnchorDay, NextDay}

func (d DayOffset) String() string {
	switch d {
	case PreviousDay:
		return "previous day"
	case NextDay:
		return "next day"
	default:
		return "selected day"
	}
}

type DayResult struct {
	Offset  DayOffset
	Date    time.Time
	Flights []model.FlightOption
	// Skipped is set for a previous day that lies before today; no request is made for it.
	Skipped bool
	Err     error
}

func (d DayResult) Available() bool {
	return !d.Skipped && d.Err == nil
}

// FlightRequest is everything a background fetch needs. It carries no session reference.
type FlightRequest struct {
	Seq   uint64
	Stage FlightStage
	Leg   Leg
	Query model.FlightQuery
	Today time.Time
}

type DayBoard struct {
	Request FlightRequest
	Days    [3]DayResult
}

func (b DayBoard) Day(off DayOffset) DayResult {
	return b.Days[off+1]
}

// FlightWorkflow drives flight choice for both legs. The stage is read from the session;
// the workflow only owns the fetched results and the request sequence that guards them.
type FlightWorkflow struct {
	session *Session
	gateway FlightSearcher
	seq     uint64
	board   *DayBoard
	tab     DayOffset
}

func NewFlightWorkflow(session *Session, gateway FlightSearcher) *FlightWorkflow {
	return &FlightWorkflow{session: session, gateway: gateway}
}

func (w *FlightWorkflow) Stage() FlightStage {
	return w.session.FlightStage()
}

// Restart forgets results and invalidates anything in flight. Call it after a new search.
func (w *FlightWorkflow) Restart() {
	w.seq++
	w.board = nil
	w.tab = AnchorDay
}

// Begin issues the request for the current stage. The return leg swaps the airports and
// anchors on the return date.
func (w *FlightWorkflow) Begin() (FlightRequest, error) {
	c, ok := w.session.Criteria()
	if !ok {
		return FlightRequest{}, ErrNoCriteria
	}
	stage := w.Stage()
	if stage == SelectionComplete {
		return FlightRequest{}, ErrSelectionComplete
	}

	w.seq++
	req := FlightRequest{
		Seq:   w.seq,
		Stage: stage,
		Leg:   Outbound,
		Query: model.FlightQuery{
			DepartureCode: c.OriginCode,
			ArrivalCode:   c.DestinationCode,
			Date:          c.DepartureDate,
			RoundTrip:     c.IsRoundTrip(),
		},
		Today: w.session.Today(),
	}
	if stage == SelectingReturn {
		req.Leg = Return
		req.Query.DepartureCode, req.Query.ArrivalCode = c.DestinationCode, c.OriginCode
		req.Query.Date = c.ReturnDate
	}
	return req, nil
}

// Fetch searches the anchor day and its neighbours concurrently. It never touches the
// session and is safe to run off the UI goroutine. Per-day failures are kept in the board.
func (w *FlightWorkflow) Fetch(ctx context.Context, req FlightRequest) DayBoard {
	board := DayBoard{Request: req}
	var g errgroup.Group
	for i, off := range dayOffsets {
		date := req.Query.Date.AddDate(0, 0, int(off))
		board.Days[i] = DayResult{Offset: off, Date: date}
		if off == PreviousDay && date.Before(req.Today) {
			board.Days[i].Skipped = true
			continue
		}
		g.Go(func() error {
			q := req.Query
			q.Date = date
			flights, err := w.gateway.SearchFlights(ctx, q)
			board.Days[i].Flights = flights
			board.Days[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return board
}

// Apply installs a fetched board. Boards from an older request are dropped with
// ErrStaleResponse; an anchor-day failure keeps the previous board.
func (w *FlightWorkflow) Apply(b DayBoard) error {
	if b.Request.Seq != w.seq || b.Request.Stage != w.Stage() {
		return ErrStaleResponse
	}
	if err := b.Day(AnchorDay).Err; err != nil {
		return &GatewayError{Op: "search " + b.Request.Leg.String() + " flights", Err: err}
	}
	w.board = &b
	w.tab = AnchorDay
	return nil
}

// Load runs Begin, Fetch and Apply in one call.
func (w *FlightWorkflow) Load(ctx context.Context) error {
	req, err := w.Begin()
	if err != nil {
		return err
	}
	return w.Apply(w.Fetch(ctx, req))
}

func (w *FlightWorkflow) Board() (DayBoard, bool) {
	if w.board == nil {
		return DayBoard{}, false
	}
	return *w.board, true
}

func (w *FlightWorkflow) Tab() DayOffset {
	return w.tab
}

// SelectTab switches the visible day. Results were fetched up front, so nothing is requested.
func (w *FlightWorkflow) SelectTab(off DayOffset) error {
	if w.board == nil {
		return ErrNoResults
	}
	if off < PreviousDay || off > NextDay {
		return fmt.Errorf("%w: %d", ErrDayUnavailable, off)
	}
	if w.board.Day(off).Skipped {
		return fmt.Errorf("%w: %s", ErrDayUnavailable, off)
	}
	w.tab = off
	return nil
}

// Flights returns the results of the visible tab.
func (w *FlightWorkflow) Flights() []model.FlightOption {
	if w.board == nil {
		return nil
	}
	return w.board.Day(w.tab).Flights
}

// Select picks a flight for the leg being chosen and returns the next stage.
func (w *FlightWorkflow) Select(f model.FlightOption) (FlightStage, error) {
	stage := w.Stage()
	if stage == SelectionComplete {
		return stage, ErrSelectionComplete
	}
	if w.board != nil && !w.board.contains(f.Id) {
		return stage, fmt.Errorf("%w: flight %d is not in the current results", ErrStaleResponse, f.Id)
	}

	var err error
	if stage == SelectingReturn {
		err = w.session.SelectReturnFlight(f)
	} else {
		err = w.session.SelectOutboundFlight(f)
	}
	if err != nil {
		return stage, err
	}
	w.Restart()
	return w.Stage(), nil
}

// ChangeOutbound drops the outbound flight and its seats so it can be chosen again.
func (w *FlightWorkflow) ChangeOutbound() error {
	if err := w.session.ResetOutboundFlight(); err != nil {
		return err
	}
	w.Restart()
	return nil
}

func (w *FlightWorkflow) ChangeReturn() error {
	if w.session.TripType() != model.RoundTrip {
		return fmt.Errorf("%w: one-way trip has no return leg", ErrLegLocked)
	}
	if err := w.session.ResetReturnFlight(); err != nil {
		return err
	}
	w.Restart()
	return nil
}

func (b *DayBoard) contains(flightID int64) bool {
	for _, day := range b.Days {
		for _, f := range day.Flights {
			if f.Id == flightID {
				return true
			}
		}
	}
	return false
}
