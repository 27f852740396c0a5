package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"flightbook/booking"
	"flightbook/config"
	"flightbook/model"
	"flightbook/service"
	"flightbook/store"
)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

var testNow = time.Date(2024, 5, 20, 10, 0, 0, 0, time.Local)

// fakeGateway serves one flight per day and a two-row seat map per flight.
type fakeGateway struct {
	mu      sync.Mutex
	seats   map[int64][]model.Seat
	buys    []model.PurchaseRequest
	keys    []string
	buyErr  error
	searchF func(q model.FlightQuery) ([]model.FlightOption, error)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{seats: map[int64][]model.Seat{}}
}

func (g *fakeGateway) SearchFlights(_ context.Context, q model.FlightQuery) ([]model.FlightOption, error) {
	if g.searchF != nil {
		return g.searchF(q)
	}
	id := int64(q.Date.YearDay())
	if q.DepartureCode == "LHR" {
		id += 1000
	}
	dep := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 9, 0, 0, 0, time.Local)
	return []model.FlightOption{{
		Id:               id,
		FlightNumber:     fmt.Sprintf("FB%d", id),
		DepartureTime:    model.NewDateTime(dep),
		ArrivalTime:      model.NewDateTime(dep.Add(4 * time.Hour)),
		DepartureAirport: model.Airport{IataCode: q.DepartureCode},
		ArrivalAirport:   model.Airport{IataCode: q.ArrivalCode},
		CurrentPrice:     100,
	}}, nil
}

func (g *fakeGateway) GetSeats(_ context.Context, flightID int64) ([]model.Seat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seats[flightID]; !ok {
		var seats []model.Seat
		for row := 1; row <= 2; row++ {
			for _, col := range "ABCDEF" {
				seat := model.Seat{
					Id:         int64(len(seats) + 1),
					SeatNumber: fmt.Sprintf("%d%c", row, col),
					SeatClass:  model.Economy,
					Price:      10,
					Status:     model.SeatAvailable,
				}
				if seat.SeatNumber == "1C" {
					seat.Status = model.SeatBooked
				}
				seats = append(seats, seat)
			}
		}
		g.seats[flightID] = seats
	}
	return append([]model.Seat(nil), g.seats[flightID]...), nil
}

func (g *fakeGateway) BuyTicket(_ context.Context, req model.PurchaseRequest, key string) (model.PurchaseResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buys = append(g.buys, req)
	g.keys = append(g.keys, key)
	if g.buyErr != nil {
		// Someone else got the outbound seats first.
		for i, seat := range g.seats[req.OutboundFlightId] {
			for _, p := range req.Passengers {
				if p.OutboundSeatNumber != nil && *p.OutboundSeatNumber == seat.SeatNumber {
					g.seats[req.OutboundFlightId][i].Status = model.SeatBooked
				}
			}
		}
		return model.PurchaseResponse{}, g.buyErr
	}
	res := model.PurchaseResponse{Pnr: "ABC123", TotalPrice: 110}
	for i, p := range req.Passengers {
		res.Tickets = append(res.Tickets, model.TicketRecord{
			TicketId:      int64(i + 1),
			PassengerName: p.FullName(),
			SeatNumber:    *p.OutboundSeatNumber,
		})
	}
	return res, nil
}

type fakeAirports struct {
	airports []model.Airport
}

func (f fakeAirports) Search(_ context.Context, query string, exclude string) ([]model.Airport, error) {
	var out []model.Airport
	for _, a := range f.airports {
		if a.IataCode != exclude && strings.Contains(strings.ToLower(a.City), strings.ToLower(query)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestModel(t *testing.T, gw *fakeGateway) appModel {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return New(Options{
		Gateway: gw,
		Airports: fakeAirports{airports: []model.Airport{
			{City: "Istanbul", IataCode: "IST", Name: "Istanbul Airport", Country: "Turkey"},
			{City: "Istanbul", IataCode: "SAW", Name: "Sabiha Gokcen", Country: "Turkey"},
			{City: "London", IataCode: "LHR", Name: "Heathrow", Country: "United Kingdom"},
		}},
		Booking: config.Booking{SearchDebounce: time.Millisecond, StrictInvariants: true},
		Now:     func() time.Time { return testNow },
	}).(appModel)
}

func newFilterModel(t *testing.T, items []list.Item) *appModel {
	m := newTestModel(t, newFakeGateway())
	m.state = stateSelectFlight
	m.flightList = newList("Flights")
	m.flightList.SetItems(items)
	return &m
}

// drain runs cmd and feeds the booking messages it produces back into the model.
// Timers and cursor blinks are dropped.
func drain(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case flightsMsg, seatsMsg, purchaseMsg, errMsg:
			next, follow := m.Update(msg)
			m = next.(appModel)
			queue = append(queue, follow)
		}
	}
	return m
}

func press(m appModel, key tea.KeyMsg) (appModel, tea.Cmd) {
	next, cmd := m.Update(key)
	return next.(appModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fillSearch(m *appModel, origin, destination, departure, count string) {
	m.form.inputs[fieldOrigin].SetValue(origin)
	m.form.inputs[fieldDestination].SetValue(destination)
	m.form.inputs[fieldDeparture].SetValue(departure)
	m.form.inputs[fieldPassengers].SetValue(count)
}

func fillPassenger(m *appModel, i int, first string) {
	values := map[booking.Field]string{
		booking.FirstName:      first,
		booking.LastName:       "Yilmaz",
		booking.IdentityNumber: "12345678901",
		booking.BirthDate:      "1990-01-31",
		booking.Email:          strings.ToLower(first) + "@example.com",
		booking.Phone:          "+905551112233",
	}
	for j, field := range booking.Fields {
		m.passengers.inputs[i][j].SetValue(values[field])
		_ = m.passengers.roster.Set(i, field, values[field])
	}
}

// toReview walks a one-way, single-passenger booking up to the review screen.
func toReview(t *testing.T, gw *fakeGateway) appModel {
	t.Helper()
	m := newTestModel(t, gw)
	fillSearch(&m, "IST", "LHR", "2024-06-01", "1")
	next, cmd, _ := m.submitSearch()
	m = drain(t, next.(appModel), cmd)
	if m.state != stateSelectFlight {
		t.Fatalf("expected flight list, got state %d (err %v)", m.state, m.err)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != statePassengers {
		t.Fatalf("expected passenger form, got state %d (err %v)", m.state, m.err)
	}
	fillPassenger(&m, 0, "Ada")

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = drain(t, m, cmd)
	if m.state != stateSeatMap {
		t.Fatalf("expected seat map, got state %d (err %v)", m.state, m.err)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.session.SeatMap(booking.Outbound)[0]; got != "1A" {
		t.Fatalf("expected passenger 1 in 1A, got %q", got)
	}
	m, _ = press(m, runes("c"))
	if m.state != stateReview {
		t.Fatalf("expected review, got state %d (notice %q)", m.state, m.notice)
	}
	return m
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "TK1981"},
		testItem{value: "PC1170"},
	})

	if !m.handleFilterInput(runes("t")) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.flightList.FilterValue(); got != "t" {
		t.Fatalf("expected filter value to be %q, got %q", "t", got)
	}

	if !m.handleFilterInput(runes("k")) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.flightList.FilterValue(); got != "tk" {
		t.Fatalf("expected filter value to be %q, got %q", "tk", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "TK1981"},
		testItem{value: "PC1170"},
	})

	_ = m.handleFilterInput(runes("t"))
	_ = m.handleFilterInput(runes("k"))

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.flightList.FilterValue(); got != "t" {
		t.Fatalf("expected filter value to be %q, got %q", "t", got)
	}

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.flightList.FilterValue(); got != "" {
		t.Fatalf("expected filter to be cleared, got %q", got)
	}
	if m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace on an empty filter to pass through")
	}
}

func TestHandleFilterInput_IgnoredOutsideLists(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	if m.handleFilterInput(runes("i")) {
		t.Fatal("search form input must not be captured by the list filter")
	}
}

func TestAirportLookupAppliesOnlyLatestText(t *testing.T) {
	m := newTestModel(t, newFakeGateway())

	m, _ = press(m, runes("I"))
	if got := m.form.inputs[fieldOrigin].Value(); got != "I" {
		t.Fatalf("expected input %q, got %q", "I", got)
	}
	m, _ = press(m, runes("s"))
	firstSeq := m.form.airports[fieldOrigin].seq
	m, _ = press(m, runes("t"))
	latestSeq := m.form.airports[fieldOrigin].seq
	if latestSeq == firstSeq {
		t.Fatal("expected every edit to bump the lookup sequence")
	}

	// A debounce tick for older text never reaches the directory.
	if _, cmd := m.Update(airportDebounceMsg{field: fieldOrigin, seq: firstSeq}); cmd != nil {
		t.Fatal("expected stale debounce tick to be dropped")
	}

	next, _ := m.Update(airportsMsg{field: fieldOrigin, seq: firstSeq, query: "Is", airports: []model.Airport{{IataCode: "SAW"}}})
	m = next.(appModel)
	if len(m.form.airports[fieldOrigin].suggestions) != 0 {
		t.Fatal("expected results for older text to be ignored")
	}

	_, cmd := m.Update(airportDebounceMsg{field: fieldOrigin, seq: latestSeq})
	if cmd == nil {
		t.Fatal("expected current debounce tick to start a lookup")
	}
	msg, ok := cmd().(airportsMsg)
	if !ok {
		t.Fatalf("expected airportsMsg, got %T", cmd())
	}
	next, _ = m.Update(msg)
	m = next.(appModel)
	if got := len(m.form.airports[fieldOrigin].suggestions); got != 2 {
		t.Fatalf("expected 2 Istanbul airports, got %d", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.form.airports[fieldOrigin].picked.IataCode; got != "SAW" {
		t.Fatalf("expected SAW to be picked, got %q", got)
	}
	if m.form.focus != fieldDestination {
		t.Fatalf("expected focus to move to destination, got %d", m.form.focus)
	}
}

func TestAirportLookupDroppedWhenOtherPickChanges(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	ist := model.Airport{City: "Istanbul", IataCode: "IST", Name: "Istanbul Airport", Country: "Turkey"}

	m, _ = press(m, runes("Ist"))
	_, cmd := m.Update(airportDebounceMsg{field: fieldOrigin, seq: m.form.airports[fieldOrigin].seq})
	if cmd == nil {
		t.Fatal("expected an origin lookup")
	}
	inFlight, ok := cmd().(airportsMsg)
	if !ok {
		t.Fatalf("expected airportsMsg, got %T", cmd())
	}
	if got := len(inFlight.airports); got != 2 {
		t.Fatalf("expected both Istanbul airports before a destination is picked, got %d", got)
	}

	// The destination is picked while the origin lookup is still out.
	if refresh := m.form.pick(fieldDestination, ist); refresh == nil {
		t.Fatal("expected the origin lookup to be scheduled again")
	}
	next, _ := m.Update(inFlight)
	m = next.(appModel)
	if got := len(m.form.airports[fieldOrigin].suggestions); got != 0 {
		t.Fatalf("expected results still offering IST to be dropped, got %d", got)
	}

	_, cmd = m.Update(airportDebounceMsg{field: fieldOrigin, seq: m.form.airports[fieldOrigin].seq})
	if cmd == nil {
		t.Fatal("expected the origin lookup to run again")
	}
	next, _ = m.Update(cmd())
	m = next.(appModel)
	got := m.form.airports[fieldOrigin].suggestions
	if len(got) != 1 || got[0].IataCode != "SAW" {
		t.Fatalf("expected only SAW for the origin, got %+v", got)
	}

	// Editing the destination drops its pick, so IST is offered again.
	m.form.setFocus(fieldDestination)
	before := m.form.airports[fieldOrigin].seq
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.form.airports[fieldDestination].picked.IataCode != "" {
		t.Fatal("expected the destination pick to be cleared")
	}
	if m.form.airports[fieldOrigin].seq == before {
		t.Fatal("expected the origin lookup to be invalidated")
	}
	_, cmd = m.Update(airportDebounceMsg{field: fieldOrigin, seq: m.form.airports[fieldOrigin].seq})
	next, _ = m.Update(cmd())
	m = next.(appModel)
	if got := len(m.form.airports[fieldOrigin].suggestions); got != 2 {
		t.Fatalf("expected both Istanbul airports again, got %d", got)
	}
}

func TestSearchRejectsSameAirports(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	fillSearch(&m, "IST", "IST", "2024-06-01", "1")

	next, cmd, _ := m.submitSearch()
	m = next.(appModel)
	if cmd != nil {
		t.Fatal("expected no search to be issued")
	}
	if m.state != stateSearch {
		t.Fatalf("expected to stay on the search form, got %d", m.state)
	}
	if m.form.errs[fieldDestination] == "" {
		t.Fatal("expected an error on the destination field")
	}
	if _, ok := m.session.Criteria(); ok {
		t.Fatal("session must not hold rejected criteria")
	}
}

func TestSearchRejectsBadDate(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	fillSearch(&m, "IST", "LHR", "01/06/2024", "1")

	next, _, _ := m.submitSearch()
	m = next.(appModel)
	if got := m.form.errs[fieldDeparture]; got != "use YYYY-MM-DD" {
		t.Fatalf("expected date format error, got %q", got)
	}
}

func TestToggleTripShowsReturnField(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	if strings.Contains(m.form.view(), "Return") {
		t.Fatal("one-way form must not show a return date")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if !m.form.roundTrip || !strings.Contains(m.form.view(), "Return") {
		t.Fatal("expected round trip form with a return date")
	}
}

func TestDayTabsSkipUnavailableDays(t *testing.T) {
	gw := newFakeGateway()
	m := newTestModel(t, gw)
	// The day before the anchor is in the past, so that tab is disabled.
	fillSearch(&m, "IST", "LHR", "2024-05-20", "1")
	next, cmd, _ := m.submitSearch()
	m = drain(t, next.(appModel), cmd)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.flights.Tab() != booking.AnchorDay {
		t.Fatalf("expected to stay on the anchor day, got %s", m.flights.Tab())
	}
	if m.notice == "" {
		t.Fatal("expected a notice for the unavailable day")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.flights.Tab() != booking.NextDay {
		t.Fatalf("expected next day tab, got %s", m.flights.Tab())
	}
	item, ok := m.flightList.SelectedItem().(flightItem)
	if !ok || item.flight.DepartureTime.Day() != 21 {
		t.Fatalf("expected the 21 May flight to be listed, got %+v", item)
	}
}

func TestStaleFlightResultsIgnored(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	fillSearch(&m, "IST", "LHR", "2024-06-01", "1")
	next, _, _ := m.submitSearch()
	m = next.(appModel)

	updated, cmd := m.Update(flightsMsg{board: booking.DayBoard{Request: booking.FlightRequest{Seq: 999}}})
	m = updated.(appModel)
	if cmd != nil {
		t.Fatal("expected stale results to be dropped silently")
	}
	if m.state != stateLoadingFlights {
		t.Fatalf("expected to keep waiting, got state %d", m.state)
	}
}

func TestFlightSearchFailureShowsError(t *testing.T) {
	gw := newFakeGateway()
	gw.searchF = func(model.FlightQuery) ([]model.FlightOption, error) {
		return nil, errors.New("backend down")
	}
	m := newTestModel(t, gw)
	fillSearch(&m, "IST", "LHR", "2024-06-01", "1")
	next, cmd, _ := m.submitSearch()
	m = drain(t, next.(appModel), cmd)

	if m.state != stateError {
		t.Fatalf("expected error state, got %d", m.state)
	}
	if !strings.Contains(m.err.Error(), "backend down") {
		t.Fatalf("unexpected error %v", m.err)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateSearch {
		t.Fatalf("expected esc to return to search, got %d", m.state)
	}
}

func TestOneWayPurchase(t *testing.T) {
	gw := newFakeGateway()
	m := toReview(t, gw)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateSubmitting {
		t.Fatalf("expected submitting state, got %d", m.state)
	}
	m = drain(t, m, cmd)

	if m.state != stateConfirmation {
		t.Fatalf("expected confirmation, got %d (err %v)", m.state, m.err)
	}
	if m.confirmation.Pnr != "ABC123" {
		t.Fatalf("expected PNR ABC123, got %q", m.confirmation.Pnr)
	}
	if len(gw.buys) != 1 {
		t.Fatalf("expected one purchase call, got %d", len(gw.buys))
	}
	req := gw.buys[0]
	if req.ContactEmail != "ada@example.com" || req.IsRoundTrip || req.ReturnFlightId != nil {
		t.Fatalf("unexpected purchase request %+v", req)
	}
	if _, ok := m.session.Criteria(); ok {
		t.Fatal("expected the session to be reset after a purchase")
	}
	if !strings.Contains(m.View(), "PNR ABC123") {
		t.Fatal("expected the confirmation screen to show the PNR")
	}
}

func TestDoubleSubmitSendsOnce(t *testing.T) {
	gw := newFakeGateway()
	m := toReview(t, gw)

	m, first := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, second := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if second != nil {
		t.Fatal("expected the second enter to be ignored")
	}
	if !m.purchaser.Busy() {
		t.Fatal("expected the purchaser to be busy")
	}
	m = drain(t, m, first)
	if len(gw.buys) != 1 {
		t.Fatalf("expected one purchase call, got %d", len(gw.buys))
	}
	if m.purchaser.Busy() {
		t.Fatal("expected busy to clear after the response")
	}
}

func TestSeatConflictReloadsSeats(t *testing.T) {
	gw := newFakeGateway()
	gw.buyErr = &service.APIError{StatusCode: 409, Status: "409 Conflict", Body: `{"message":"Seat 1A is already booked"}`}
	m := toReview(t, gw)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	if m.state != stateSeatMap {
		t.Fatalf("expected to be back on the seat map, got %d (err %v)", m.state, m.err)
	}
	if !strings.Contains(m.notice, "Seat 1A is already booked") {
		t.Fatalf("expected conflict notice, got %q", m.notice)
	}
	if _, ok := m.session.SeatMap(booking.Outbound)[0]; ok {
		t.Fatal("expected the taken seat to be dropped")
	}
	if m.session.Confirmed(booking.Outbound) {
		t.Fatal("expected outbound confirmation to be withdrawn")
	}
	if m.purchaser.Busy() {
		t.Fatal("expected busy to clear after the conflict")
	}
}

func TestSeatMapRendering(t *testing.T) {
	m := toReview(t, newFakeGateway())
	m.state = stateSeatMap

	view := m.renderSeatMap()
	for _, want := range []string{"COCKPIT", "XX", "P1", "Selected: 1/1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected seat map to contain %q\n%s", want, view)
		}
	}
}

func TestClickBookedSeatIsIgnored(t *testing.T) {
	m := toReview(t, newFakeGateway())
	m.state = stateSeatMap
	m.cursorRow, m.cursorCol = 0, 2

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.session.SeatMap(booking.Outbound)[0]; got != "1A" {
		t.Fatalf("expected passenger to keep 1A, got %q", got)
	}
	if !strings.Contains(m.notice, "1C is booked") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestErrorReturnsToRecordedState(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	next, _ := m.Update(errMsg{err: errors.New("boom"), returnState: statePassengers, returnStateSet: true})
	m = next.(appModel)
	if m.state != stateError {
		t.Fatalf("expected error state, got %d", m.state)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != statePassengers {
		t.Fatalf("expected passenger form, got %d", m.state)
	}
}

func TestScreenBarBlock(t *testing.T) {
	bar := screenBarBlock(20, "COCKPIT")
	if len([]rune(bar.top)) != 20 || len([]rune(bar.mid)) != 20 {
		t.Fatalf("expected 20 wide bar, got %q / %q", bar.top, bar.mid)
	}
	if got := padCell("1A", 4); got != " 1A " {
		t.Fatalf("expected centred cell, got %q", got)
	}
}

type fakeLocator struct {
	place service.Place
	err   error
}

func (f fakeLocator) Locate(context.Context) (service.Place, error) {
	return f.place, f.err
}

func TestNearbyAirportPrefillsOrigin(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	m.locator = fakeLocator{place: service.Place{City: "London", Source: "test"}}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if cmd == nil {
		t.Fatal("expected a location lookup")
	}
	next, _ := m.Update(cmd())
	m = next.(appModel)
	if got := m.form.airports[fieldOrigin].picked.IataCode; got != "LHR" {
		t.Fatalf("expected LHR as origin, got %q", got)
	}
	if !strings.Contains(m.notice, "near London") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestNearbyAirportKeepsManualPick(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	m.locator = fakeLocator{place: service.Place{City: "London"}}
	m.form.pick(fieldOrigin, model.Airport{City: "Istanbul", IataCode: "IST"})

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	next, _ := m.Update(cmd())
	m = next.(appModel)
	if got := m.form.airports[fieldOrigin].picked.IataCode; got != "IST" {
		t.Fatalf("expected manual pick to win, got %q", got)
	}
}

func TestRecentRoutePrefillsEmptyForm(t *testing.T) {
	m := newTestModel(t, newFakeGateway())
	routes := []store.RecentRoute{
		{Origin: model.Airport{City: "Istanbul", IataCode: "IST"}, Destination: model.Airport{City: "London", IataCode: "LHR"}},
		{Origin: model.Airport{City: "Ankara", IataCode: "ESB"}, Destination: model.Airport{City: "Paris", IataCode: "CDG"}},
	}
	next, _ := m.Update(recentRoutesMsg{routes: routes})
	m = next.(appModel)
	if got := m.form.airportCode(fieldDestination); got != "LHR" {
		t.Fatalf("expected most recent route, got destination %q", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := m.form.airportCode(fieldOrigin); got != "ESB" {
		t.Fatalf("expected ctrl+r to cycle to the next route, got %q", got)
	}
}
