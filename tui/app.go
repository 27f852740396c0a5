package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"flightbook/booking"
	"flightbook/config"
	"flightbook/model"
	"flightbook/service"
)

type appState int

const (
	stateSearch appState = iota
	stateLoadingFlights
	stateSelectFlight
	statePassengers
	stateLoadingSeats
	stateSeatMap
	stateReview
	stateSubmitting
	stateConfirmation
	stateError
)

// Gateway is the booking backend as seen by the screens.
type Gateway interface {
	booking.FlightSearcher
	booking.SeatInventory
	booking.TicketPurchaser
}

type AirportFinder interface {
	Search(ctx context.Context, query string, exclude string) ([]model.Airport, error)
}

// Locator guesses where the user is so the origin can be prefilled.
type Locator interface {
	Locate(ctx context.Context) (service.Place, error)
}

type Options struct {
	Gateway  Gateway
	Airports AirportFinder
	Locator  Locator
	Booking  config.Booking
	Logger   *zap.Logger
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

type appModel struct {
	session   *booking.Session
	flights   *booking.FlightWorkflow
	seats     *booking.SeatEngine
	purchaser *booking.Purchaser
	airports  AirportFinder
	locator   Locator
	logger    *zap.Logger
	settings  config.Booking

	state     appState
	lastState appState
	err       error
	notice    string

	width  int
	height int

	form       searchForm
	flightList list.Model
	passengers passengerForm

	seatLeg         booking.Leg
	cursorRow       int
	cursorCol       int
	showSeatNumbers bool

	confirmation model.PurchaseResponse

	spinner spinner.Model
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type flightsMsg struct {
	board booking.DayBoard
}

type seatsMsg struct {
	snap booking.SeatSnapshot
}

type purchaseMsg struct {
	result booking.PurchaseResult
}

func New(opts Options) tea.Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionOpts := []booking.SessionOption{
		booking.WithLogger(logger),
		booking.WithStrictInvariants(opts.Booking.StrictInvariants),
	}
	if opts.Now != nil {
		sessionOpts = append(sessionOpts, booking.WithClock(opts.Now))
	}
	session := booking.NewSession(sessionOpts...)
	if opts.Booking.SearchDebounce <= 0 {
		opts.Booking.SearchDebounce = 300 * time.Millisecond
	}

	m := appModel{
		session:   session,
		flights:   booking.NewFlightWorkflow(session, opts.Gateway),
		seats:     booking.NewSeatEngine(session, opts.Gateway),
		purchaser: booking.NewPurchaser(session, opts.Gateway, logger),
		airports:  opts.Airports,
		locator:   opts.Locator,
		logger:    logger,
		settings:  opts.Booking,
		state:     stateSearch,
	}
	m.form = newSearchForm(session.Today(), opts.Booking.SearchDebounce)
	m.flightList = newList("Flights")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return recentRoutesMsg{routes: startupRecentRoutes()}
	})
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		return m.updateFocused(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case recentRoutesMsg:
		m.form.recent = msg.routes
		if m.form.inputs[fieldOrigin].Value() == "" && m.form.inputs[fieldDestination].Value() == "" {
			return m, m.form.applyRecent()
		}
		return m, nil

	case airportDebounceMsg:
		if !msg.field.isAirport() || msg.seq != m.form.airports[msg.field].seq {
			return m, nil
		}
		return m, m.lookupAirportsCmd(msg.field, msg.seq)

	case locatedMsg:
		next, cmd := m.applyLocation(msg)
		return next, cmd

	case airportsMsg:
		if m.form.applyAirports(msg) && msg.err != nil {
			m.logger.Debug("airport lookup failed", zap.String("query", msg.query), zap.Error(msg.err))
		}
		return m, nil

	case flightsMsg:
		return m.applyFlights(msg.board)

	case seatsMsg:
		return m.applySeats(msg.snap)

	case purchaseMsg:
		return m.finishPurchase(msg.result)
	}

	return m.updateFocused(msg)
}

// updateFocused forwards a message to whichever component owns input in the current state.
func (m appModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateSearch:
		field := m.form.focus
		before := m.form.inputs[field].Value()
		var cmd tea.Cmd
		m.form.inputs[field], cmd = m.form.inputs[field].Update(msg)
		if m.form.inputs[field].Value() == before {
			return m, cmd
		}
		delete(m.form.errs, field)
		if field.isAirport() {
			return m, tea.Batch(cmd, m.form.edited(field))
		}
		return m, cmd
	case statePassengers:
		return m, m.passengers.update(msg)
	case stateSelectFlight:
		var cmd tea.Cmd
		m.flightList, cmd = m.flightList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) View() string {
	header := m.headerView()
	body := ""
	switch m.state {
	case stateLoadingFlights, stateLoadingSeats, stateSubmitting:
		body = m.loadingView()
	case stateSearch:
		body = m.form.view()
	case stateSelectFlight:
		body = m.flightsView()
	case statePassengers:
		body = m.passengers.view()
	case stateSeatMap:
		body = m.renderSeatMap()
	case stateReview:
		body = m.reviewView()
	case stateConfirmation:
		body = m.confirmationView()
	case stateError:
		body = errorStyle.Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	}
	if m.notice != "" && m.state != stateError {
		body += "\n\n" + noticeStyle.Render(m.notice)
	}
	return header + "\n\n" + body
}

func (m appModel) headerView() string {
	title := titleStyle.Render("Flightbook")
	var sub []string
	if c, ok := m.session.Criteria(); ok && m.state != stateSearch {
		route := fmt.Sprintf("%s → %s", c.OriginCode, c.DestinationCode)
		if c.IsRoundTrip() {
			route = fmt.Sprintf("%s ⇄ %s", c.OriginCode, c.DestinationCode)
		}
		sub = append(sub, route)
		sub = append(sub, fmt.Sprintf("%d pax", c.PassengerCount))
	}
	if f, ok := m.session.OutboundFlight(); ok && m.state != stateSearch {
		sub = append(sub, "Out: "+f.FlightNumber)
	}
	if f, ok := m.session.ReturnFlight(); ok && m.state != stateSearch {
		sub = append(sub, "Ret: "+f.FlightNumber)
	}
	if m.state == stateSeatMap || m.state == stateLoadingSeats {
		sub = append(sub, fmt.Sprintf("Seats: %s leg", m.seatLeg))
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + hint(meta)
	}

	hints := "ctrl+c quit • esc back"
	switch m.state {
	case stateSearch:
		hints = "ctrl+c quit • tab/↑↓ move • enter next/pick • ctrl+t trip type • ctrl+r recent route • ctrl+l nearby airport • ctrl+s search"
	case stateSelectFlight:
		hints = "ctrl+c quit • esc back • ←/→ day • type to filter • enter select"
	case statePassengers:
		hints = "ctrl+c quit • esc back • tab/↑↓ field • pgup/pgdn passenger • ctrl+o contact • ctrl+s continue"
	case stateSeatMap:
		hints = "ctrl+c quit • esc back • arrows move • enter/space seat • n numbers • r refresh • c confirm"
	case stateReview:
		hints = "ctrl+c quit • esc back • enter buy tickets"
	case stateConfirmation:
		hints = "ctrl+c quit • enter new search"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "q":
		if m.state == stateConfirmation || m.state == stateError {
			return m, tea.Quit, true
		}
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	}

	switch m.state {
	case stateSearch:
		return m.handleSearchKey(msg)
	case stateSelectFlight:
		return m.handleFlightKey(msg)
	case statePassengers:
		return m.handlePassengerKey(msg)
	case stateSeatMap:
		return m.handleSeatKey(msg)
	case stateReview:
		if msg.String() == "enter" {
			return m.submitPurchase()
		}
		return m, nil, true
	case stateConfirmation:
		if msg.String() == "enter" {
			m.state = stateSearch
			m.notice = ""
			return m, nil, true
		}
		return m, nil, true
	case stateLoadingFlights, stateLoadingSeats, stateSubmitting, stateError:
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if p := m.form.suggestions(); p != nil {
		switch msg.String() {
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
			return m, nil, true
		case "down":
			if p.cursor < len(p.suggestions)-1 {
				p.cursor++
			}
			return m, nil, true
		case "enter":
			refresh := m.form.pick(m.form.focus, p.suggestions[p.cursor])
			return m, tea.Batch(refresh, m.form.moveFocus(1)), true
		}
	}
	switch msg.String() {
	case "tab", "down":
		return m, m.form.moveFocus(1), true
	case "shift+tab", "up":
		return m, m.form.moveFocus(-1), true
	case "ctrl+t":
		m.form.toggleTrip()
		return m, nil, true
	case "ctrl+r":
		return m, m.form.applyRecent(), true
	case "ctrl+l":
		if m.locator == nil || m.airports == nil {
			return m, nil, true
		}
		m.notice = "Detecting your location..."
		return m, m.detectOriginCmd(), true
	case "ctrl+s":
		return m.submitSearch()
	case "enter":
		if m.form.focus == fieldPassengers {
			return m.submitSearch()
		}
		return m, m.form.moveFocus(1), true
	}
	return m, nil, false
}

func (m appModel) submitSearch() (tea.Model, tea.Cmd, bool) {
	m.notice = ""
	c, ok := m.form.criteria()
	if !ok {
		return m, nil, true
	}
	if err := m.session.StartSearch(c); err != nil {
		if m.form.reject(err) {
			return m, nil, true
		}
		return m, errWithOptionsCmd(err, stateSearch), true
	}
	m.flights.Restart()
	var cmds []tea.Cmd
	origin, destination := m.form.airports[fieldOrigin].picked, m.form.airports[fieldDestination].picked
	if origin.IataCode != "" && destination.IataCode != "" {
		cmds = append(cmds, rememberRouteCmd(origin, destination))
	}
	next, cmd := m.startFlightFetch()
	return next, tea.Batch(append(cmds, cmd)...), true
}

func (m appModel) startFlightFetch() (tea.Model, tea.Cmd) {
	req, err := m.flights.Begin()
	if err != nil {
		return m, errCmd(err)
	}
	m.state = stateLoadingFlights
	m.flightList.ResetFilter()
	workflow := m.flights
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return flightsMsg{board: workflow.Fetch(ctx, req)}
	})
}

func (m appModel) applyFlights(board booking.DayBoard) (tea.Model, tea.Cmd) {
	if err := m.flights.Apply(board); err != nil {
		if errors.Is(err, booking.ErrStaleResponse) {
			return m, nil
		}
		return m, errWithOptionsCmd(err, m.flightErrorState())
	}
	if m.state != stateLoadingFlights {
		return m, nil
	}
	m.refreshFlightList()
	m.state = stateSelectFlight
	return m, nil
}

// flightErrorState is where a failed flight search returns to.
func (m appModel) flightErrorState() appState {
	if _, ok := m.flights.Board(); ok {
		return stateSelectFlight
	}
	return stateSearch
}

func (m *appModel) refreshFlightList() {
	title := "Outbound flights"
	if m.flights.Stage() == booking.SelectingReturn {
		title = "Return flights"
	}
	if board, ok := m.flights.Board(); ok {
		title += " • " + board.Day(m.flights.Tab()).Date.Format("Mon 02 Jan 2006")
	}
	m.flightList.Title = title
	m.flightList.ResetFilter()
	m.flightList.SetItems(buildFlightItems(m.flights.Flights()))
	m.flightList.Select(0)
}

func (m appModel) handleFlightKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "left", "right":
		offset := m.flights.Tab() - 1
		if msg.String() == "right" {
			offset = m.flights.Tab() + 1
		}
		if err := m.flights.SelectTab(offset); err != nil {
			m.notice = err.Error()
			return m, nil, true
		}
		m.notice = ""
		m.refreshFlightList()
		return m, nil, true
	case "enter":
		item, ok := m.flightList.SelectedItem().(flightItem)
		if !ok {
			return m, nil, true
		}
		stage, err := m.flights.Select(item.flight)
		if err != nil {
			return m, errWithOptionsCmd(err, stateSelectFlight), true
		}
		m.notice = ""
		if stage == booking.SelectingReturn {
			next, cmd := m.startFlightFetch()
			return next, cmd, true
		}
		m.passengers = newPassengerForm(booking.RosterFor(m.session, m.settings.StrictPhone))
		m.state = statePassengers
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) handlePassengerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "down":
		return m, m.passengers.move(1), true
	case "shift+tab", "up":
		return m, m.passengers.move(-1), true
	case "pgdown":
		return m, m.passengers.jump(1), true
	case "pgup":
		return m, m.passengers.jump(-1), true
	case "ctrl+o":
		m.passengers.markContact()
		return m, nil, true
	case "enter":
		if m.passengers.focus < m.passengers.size()-1 {
			return m, m.passengers.move(1), true
		}
		return m.submitPassengers()
	case "ctrl+s":
		return m.submitPassengers()
	}
	return m, nil, false
}

func (m appModel) submitPassengers() (tea.Model, tea.Cmd, bool) {
	cmd, err := m.passengers.submit(m.session)
	if err != nil {
		return m, errWithOptionsCmd(err, statePassengers), true
	}
	if m.passengers.errs != nil {
		return m, cmd, true
	}
	m.notice = ""
	next, fetch := m.openSeats(booking.Outbound)
	return next, fetch, true
}

// openSeats shows the leg's seat map, fetching it first unless it is already loaded.
func (m appModel) openSeats(leg booking.Leg) (tea.Model, tea.Cmd) {
	flightID, err := m.seats.Request(leg)
	if err != nil {
		return m, errCmd(err)
	}
	m.seatLeg = leg
	m.cursorRow, m.cursorCol = 0, 0
	if m.session.InventoryLoaded(leg) {
		m.state = stateSeatMap
		return m, nil
	}
	return m.fetchSeats(leg, flightID)
}

func (m appModel) fetchSeats(leg booking.Leg, flightID int64) (tea.Model, tea.Cmd) {
	m.state = stateLoadingSeats
	engine := m.seats
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		return seatsMsg{snap: engine.Fetch(ctx, leg, flightID)}
	})
}

func (m appModel) applySeats(snap booking.SeatSnapshot) (tea.Model, tea.Cmd) {
	if err := m.seats.Apply(snap); err != nil {
		if errors.Is(err, booking.ErrStaleResponse) {
			return m, nil
		}
		if m.session.InventoryLoaded(snap.Leg) {
			return m, errWithOptionsCmd(err, stateSeatMap)
		}
		return m, errWithOptionsCmd(err, statePassengers)
	}
	if m.state == stateLoadingSeats && snap.Leg == m.seatLeg {
		m.state = stateSeatMap
		m.clampCursor()
	}
	return m, nil
}

func (m appModel) handleSeatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "up":
		m.cursorRow--
	case "down":
		m.cursorRow++
	case "left":
		m.cursorCol--
	case "right":
		m.cursorCol++
	case "n":
		m.showSeatNumbers = !m.showSeatNumbers
		return m, nil, true
	case "r":
		flightID, err := m.seats.Request(m.seatLeg)
		if err != nil {
			return m, errCmd(err), true
		}
		next, cmd := m.fetchSeats(m.seatLeg, flightID)
		return next, cmd, true
	case "enter", " ":
		return m.clickSeat()
	case "c":
		return m.confirmSeats()
	default:
		return m, nil, true
	}
	m.clampCursor()
	return m, nil, true
}

func (m *appModel) clampCursor() {
	layout := buildSeatLayout(m.session.Seats(m.seatLeg))
	m.cursorRow = min(max(m.cursorRow, 0), max(len(layout.rows)-1, 0))
	m.cursorCol = min(max(m.cursorCol, 0), max(len(layout.cols)-1, 0))
}

func (m appModel) clickSeat() (tea.Model, tea.Cmd, bool) {
	layout := buildSeatLayout(m.session.Seats(m.seatLeg))
	seat, ok := layout.at(m.cursorRow, m.cursorCol)
	if !ok {
		return m, nil, true
	}
	res, err := m.seats.Click(m.seatLeg, seat.SeatNumber)
	switch {
	case err == nil:
	case errors.Is(err, booking.ErrAllSeated), errors.Is(err, booking.ErrSeatConflict):
		m.notice = err.Error()
		return m, nil, true
	default:
		return m, errWithOptionsCmd(err, stateSeatMap), true
	}
	switch res.Outcome {
	case booking.SeatAssigned:
		m.notice = fmt.Sprintf("Seat %s → P%d", res.SeatNumber, res.Passenger+1)
	case booking.SeatReleased:
		m.notice = fmt.Sprintf("Seat %s released from P%d", res.SeatNumber, res.Passenger+1)
	default:
		m.notice = fmt.Sprintf("Seat %s is booked", seat.SeatNumber)
	}
	return m, nil, true
}

func (m appModel) confirmSeats() (tea.Model, tea.Cmd, bool) {
	if err := m.seats.Confirm(m.seatLeg); err != nil {
		if errors.Is(err, booking.ErrIncompleteAssignment) {
			m.notice = "Pick a seat for every passenger first."
			return m, nil, true
		}
		return m, errWithOptionsCmd(err, stateSeatMap), true
	}
	m.notice = ""
	if m.seatLeg == booking.Outbound && m.session.TripType() == model.RoundTrip {
		next, cmd := m.openSeats(booking.Return)
		return next, cmd, true
	}
	m.state = stateReview
	return m, nil, true
}

func (m appModel) submitPurchase() (tea.Model, tea.Cmd, bool) {
	order, err := m.purchaser.Begin()
	if err != nil {
		if errors.Is(err, booking.ErrSubmitInProgress) {
			return m, nil, true
		}
		return m, errWithOptionsCmd(err, stateReview), true
	}
	m.state = stateSubmitting
	m.notice = ""
	purchaser := m.purchaser
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return purchaseMsg{result: purchaser.Send(ctx, order)}
	}), true
}

func (m appModel) finishPurchase(res booking.PurchaseResult) (tea.Model, tea.Cmd) {
	err := m.purchaser.Finish(res)
	if err == nil {
		m.confirmation = res.Response
		m.state = stateConfirmation
		m.form = newSearchForm(m.session.Today(), m.settings.SearchDebounce)
		m.form.recent = startupRecentRoutes()
		return m, m.form.applyRecent()
	}
	if errors.Is(err, booking.ErrSeatConflict) {
		// Refetching drops the seats that were taken and reopens confirmation.
		m.notice = err.Error() + ". Pick another seat."
		flightID, reqErr := m.seats.Request(booking.Outbound)
		if reqErr != nil {
			return m, errWithOptionsCmd(reqErr, stateReview)
		}
		m.seatLeg = booking.Outbound
		next, cmd := m.fetchSeats(booking.Outbound, flightID)
		if f, ok := m.session.ReturnFlight(); ok {
			engine := m.seats
			cmd = tea.Batch(cmd, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
				defer cancel()
				return seatsMsg{snap: engine.Fetch(ctx, booking.Return, f.Id)}
			})
		}
		return next, cmd
	}
	return m, errWithOptionsCmd(err, stateReview)
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	m.notice = ""
	switch m.state {
	case stateSelectFlight:
		if m.flights.Stage() == booking.SelectingReturn {
			if err := m.flights.ChangeOutbound(); err != nil {
				return m, errCmd(err)
			}
			return m.startFlightFetch()
		}
		m.state = stateSearch
	case statePassengers:
		change := m.flights.ChangeOutbound
		if m.session.TripType() == model.RoundTrip {
			change = m.flights.ChangeReturn
		}
		if err := change(); err != nil {
			return m, errCmd(err)
		}
		return m.startFlightFetch()
	case stateSeatMap:
		if m.seatLeg == booking.Return {
			m.seatLeg = booking.Outbound
			m.cursorRow, m.cursorCol = 0, 0
			return m, nil
		}
		m.passengers = newPassengerForm(booking.RosterFor(m.session, m.settings.StrictPhone))
		m.state = statePassengers
	case stateReview:
		m.state = stateSeatMap
	case stateError:
		m.state = m.lastState
	default:
		return m, nil
	}
	return m, nil
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	if m.state == stateSelectFlight {
		return &m.flightList
	}
	return nil
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingFlights ||
		m.state == stateLoadingSeats ||
		m.state == stateSubmitting
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingFlights:
		title = "Searching outbound flights"
		if m.flights.Stage() == booking.SelectingReturn {
			title = "Searching return flights"
		}
	case stateLoadingSeats:
		title = fmt.Sprintf("Loading %s seat map", m.seatLeg)
	case stateSubmitting:
		title = "Buying tickets"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Talking to the booking service..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 10
	if h < 6 {
		h = 6
	}
	m.flightList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithOptionsCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingFlights:
		return stateSearch
	case stateLoadingSeats:
		return statePassengers
	case stateSubmitting:
		return stateReview
	case stateError:
		return stateSearch
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}
