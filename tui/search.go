package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"flightbook/booking"
	"flightbook/model"
	"flightbook/service"
	"flightbook/store"
)

type searchField int

const (
	fieldOrigin searchField = iota
	fieldDestination
	fieldDeparture
	fieldReturn
	fieldPassengers
	searchFieldCount
)

// criteriaFields maps validation field names back to form fields.
var criteriaFields = map[string]searchField{
	"originCode":      fieldOrigin,
	"destinationCode": fieldDestination,
	"departureDate":   fieldDeparture,
	"returnDate":      fieldReturn,
	"passengerCount":  fieldPassengers,
}

// airportPick tracks one airport input: the chosen airport and the lookup in flight.
type airportPick struct {
	picked      model.Airport
	seq         uint64
	suggestions []model.Airport
	cursor      int
	lookupErr   error
}

type searchForm struct {
	inputs    [searchFieldCount]textinput.Model
	airports  [2]airportPick
	focus     searchField
	roundTrip bool
	errs      map[searchField]string
	recent    []store.RecentRoute
	recentIdx int
	debounce  time.Duration
}

type recentRoutesMsg struct {
	routes []store.RecentRoute
}

type locatedMsg struct {
	place   service.Place
	airport model.Airport
	err     error
}

type airportDebounceMsg struct {
	field searchField
	seq   uint64
}

type airportsMsg struct {
	field    searchField
	seq      uint64
	query    string
	exclude  string
	airports []model.Airport
	err      error
}

func newSearchForm(today time.Time, debounce time.Duration) searchForm {
	f := searchForm{errs: map[searchField]string{}, debounce: debounce}
	placeholders := [searchFieldCount]string{
		fieldOrigin:      "city, airport or code",
		fieldDestination: "city, airport or code",
		fieldDeparture:   today.AddDate(0, 0, 7).Format(time.DateOnly),
		fieldReturn:      today.AddDate(0, 0, 14).Format(time.DateOnly),
		fieldPassengers:  "1",
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = ""
		in.Width = 32
		f.inputs[i] = in
	}
	f.inputs[fieldDeparture].CharLimit = len(time.DateOnly)
	f.inputs[fieldReturn].CharLimit = len(time.DateOnly)
	f.inputs[fieldPassengers].CharLimit = 1
	f.inputs[fieldPassengers].SetValue("1")
	f.inputs[fieldOrigin].Focus()
	return f
}

func (f searchField) label() string {
	switch f {
	case fieldOrigin:
		return "From"
	case fieldDestination:
		return "To"
	case fieldDeparture:
		return "Departure"
	case fieldReturn:
		return "Return"
	default:
		return "Passengers"
	}
}

func (f searchField) isAirport() bool {
	return f == fieldOrigin || f == fieldDestination
}

// other is the opposite end of the route.
func (f searchField) other() searchField {
	if f == fieldOrigin {
		return fieldDestination
	}
	return fieldOrigin
}

func (f *searchForm) visible(field searchField) bool {
	return field != fieldReturn || f.roundTrip
}

func (f *searchForm) setFocus(field searchField) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = field
	return f.inputs[field].Focus()
}

func (f *searchForm) moveFocus(delta int) tea.Cmd {
	next := f.focus
	for {
		next = searchField((int(next) + delta + int(searchFieldCount)) % int(searchFieldCount))
		if f.visible(next) {
			return f.setFocus(next)
		}
	}
}

func (f *searchForm) toggleTrip() {
	f.roundTrip = !f.roundTrip
	delete(f.errs, fieldReturn)
	if !f.visible(f.focus) {
		f.setFocus(fieldPassengers)
	}
}

// pick fills an airport input with a chosen airport and drops pending lookups. The
// returned command refreshes the other field's suggestions, which must not offer it.
func (f *searchForm) pick(field searchField, airport model.Airport) tea.Cmd {
	p := &f.airports[field]
	p.picked = airport
	p.seq++
	p.suggestions = nil
	p.cursor = 0
	p.lookupErr = nil
	f.inputs[field].SetValue(airport.Label())
	f.inputs[field].CursorEnd()
	delete(f.errs, field)
	return f.pickChanged(field)
}

// applyRecent fills both airports from the next remembered route.
func (f *searchForm) applyRecent() tea.Cmd {
	if len(f.recent) == 0 {
		return nil
	}
	route := f.recent[f.recentIdx%len(f.recent)]
	f.recentIdx++
	return tea.Batch(
		f.pick(fieldOrigin, route.Origin),
		f.pick(fieldDestination, route.Destination),
	)
}

// edited is called after an airport input changed. It returns the debounce tick for the
// new text, or nil when the text is too short to search.
func (f *searchForm) edited(field searchField) tea.Cmd {
	p := &f.airports[field]
	hadPick := p.picked.IataCode != ""
	p.picked = model.Airport{}
	delete(f.errs, field)
	cmd := f.scheduleLookup(field)
	if hadPick {
		return tea.Batch(cmd, f.pickChanged(field))
	}
	return cmd
}

// scheduleLookup invalidates the field's pending lookup and debounces a new one.
func (f *searchForm) scheduleLookup(field searchField) tea.Cmd {
	p := &f.airports[field]
	p.seq++
	p.lookupErr = nil
	if utf8.RuneCountInString(strings.TrimSpace(f.inputs[field].Value())) < service.MinAirportQueryLen {
		p.suggestions = nil
		p.cursor = 0
		return nil
	}
	seq := p.seq
	return tea.Tick(f.debounce, func(time.Time) tea.Msg {
		return airportDebounceMsg{field: field, seq: seq}
	})
}

// pickChanged re-runs the lookup of the field opposite to one whose pick changed.
func (f *searchForm) pickChanged(field searchField) tea.Cmd {
	other := field.other()
	p := &f.airports[other]
	if p.picked.IataCode != "" {
		return nil
	}
	if code := f.airports[field].picked.IataCode; code != "" {
		p.suggestions = slices.DeleteFunc(p.suggestions, func(a model.Airport) bool {
			return a.IataCode == code
		})
		p.cursor = min(p.cursor, max(len(p.suggestions)-1, 0))
	}
	return f.scheduleLookup(other)
}

// applyAirports shows lookup results only if they answer the text still in the input
// and were filtered against the airport now picked in the other field.
func (f *searchForm) applyAirports(msg airportsMsg) bool {
	if !msg.field.isAirport() {
		return false
	}
	p := &f.airports[msg.field]
	if msg.seq != p.seq || strings.TrimSpace(f.inputs[msg.field].Value()) != msg.query {
		return false
	}
	if msg.exclude != f.airports[msg.field.other()].picked.IataCode {
		return false
	}
	p.lookupErr = msg.err
	p.suggestions = msg.airports
	p.cursor = 0
	return true
}

func (f *searchForm) suggestions() *airportPick {
	if !f.focus.isAirport() {
		return nil
	}
	p := &f.airports[f.focus]
	if len(p.suggestions) == 0 {
		return nil
	}
	return p
}

func (f *searchForm) airportCode(field searchField) string {
	if code := f.airports[field].picked.IataCode; code != "" {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(f.inputs[field].Value()))
}

// criteria parses the form. Parse failures are reported per field; range checks are
// left to the session.
func (f *searchForm) criteria() (model.SearchCriteria, bool) {
	f.errs = map[searchField]string{}
	c := model.SearchCriteria{
		TripType:        model.OneWay,
		OriginCode:      f.airportCode(fieldOrigin),
		DestinationCode: f.airportCode(fieldDestination),
	}
	if f.roundTrip {
		c.TripType = model.RoundTrip
	}
	for _, field := range []searchField{fieldOrigin, fieldDestination} {
		if f.airports[field].picked.IataCode == "" && len(f.airportCode(field)) != 3 {
			f.errs[field] = "pick an airport from the list"
		}
	}
	if d, ok := f.parseDate(fieldDeparture); ok {
		c.DepartureDate = d
	}
	if f.roundTrip {
		if d, ok := f.parseDate(fieldReturn); ok {
			c.ReturnDate = d
		}
	}
	count, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldPassengers].Value()))
	if err != nil {
		f.errs[fieldPassengers] = "must be a number from 1 to 9"
	}
	c.PassengerCount = count
	return c, len(f.errs) == 0
}

func (f *searchForm) parseDate(field searchField) (time.Time, bool) {
	value := strings.TrimSpace(f.inputs[field].Value())
	if value == "" {
		value = f.inputs[field].Placeholder
	}
	d, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		f.errs[field] = "use YYYY-MM-DD"
		return time.Time{}, false
	}
	return d, true
}

// reject copies session validation errors onto the form fields.
func (f *searchForm) reject(err error) bool {
	var verr *booking.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for _, fe := range verr.Fields {
		field, ok := criteriaFields[fe.Field]
		if !ok {
			field = fieldOrigin
		}
		if _, exists := f.errs[field]; !exists {
			f.errs[field] = fe.Message
		}
	}
	return true
}

func (f searchForm) view() string {
	var b strings.Builder
	trip := "One way"
	if f.roundTrip {
		trip = "Round trip"
	}
	b.WriteString(chipStyle.Render(trip))
	b.WriteString("  ")
	b.WriteString(hint("ctrl+t switch"))
	b.WriteString("\n\n")
	for field := fieldOrigin; field < searchFieldCount; field++ {
		if !f.visible(field) {
			continue
		}
		label := fmt.Sprintf("%-11s", field.label())
		if field == f.focus {
			label = focusStyle.Render(label)
		}
		b.WriteString(label + " " + f.inputs[field].View())
		if field.isAirport() && f.airports[field].picked.IataCode != "" {
			b.WriteString(" " + seatFree.Render("✓"))
		}
		b.WriteString("\n")
		if msg, ok := f.errs[field]; ok {
			b.WriteString(strings.Repeat(" ", 12) + errorStyle.Render(msg) + "\n")
		}
		if field == f.focus && field.isAirport() {
			b.WriteString(f.suggestionsView(field))
		}
	}
	if len(f.recent) > 0 {
		b.WriteString("\n")
		route := f.recent[f.recentIdx%len(f.recent)]
		b.WriteString(hint(fmt.Sprintf("ctrl+r recent: %s → %s", route.Origin.Label(), route.Destination.Label())))
	}
	return b.String()
}

func (f searchForm) suggestionsView(field searchField) string {
	p := f.airports[field]
	indent := strings.Repeat(" ", 12)
	if p.lookupErr != nil {
		return indent + errorStyle.Render("airport lookup failed: "+p.lookupErr.Error()) + "\n"
	}
	var b strings.Builder
	for i, a := range p.suggestions {
		if i == 6 {
			b.WriteString(indent + hint(fmt.Sprintf("… %d more", len(p.suggestions)-i)) + "\n")
			break
		}
		line := fmt.Sprintf("%s  %s, %s", a.IataCode, a.Name, a.Country)
		if a.Name == "" {
			line = a.Label()
		}
		if i == p.cursor {
			line = focusStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(indent + line + "\n")
	}
	return b.String()
}

func (m appModel) lookupAirportsCmd(field searchField, seq uint64) tea.Cmd {
	if m.airports == nil {
		return nil
	}
	query := strings.TrimSpace(m.form.inputs[field].Value())
	exclude := m.form.airports[field.other()].picked.IataCode
	finder := m.airports
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		airports, err := finder.Search(ctx, query, exclude)
		return airportsMsg{field: field, seq: seq, query: query, exclude: exclude, airports: airports, err: err}
	}
}

func rememberRouteCmd(origin, destination model.Airport) tea.Cmd {
	return func() tea.Msg {
		_ = store.RememberRoute(origin, destination)
		return nil
	}
}

func startupRecentRoutes() []store.RecentRoute {
	routes, err := store.LoadRecentRoutes()
	if err != nil {
		return nil
	}
	return routes
}

// detectOriginCmd resolves the user's city and the first airport serving it.
func (m appModel) detectOriginCmd() tea.Cmd {
	locator, finder := m.locator, m.airports
	exclude := m.form.airports[fieldDestination].picked.IataCode
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		place, err := locator.Locate(ctx)
		if err != nil {
			return locatedMsg{err: err}
		}
		airports, err := finder.Search(ctx, place.City, exclude)
		if err != nil {
			return locatedMsg{place: place, err: err}
		}
		if len(airports) == 0 {
			return locatedMsg{place: place, err: fmt.Errorf("no airport found near %s", place.City)}
		}
		return locatedMsg{place: place, airport: airports[0]}
	}
}

// applyLocation fills the origin unless the user picked one meanwhile.
func (m appModel) applyLocation(msg locatedMsg) (appModel, tea.Cmd) {
	if msg.err != nil {
		m.logger.Debug("location lookup failed", zap.Error(msg.err))
		m.notice = "Could not detect a nearby airport: " + msg.err.Error()
		return m, nil
	}
	if m.form.airports[fieldOrigin].picked.IataCode != "" {
		m.notice = ""
		return m, nil
	}
	cmd := m.form.pick(fieldOrigin, msg.airport)
	m.notice = fmt.Sprintf("Departing from %s (near %s)", msg.airport.Label(), msg.place.City)
	return m, cmd
}
