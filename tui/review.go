package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"flightbook/booking"
	"flightbook/model"
)

type flightItem struct {
	flight model.FlightOption
}

func (f flightItem) Title() string {
	return fmt.Sprintf("%s → %s  %s",
		f.flight.DepartureTime.Format("15:04"),
		f.flight.ArrivalTime.Format("15:04"),
		f.flight.FlightNumber)
}

func (f flightItem) Description() string {
	price := formatPrice(f.flight.Price())
	if f.flight.DiscountPrice != nil && *f.flight.DiscountPrice > 0 && *f.flight.DiscountPrice < f.flight.CurrentPrice {
		price = fmt.Sprintf("%s (was %s)", price, formatPrice(f.flight.CurrentPrice))
	}
	return fmt.Sprintf("%s → %s • %s • %s",
		f.flight.DepartureAirport.Label(),
		f.flight.ArrivalAirport.Label(),
		formatDuration(f.flight.Duration()),
		price)
}

func (f flightItem) FilterValue() string {
	return f.flight.FlightNumber + " " + f.flight.DepartureTime.Format("15:04")
}

func buildFlightItems(flights []model.FlightOption) []list.Item {
	items := make([]list.Item, 0, len(flights))
	for _, f := range flights {
		items = append(items, flightItem{flight: f})
	}
	return items
}

func (m appModel) flightsView() string {
	board, ok := m.flights.Board()
	if !ok {
		return "No flights loaded."
	}
	var b strings.Builder
	b.WriteString(dayTabs(board, m.flights.Tab()))
	b.WriteString("\n\n")
	day := board.Day(m.flights.Tab())
	switch {
	case day.Err != nil:
		b.WriteString(errorStyle.Render("Could not load this day: " + day.Err.Error()))
	case len(day.Flights) == 0:
		b.WriteString("No flights on this day. Try another tab.")
	default:
		b.WriteString(m.flightList.View())
	}
	return b.String()
}

func (m appModel) legSummary(leg booking.Leg) string {
	f, ok := m.session.Flight(leg)
	if !ok {
		return ""
	}
	label := "Outbound"
	if leg == booking.Return {
		label = "Return"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(label) + "  " + flightLine(f) + "\n")
	seats := m.session.SeatMap(leg)
	for i, p := range m.session.Passengers() {
		seat, _ := m.session.Seat(leg, seats[i])
		b.WriteString(fmt.Sprintf("  P%d %-24s %-4s %s\n", i+1, p.FullName(), seats[i], formatPrice(seat.Price)))
	}
	b.WriteString(hint(fmt.Sprintf("  fare %s × %d • seats %s",
		formatPrice(f.Price()), m.session.PassengerCount(), formatPrice(m.session.SeatTotal(leg)))))
	return b.String()
}

func (m appModel) reviewView() string {
	var parts []string
	total := 0.0
	for _, leg := range m.session.ActiveLegs() {
		parts = append(parts, m.legSummary(leg))
		if f, ok := m.session.Flight(leg); ok {
			total += f.Price()*float64(m.session.PassengerCount()) + m.session.SeatTotal(leg)
		}
	}
	if contact, ok := m.session.ContactPassenger(); ok {
		parts = append(parts, fmt.Sprintf("Contact: %s <%s>", contact.FullName(), contact.Email))
	}
	parts = append(parts, chipStyle.Render("Estimated total "+formatPrice(total)))
	if err := m.session.ReadyForPurchase(); err != nil {
		parts = append(parts, errorStyle.Render(err.Error()))
	}
	return panelStyle.Render(strings.Join(parts, "\n\n"))
}

func (m appModel) confirmationView() string {
	res := m.confirmation
	var b strings.Builder
	b.WriteString(chipStyle.Render("PNR " + res.Pnr))
	b.WriteString("\n\n")
	if res.FlightNumber != "" {
		b.WriteString(fmt.Sprintf("%s  %s  %s → %s\n", res.FlightNumber, res.Route,
			res.DepartureTime.Format("02 Jan 15:04"), res.ArrivalTime.Format("15:04")))
	}
	for _, t := range res.Tickets {
		b.WriteString(fmt.Sprintf("  #%-6d %-24s %s\n", t.TicketId, t.PassengerName, t.SeatNumber))
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Total paid " + formatPrice(res.TotalPrice)))
	b.WriteString("\n\n")
	b.WriteString(hint("Keep the PNR and a passenger's national id to look up or cancel tickets."))
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}
