package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"flightbook/booking"
	"flightbook/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	tabStyle     = lipgloss.NewStyle().Padding(0, 2)
	activeTab    = tabStyle.Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63"))
	disabledTab  = tabStyle.Faint(true).Strikethrough(true)
	chipStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63")).Padding(0, 2)
	panelStyle   = lipgloss.NewStyle().Padding(1, 3).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("63"))
	seatFree     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatBusiness = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	seatTaken    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatMine     = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	seatCursor   = lipgloss.NewStyle().Reverse(true)
)

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func formatPrice(price float64) string {
	if price <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f TL", price)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

func flightLine(f model.FlightOption) string {
	return fmt.Sprintf("%s %s → %s %s  %s",
		f.DepartureAirport.IataCode, f.DepartureTime.Format("02 Jan 15:04"),
		f.ArrivalAirport.IataCode, f.ArrivalTime.Format("15:04"),
		f.FlightNumber)
}

// dayTabs renders the three day tabs around the anchor date.
func dayTabs(board booking.DayBoard, active booking.DayOffset) string {
	var tabs []string
	for _, day := range board.Days {
		label := day.Date.Format("Mon 02 Jan")
		switch {
		case day.Skipped:
			tabs = append(tabs, disabledTab.Render(label))
			continue
		case day.Err != nil:
			label += " !"
		default:
			label += fmt.Sprintf(" (%d)", len(day.Flights))
		}
		if day.Offset == active {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

type seatLayout struct {
	rows  []int
	cols  []string
	seats map[int]map[string]model.Seat
}

func buildSeatLayout(seats []model.Seat) seatLayout {
	layout := seatLayout{seats: map[int]map[string]model.Seat{}}
	colSet := map[string]bool{}
	for _, seat := range seats {
		row := seat.Row()
		if _, ok := layout.seats[row]; !ok {
			layout.seats[row] = map[string]model.Seat{}
			layout.rows = append(layout.rows, row)
		}
		layout.seats[row][seat.Column()] = seat
		colSet[seat.Column()] = true
	}
	for col := range colSet {
		layout.cols = append(layout.cols, col)
	}
	sort.Ints(layout.rows)
	sort.Strings(layout.cols)
	return layout
}

func (l seatLayout) at(r, c int) (model.Seat, bool) {
	if r < 0 || r >= len(l.rows) || c < 0 || c >= len(l.cols) {
		return model.Seat{}, false
	}
	seat, ok := l.seats[l.rows[r]][l.cols[c]]
	return seat, ok
}

// aisleAfter is the column index after which the aisle is drawn.
func (l seatLayout) aisleAfter() int {
	return len(l.cols)/2 - 1
}

type seatCell struct {
	token string
	style lipgloss.Style
}

func seatToken(seat model.Seat, holder int, held bool, showNumbers bool) seatCell {
	switch {
	case held:
		return seatCell{token: fmt.Sprintf("P%d", holder+1), style: seatMine}
	case seat.Booked():
		return seatCell{token: "XX", style: seatTaken}
	}
	token := "[]"
	if showNumbers {
		token = seat.SeatNumber
	}
	if seat.SeatClass == model.Business {
		return seatCell{token: token, style: seatBusiness}
	}
	return seatCell{token: token, style: seatFree}
}

func (m appModel) renderSeatMap() string {
	leg := m.seatLeg
	layout := buildSeatLayout(m.session.Seats(leg))
	if len(layout.rows) == 0 {
		return "No seat map data."
	}
	holders := map[string]int{}
	for p, number := range m.session.SeatMap(leg) {
		holders[number] = p
	}

	cellWidth := 3
	rowWidth := len(fmt.Sprint(layout.rows[len(layout.rows)-1]))
	gridWidth := len(layout.cols)*(cellWidth+1) + 1

	var b strings.Builder
	bar := screenBarBlock(gridWidth, "COCKPIT")
	for _, line := range []string{bar.top, bar.mid, bar.bot} {
		b.WriteString(strings.Repeat(" ", rowWidth+1))
		b.WriteString(hint(line))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat(" ", rowWidth+1))
	for c, col := range layout.cols {
		b.WriteString(padCell(col, cellWidth))
		b.WriteString(" ")
		if c == layout.aisleAfter() {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n")

	available, booked := 0, 0
	for r, row := range layout.rows {
		b.WriteString(fmt.Sprintf("%*d ", rowWidth, row))
		for c := range layout.cols {
			seat, ok := layout.at(r, c)
			rendered := padCell("", cellWidth)
			if ok {
				holder, held := holders[seat.SeatNumber]
				cell := seatToken(seat, holder, held, m.showSeatNumbers)
				rendered = cell.style.Render(padCell(cell.token, cellWidth))
				if r == m.cursorRow && c == m.cursorCol {
					rendered = seatCursor.Render(padCell(cell.token, cellWidth))
				}
				if seat.Booked() {
					booked++
				} else {
					available++
				}
			}
			b.WriteString(rendered)
			b.WriteString(" ")
			if c == layout.aisleAfter() {
				b.WriteString(" ")
			}
		}
		b.WriteString(fmt.Sprintf("%*d\n", rowWidth, row))
	}

	b.WriteString("\n")
	legend := "Legend: [] economy • [] business (magenta) • XX booked • P1 your passengers"
	if m.showSeatNumbers {
		legend = "Legend: colour shows class • XX booked • P1 your passengers"
	}
	b.WriteString(hint(legend))
	b.WriteString("\n")
	b.WriteString(hint(fmt.Sprintf("Available: %d • Booked: %d • Selected: %d/%d • Seats total: %s",
		available, booked, len(holders), m.session.PassengerCount(), formatPrice(m.seats.Total(leg)))))
	if seat, ok := layout.at(m.cursorRow, m.cursorCol); ok {
		b.WriteString("\n")
		b.WriteString(hint(fmt.Sprintf("Cursor: %s • %s • %s", seat.SeatNumber, strings.ToLower(string(seat.SeatClass)), formatPrice(seat.Price))))
	}
	b.WriteString("\n\n")
	b.WriteString(m.passengerSeatsView(leg))
	return b.String()
}

func (m appModel) passengerSeatsView(leg booking.Leg) string {
	seats := m.session.SeatMap(leg)
	next, hasNext := m.session.NextUnseated(leg)
	var lines []string
	for i, p := range m.session.Passengers() {
		seat := seats[i]
		if seat == "" {
			seat = "--"
		}
		line := fmt.Sprintf("P%d  %-24s %s", i+1, p.FullName(), seat)
		if hasNext && i == next {
			line = focusStyle.Render(line + "  ← next")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	if width < len(label)+4 {
		width = len(label) + 4
	}
	if width < 10 {
		width = 10
	}

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}
