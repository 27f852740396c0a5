package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flightbook/booking"
)

// passengerForm edits the roster one passenger at a time. Inputs mirror the roster so
// that normalisation done by the roster (national id digits) shows up while typing.
type passengerForm struct {
	roster *booking.Roster
	inputs [][]textinput.Model
	focus  int
	errs   *booking.ValidationError
}

func newPassengerForm(roster *booking.Roster) passengerForm {
	f := passengerForm{roster: roster}
	f.inputs = make([][]textinput.Model, roster.Len())
	for i := range f.inputs {
		row := make([]textinput.Model, len(booking.Fields))
		for j, field := range booking.Fields {
			in := textinput.New()
			in.Prompt = ""
			in.Width = 36
			in.SetValue(roster.Get(i, field))
			switch field {
			case booking.IdentityNumber:
				in.CharLimit = 11
				in.Placeholder = "11 digits"
			case booking.BirthDate:
				in.CharLimit = 10
				in.Placeholder = "1990-01-31"
			case booking.Phone:
				in.Placeholder = "+90 555 111 22 33"
			}
			row[j] = in
		}
		f.inputs[i] = row
	}
	if len(f.inputs) > 0 {
		f.inputs[0][0].Focus()
	}
	return f
}

func (f *passengerForm) size() int {
	return len(f.inputs) * len(booking.Fields)
}

func (f *passengerForm) focused() (int, int) {
	return f.focus / len(booking.Fields), f.focus % len(booking.Fields)
}

func (f *passengerForm) setFocus(idx int) tea.Cmd {
	if f.size() == 0 {
		return nil
	}
	p, j := f.focused()
	f.inputs[p][j].Blur()
	f.focus = (idx + f.size()) % f.size()
	p, j = f.focused()
	return f.inputs[p][j].Focus()
}

func (f *passengerForm) move(delta int) tea.Cmd {
	return f.setFocus(f.focus + delta)
}

// jump moves to the same field of the next or previous passenger.
func (f *passengerForm) jump(delta int) tea.Cmd {
	return f.setFocus(f.focus + delta*len(booking.Fields))
}

func (f *passengerForm) update(msg tea.Msg) tea.Cmd {
	if f.size() == 0 {
		return nil
	}
	p, j := f.focused()
	var cmd tea.Cmd
	f.inputs[p][j], cmd = f.inputs[p][j].Update(msg)
	field := booking.Fields[j]
	_ = f.roster.Set(p, field, f.inputs[p][j].Value())
	if normalized := f.roster.Get(p, field); normalized != f.inputs[p][j].Value() {
		f.inputs[p][j].SetValue(normalized)
		f.inputs[p][j].CursorEnd()
	}
	return cmd
}

func (f *passengerForm) markContact() {
	p, _ := f.focused()
	_ = f.roster.SetContact(p)
}

// submit hands the roster to the session. On validation failure the first bad field
// takes focus.
func (f *passengerForm) submit(s *booking.Session) (tea.Cmd, error) {
	err := f.roster.Submit(s)
	f.errs = nil
	if err == nil {
		return nil, nil
	}
	var verr *booking.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}
	f.errs = verr
	return f.setFocus(f.firstError()), nil
}

func (f *passengerForm) firstError() int {
	for p := range f.inputs {
		for j, field := range booking.Fields {
			if _, ok := f.errs.Field(p, field.Key()); ok {
				return p*len(booking.Fields) + j
			}
		}
	}
	return f.focus
}

func (f passengerForm) view() string {
	if f.size() == 0 {
		return "No passengers."
	}
	current, focusField := f.focused()

	var tabs []string
	for p := range f.inputs {
		label := fmt.Sprintf("P%d", p+1)
		if p == f.roster.Contact() {
			label += " ✉"
		}
		if f.errs != nil && len(f.errs.ForPassenger(p)) > 0 {
			label += " !"
		}
		if p == current {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")
	for j, field := range booking.Fields {
		label := fmt.Sprintf("%-24s", field.Label())
		if j == focusField {
			label = focusStyle.Render(label)
		}
		b.WriteString(label + " " + f.inputs[current][j].View() + "\n")
		if f.errs != nil {
			if fe, ok := f.errs.Field(current, field.Key()); ok {
				b.WriteString(strings.Repeat(" ", 25) + errorStyle.Render(fe.Message) + "\n")
			}
		}
	}
	b.WriteString("\n")
	contact := f.roster.Passenger(f.roster.Contact())
	name := contact.FullName()
	if name == "" {
		name = fmt.Sprintf("passenger %d", f.roster.Contact()+1)
	}
	b.WriteString(hint("Contact: " + name + " • ctrl+o make this passenger the contact"))
	return b.String()
}
