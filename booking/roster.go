package booking

import (
	"strings"
	"time"
	"unicode"

	"flightbook/model"
)

type Field int

const (
	FirstName Field = iota
	LastName
	IdentityNumber
	BirthDate
	Email
	Phone
)

var Fields = []Field{FirstName, LastName, IdentityNumber, BirthDate, Email, Phone}

// Key is the wire name of the field, as used in FieldError.Field.
func (f Field) Key() string {
	switch f {
	case FirstName:
		return "firstName"
	case LastName:
		return "lastName"
	case IdentityNumber:
		return "identityNumber"
	case BirthDate:
		return "birthDate"
	case Email:
		return "email"
	default:
		return "phone"
	}
}

func (f Field) Label() string {
	switch f {
	case FirstName:
		return "First name"
	case LastName:
		return "Last name"
	case IdentityNumber:
		return "National ID"
	case BirthDate:
		return "Birth date (YYYY-MM-DD)"
	case Email:
		return "Email"
	default:
		return "Phone"
	}
}

const identityNumberLen = 11

// Roster is the editable passenger form. Entered data survives failed validation; the
// session only sees it after Submit succeeds.
type Roster struct {
	passengers  []model.Passenger
	contact     int
	strictPhone bool
	today       func() time.Time
}

func NewRoster(count int, strictPhone bool) *Roster {
	return &Roster{
		passengers:  make([]model.Passenger, max(count, 0)),
		strictPhone: strictPhone,
		today:       time.Now,
	}
}

// RosterFor prefills a roster from the session when its passengers are already set.
func RosterFor(s *Session, strictPhone bool) *Roster {
	r := NewRoster(s.PassengerCount(), strictPhone)
	r.today = s.Today
	existing := s.Passengers()
	if len(existing) == len(r.passengers) {
		for i, p := range existing {
			p.OutboundSeatNumber = nil
			p.ReturnSeatNumber = nil
			r.passengers[i] = p
		}
	}
	if i, ok := s.Contact(); ok && i < len(r.passengers) {
		r.contact = i
	}
	return r
}

func (r *Roster) Len() int {
	return len(r.passengers)
}

func (r *Roster) Passenger(i int) model.Passenger {
	return r.passengers[i]
}

func (r *Roster) Passengers() []model.Passenger {
	out := make([]model.Passenger, len(r.passengers))
	copy(out, r.passengers)
	return out
}

func (r *Roster) Get(i int, f Field) string {
	if i < 0 || i >= len(r.passengers) {
		return ""
	}
	p := r.passengers[i]
	switch f {
	case FirstName:
		return p.FirstName
	case LastName:
		return p.LastName
	case IdentityNumber:
		return p.IdentityNumber
	case BirthDate:
		return p.BirthDate
	case Email:
		return p.Email
	default:
		return p.Phone
	}
}

// Set stores raw input. The national id keeps digits only, up to 11 of them.
func (r *Roster) Set(i int, f Field, value string) error {
	if i < 0 || i >= len(r.passengers) {
		return ErrInvalidIndex
	}
	p := &r.passengers[i]
	switch f {
	case FirstName:
		p.FirstName = value
	case LastName:
		p.LastName = value
	case IdentityNumber:
		p.IdentityNumber = identityDigits(value)
	case BirthDate:
		p.BirthDate = value
	case Email:
		p.Email = value
	case Phone:
		p.Phone = value
	}
	return nil
}

func (r *Roster) Contact() int {
	return r.contact
}

func (r *Roster) SetContact(i int) error {
	if i < 0 || i >= len(r.passengers) {
		return ErrInvalidIndex
	}
	r.contact = i
	return nil
}

// Validate trims the entered values and reports every field error.
func (r *Roster) Validate() error {
	for i := range r.passengers {
		p := &r.passengers[i]
		p.FirstName = strings.TrimSpace(p.FirstName)
		p.LastName = strings.TrimSpace(p.LastName)
		p.BirthDate = strings.TrimSpace(p.BirthDate)
		p.Email = strings.TrimSpace(p.Email)
		p.Phone = strings.TrimSpace(p.Phone)
	}
	return ValidatePassengers(r.passengers, r.strictPhone, r.today())
}

// Submit validates and hands the roster and contact to the session. Nothing is written
// to the session when validation fails.
func (r *Roster) Submit(s *Session) error {
	r.today = s.Today
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.UpdatePassengers(r.Passengers()); err != nil {
		return err
	}
	return s.SetContact(r.contact)
}

func identityDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if b.Len() == identityNumberLen {
			break
		}
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
