package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"flightbook/model"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	iataPattern  = regexp.MustCompile(`^[A-Z]{3}$`)

	validate = newValidator()
)

// todayKey carries the date that "notfuture" compares against.
type todayKey struct{}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidationCtx("notfuture", func(ctx context.Context, fl validator.FieldLevel) bool {
		t, err := time.ParseInLocation(time.DateOnly, fl.Field().String(), time.Local)
		if err != nil {
			return false
		}
		today, ok := ctx.Value(todayKey{}).(time.Time)
		if !ok || today.IsZero() {
			today = time.Now()
		}
		return !t.After(truncateDate(today))
	})
	_ = v.RegisterValidation("intlphone", func(fl validator.FieldLevel) bool {
		phone := fl.Field().String()
		return strings.HasPrefix(phone, "+") && len(phone) >= 10
	})
	_ = v.RegisterValidation("iata", func(fl validator.FieldLevel) bool {
		return iataPattern.MatchString(fl.Field().String())
	})
	return v
}

// NormalizeCriteria upper-cases airport codes and drops the return date of one-way trips.
func NormalizeCriteria(c model.SearchCriteria) model.SearchCriteria {
	c.OriginCode = strings.ToUpper(strings.TrimSpace(c.OriginCode))
	c.DestinationCode = strings.ToUpper(strings.TrimSpace(c.DestinationCode))
	c.DepartureDate = truncateDate(c.DepartureDate)
	if c.IsRoundTrip() {
		c.ReturnDate = truncateDate(c.ReturnDate)
	} else {
		c.ReturnDate = time.Time{}
	}
	return c
}

// ValidateCriteria checks the search form before any flight search is issued.
func ValidateCriteria(c model.SearchCriteria, today time.Time) error {
	c = NormalizeCriteria(c)
	verr := &ValidationError{Step: "search"}
	verr.Fields = append(verr.Fields, structErrors(-1, validate.Struct(c))...)

	today = truncateDate(today)
	switch {
	case c.DepartureDate.IsZero():
		verr.Fields = append(verr.Fields, FieldError{Passenger: -1, Field: "departureDate", Message: "is required"})
	case c.DepartureDate.Before(today):
		verr.Fields = append(verr.Fields, FieldError{Passenger: -1, Field: "departureDate", Message: "must not be in the past"})
	}
	if c.IsRoundTrip() {
		switch {
		case c.ReturnDate.IsZero():
			verr.Fields = append(verr.Fields, FieldError{Passenger: -1, Field: "returnDate", Message: "is required for a round trip"})
		case !c.DepartureDate.IsZero() && c.ReturnDate.Before(c.DepartureDate):
			verr.Fields = append(verr.Fields, FieldError{Passenger: -1, Field: "returnDate", Message: "must not be before departure"})
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// ValidatePassengers reports every field error of every passenger, keyed by index.
// Birth dates after today are rejected.
func ValidatePassengers(passengers []model.Passenger, strictPhone bool, today time.Time) error {
	ctx := context.WithValue(context.Background(), todayKey{}, today)
	verr := &ValidationError{Step: "passengers"}
	for i, p := range passengers {
		verr.Fields = append(verr.Fields, structErrors(i, validate.StructCtx(ctx, p))...)
		if strictPhone && p.Phone != "" {
			if err := validate.Var(p.Phone, "intlphone"); err != nil {
				verr.Fields = append(verr.Fields, FieldError{Passenger: i, Field: "phone", Message: tagMessage("intlphone", "")})
			}
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// ValidateTicketQuery checks a PNR lookup before it is sent.
func ValidateTicketQuery(q model.TicketQuery) error {
	verr := &ValidationError{Step: "ticket lookup", Fields: structErrors(-1, validate.Struct(q))}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func structErrors(passenger int, err error) []FieldError {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FieldError{{Passenger: passenger, Field: "input", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{
			Passenger: passenger,
			Field:     fe.Field(),
			Message:   tagMessage(fe.Tag(), fe.Param()),
		})
	}
	return out
}

func tagMessage(tag string, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", param)
	case "number":
		return "must contain digits only"
	case "alphanum":
		return "must contain letters and digits only"
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "notfuture":
		return "must not be in the future"
	case "contactemail":
		return "must be a valid email address"
	case "intlphone":
		return "must start with + and have at least 10 characters"
	case "iata":
		return "must be a 3-letter airport code"
	case "nefield":
		return "must differ from the origin"
	case "oneof":
		return "must be one of " + param
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	default:
		return "is invalid"
	}
}

func truncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
