package model

import "time"

type TripType string

const (
	OneWay    TripType = "ONE_WAY"
	RoundTrip TripType = "ROUND_TRIP"
)

type SearchCriteria struct {
	TripType        TripType  `json:"tripType" validate:"required,oneof=ONE_WAY ROUND_TRIP"`
	OriginCode      string    `json:"originCode" validate:"required,iata"`
	DestinationCode string    `json:"destinationCode" validate:"required,iata,nefield=OriginCode"`
	DepartureDate   time.Time `json:"departureDate"`
	ReturnDate      time.Time `json:"returnDate"`
	PassengerCount  int       `json:"passengerCount" validate:"min=1,max=9"`
}

func (c SearchCriteria) IsRoundTrip() bool {
	return c.TripType == RoundTrip
}

type FlightQuery struct {
	DepartureCode string
	ArrivalCode   string
	Date          time.Time
	RoundTrip     bool
}

type FlightOption struct {
	Id               int64    `json:"id"`
	FlightNumber     string   `json:"flightNumber"`
	DepartureTime    DateTime `json:"departureTime"`
	ArrivalTime      DateTime `json:"arrivalTime"`
	DepartureAirport Airport  `json:"departureAirport"`
	ArrivalAirport   Airport  `json:"arrivalAirport"`
	CurrentPrice     float64  `json:"currentPrice"`
	DiscountPrice    *float64 `json:"discountPrice,omitempty"`
}

// Price returns the discounted fare when the backend offers one.
func (f FlightOption) Price() float64 {
	if f.DiscountPrice != nil && *f.DiscountPrice > 0 {
		return *f.DiscountPrice
	}
	return f.CurrentPrice
}

func (f FlightOption) Duration() time.Duration {
	if f.DepartureTime.IsZero() || f.ArrivalTime.IsZero() {
		return 0
	}
	return f.ArrivalTime.Sub(f.DepartureTime.Time)
}
