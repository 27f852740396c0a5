package model

import "strings"

type Passenger struct {
	FirstName          string  `json:"firstName" validate:"required"`
	LastName           string  `json:"lastName" validate:"required"`
	IdentityNumber     string  `json:"identityNumber" validate:"required,len=11,number"`
	BirthDate          string  `json:"birthDate" validate:"required,datetime=2006-01-02,notfuture"`
	Email              string  `json:"email" validate:"required,contactemail"`
	Phone              string  `json:"phone" validate:"required"`
	OutboundSeatNumber *string `json:"outboundSeatNumber"`
	ReturnSeatNumber   *string `json:"returnSeatNumber"`
}

func (p Passenger) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type PurchaseRequest struct {
	OutboundFlightId int64       `json:"outboundFlightId"`
	ReturnFlightId   *int64      `json:"returnFlightId"`
	ContactEmail     string      `json:"contactEmail"`
	Passengers       []Passenger `json:"passengers"`
	IsRoundTrip      bool        `json:"isRoundTrip"`
}

type PurchaseResponse struct {
	Pnr           string         `json:"pnr"`
	TotalPrice    float64        `json:"totalPrice"`
	FlightNumber  string         `json:"flightNumber"`
	Route         string         `json:"route"`
	DepartureTime DateTime       `json:"departureTime"`
	ArrivalTime   DateTime       `json:"arrivalTime"`
	Tickets       []TicketRecord `json:"tickets"`
}

type TicketRecord struct {
	TicketId      int64  `json:"ticketId"`
	PassengerName string `json:"passengerName"`
	SeatNumber    string `json:"seatNumber"`
}

type TicketQuery struct {
	Pnr            string `json:"pnr" validate:"required,len=6,alphanum"`
	IdentityNumber string `json:"identityNumber" validate:"required,len=11,number"`
}

type TicketStatus string

const (
	TicketActive    TicketStatus = "ACTIVE"
	TicketCancelled TicketStatus = "CANCELLED"
)

type TicketInfo struct {
	Id                       int64        `json:"id"`
	Pnr                      string       `json:"pnr"`
	PassengerName            string       `json:"passengerName"`
	DepartureAirportIataCode string       `json:"departureAirportIataCode"`
	DepartureAirportCity     string       `json:"departureAirportCity"`
	ArrivalAirportIataCode   string       `json:"arrivalAirportIataCode"`
	ArrivalAirportCity       string       `json:"arrivalAirportCity"`
	DepartureTime            DateTime     `json:"departureTime"`
	ArrivalTime              DateTime     `json:"arrivalTime"`
	FlightNumber             string       `json:"flightNumber"`
	SeatNumber               string       `json:"seatNumber"`
	Status                   TicketStatus `json:"status"`
	SoldPrice                float64      `json:"soldPrice"`
}

type CancelResult struct {
	Message string `json:"message"`
}
