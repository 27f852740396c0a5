package model

import (
	"strconv"
	"strings"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatBooked    SeatStatus = "BOOKED"
)

type SeatClass string

const (
	Economy  SeatClass = "ECONOMY"
	Business SeatClass = "BUSINESS"
)

type Seat struct {
	Id         int64      `json:"id"`
	SeatNumber string     `json:"seatNumber"`
	SeatClass  SeatClass  `json:"seatClass"`
	Price      float64    `json:"price"`
	Status     SeatStatus `json:"status"`
}

func (s Seat) Booked() bool {
	return strings.EqualFold(string(s.Status), string(SeatBooked))
}

// Row returns the numeric prefix of the seat number ("12A" -> 12), or 0.
func (s Seat) Row() int {
	digits := strings.TrimRightFunc(s.SeatNumber, func(r rune) bool { return r < '0' || r > '9' })
	row, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return row
}

// Column returns the letter suffix of the seat number ("12A" -> "A").
func (s Seat) Column() string {
	return strings.TrimLeft(s.SeatNumber, "0123456789")
}
