package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"flightbook/model"
)

// SearchFlights fetches candidate flights for one route and departure date.
func (c *Client) SearchFlights(ctx context.Context, q model.FlightQuery) ([]model.FlightOption, error) {
	from := strings.ToUpper(strings.TrimSpace(q.DepartureCode))
	to := strings.ToUpper(strings.TrimSpace(q.ArrivalCode))
	if from == "" || to == "" {
		return nil, errors.New("departure and arrival airport codes are required")
	}
	if q.Date.IsZero() {
		return nil, errors.New("departure date is required")
	}

	params := url.Values{}
	params.Set("departureAirportIataCode", from)
	params.Set("arrivalAirportIataCode", to)
	params.Set("departureDate", q.Date.Format(time.DateOnly))
	params.Set("isRoundTrip", strconv.FormatBool(q.RoundTrip))
	endpoint := fmt.Sprintf("%s/flights/search?%s", c.baseURL, params.Encode())

	var flights []model.FlightOption
	if err := c.getJSON(ctx, endpoint, &flights); err != nil {
		return nil, err
	}
	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].DepartureTime.Before(flights[j].DepartureTime.Time)
	})
	return flights, nil
}

// GetSeats fetches the seat inventory of a flight.
func (c *Client) GetSeats(ctx context.Context, flightID int64) ([]model.Seat, error) {
	if flightID <= 0 {
		return nil, errors.New("flight id is required")
	}
	endpoint := fmt.Sprintf("%s/seats/%d", c.baseURL, flightID)

	var seats []model.Seat
	if err := c.getJSON(ctx, endpoint, &seats); err != nil {
		return nil, err
	}
	return seats, nil
}
