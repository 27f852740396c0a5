package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"flightbook/booking"
	"flightbook/model"
	"flightbook/service"
)

func newPnrCmd(configPath *string) *cobra.Command {
	var q model.TicketQuery
	var yes bool

	pnr := &cobra.Command{
		Use:   "pnr",
		Short: "Look up or cancel tickets by PNR",
	}
	pnr.PersistentFlags().StringVar(&q.Pnr, "pnr", "", "6 character booking reference")
	pnr.PersistentFlags().StringVar(&q.IdentityNumber, "id", "", "national id of a passenger on the booking")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the tickets issued under a PNR",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resolveTicketQuery(cmd, q)
			if err != nil {
				return err
			}
			e, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.API.Timeout)
			defer cancel()
			tickets, err := e.client.SearchFlightInfo(ctx, query)
			if err != nil {
				if service.IsNotFound(err) {
					return fmt.Errorf("no tickets found for PNR %s", query.Pnr)
				}
				return err
			}
			renderTickets(cmd.OutOrStdout(), tickets)
			return nil
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the tickets issued under a PNR",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resolveTicketQuery(cmd, q)
			if err != nil {
				return err
			}
			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Cancel the tickets under %s", query.Pnr),
					IsConfirm: true,
					Stdin:     io.NopCloser(cmd.InOrStdin()),
					Stdout:    nopWriteCloser{cmd.OutOrStdout()},
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing cancelled.")
					return nil
				}
			}
			e, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.API.Timeout)
			defer cancel()
			res, err := e.client.CancelTicket(ctx, query)
			if err != nil {
				var apiErr *service.APIError
				if errors.As(err, &apiErr) {
					return errors.New(apiErr.Message())
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cancelCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	pnr.AddCommand(show, cancelCmd)
	return pnr
}

// resolveTicketQuery asks for whatever the flags left out, then validates the query.
func resolveTicketQuery(cmd *cobra.Command, q model.TicketQuery) (model.TicketQuery, error) {
	if strings.TrimSpace(q.Pnr) == "" {
		value, err := promptValue(cmd, "PNR")
		if err != nil {
			return q, err
		}
		q.Pnr = value
	}
	if strings.TrimSpace(q.IdentityNumber) == "" {
		value, err := promptValue(cmd, "National ID")
		if err != nil {
			return q, err
		}
		q.IdentityNumber = value
	}
	q = service.NormalizeTicketQuery(q)
	if err := booking.ValidateTicketQuery(q); err != nil {
		return q, err
	}
	return q, nil
}

func promptValue(cmd *cobra.Command, label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("required")
			}
			return nil
		},
		Stdin:  io.NopCloser(cmd.InOrStdin()),
		Stdout: nopWriteCloser{cmd.OutOrStdout()},
	}
	return prompt.Run()
}

func renderTickets(out io.Writer, tickets []model.TicketInfo) {
	byFlight := map[string][]model.TicketInfo{}
	for _, t := range tickets {
		byFlight[t.FlightNumber] = append(byFlight[t.FlightNumber], t)
	}
	flights := maps.Keys(byFlight)
	sort.Slice(flights, func(i, j int) bool {
		return byFlight[flights[i]][0].DepartureTime.Before(byFlight[flights[j]][0].DepartureTime.Time)
	})

	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Flight", "Route", "Departure", "Passenger", "Seat", "Status", "Price"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, AutoMerge: true, WidthMax: 28},
		{Number: 3, AutoMerge: true},
		{Number: 4, WidthMax: 24},
	})
	t.Style().Options.SeparateRows = true

	for _, flight := range flights {
		var rows []table.Row
		for _, ticket := range byFlight[flight] {
			rows = append(rows, table.Row{
				flight,
				fmt.Sprintf("%s → %s", airportLabel(ticket.DepartureAirportCity, ticket.DepartureAirportIataCode),
					airportLabel(ticket.ArrivalAirportCity, ticket.ArrivalAirportIataCode)),
				ticket.DepartureTime.Format("2006-01-02 15:04"),
				ticket.PassengerName,
				ticket.SeatNumber,
				string(ticket.Status),
				fmt.Sprintf("%.2f", ticket.SoldPrice),
			})
		}
		t.AppendRows(rows, rowConfigAutoMerge)
		t.AppendSeparator()
	}
	if len(tickets) > 0 {
		t.AppendFooter(table.Row{"PNR", tickets[0].Pnr})
	}
	t.Render()
}

func airportLabel(city, code string) string {
	return model.Airport{City: city, IataCode: code}.Label()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
