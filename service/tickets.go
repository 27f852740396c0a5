package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"flightbook/model"
)

// BuyTicket submits a purchase. The idempotency key lets the backend drop a replayed submit.
func (c *Client) BuyTicket(ctx context.Context, req model.PurchaseRequest, idempotencyKey string) (model.PurchaseResponse, error) {
	if req.OutboundFlightId <= 0 {
		return model.PurchaseResponse{}, errors.New("outbound flight id is required")
	}
	if len(req.Passengers) == 0 {
		return model.PurchaseResponse{}, errors.New("at least one passenger is required")
	}
	endpoint := fmt.Sprintf("%s/tickets/buy", c.baseURL)

	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(idempotencyHeader, idempotencyKey)
	}

	var res model.PurchaseResponse
	if err := c.postJSON(ctx, endpoint, req, &res, header); err != nil {
		return model.PurchaseResponse{}, err
	}
	if res.Pnr == "" {
		return model.PurchaseResponse{}, errors.New("purchase response has no pnr")
	}
	return res, nil
}

// SearchFlightInfo looks up the tickets issued under a PNR for one passenger.
func (c *Client) SearchFlightInfo(ctx context.Context, q model.TicketQuery) ([]model.TicketInfo, error) {
	q = NormalizeTicketQuery(q)
	if q.Pnr == "" || q.IdentityNumber == "" {
		return nil, errors.New("pnr and identity number are required")
	}
	endpoint := fmt.Sprintf("%s/tickets/searchFlightInfo", c.baseURL)

	var raw []byte
	if err := c.postJSON(ctx, endpoint, q, &raw, nil); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var tickets []model.TicketInfo
		if err := json.Unmarshal(trimmed, &tickets); err != nil {
			return nil, fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return tickets, nil
	}
	var ticket model.TicketInfo
	if err := json.Unmarshal(trimmed, &ticket); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return []model.TicketInfo{ticket}, nil
}

// CancelTicket cancels the tickets under a PNR. The backend answers with JSON or plain text.
func (c *Client) CancelTicket(ctx context.Context, q model.TicketQuery) (model.CancelResult, error) {
	q = NormalizeTicketQuery(q)
	if q.Pnr == "" || q.IdentityNumber == "" {
		return model.CancelResult{}, errors.New("pnr and identity number are required")
	}
	endpoint := fmt.Sprintf("%s/tickets/cancel", c.baseURL)

	var raw []byte
	if err := c.postJSON(ctx, endpoint, q, &raw, nil); err != nil {
		return model.CancelResult{}, err
	}

	body := strings.TrimSpace(string(raw))
	if gjson.Valid(body) {
		if msg := gjson.Get(body, "message"); msg.Exists() {
			return model.CancelResult{Message: msg.String()}, nil
		}
		if parsed := gjson.Parse(body); parsed.Type == gjson.String {
			return model.CancelResult{Message: parsed.String()}, nil
		}
	}
	if body == "" {
		body = "ticket cancelled"
	}
	return model.CancelResult{Message: body}, nil
}

// NormalizeTicketQuery upper-cases the PNR and keeps only the digits of the identity number.
func NormalizeTicketQuery(q model.TicketQuery) model.TicketQuery {
	q.Pnr = strings.ToUpper(strings.TrimSpace(q.Pnr))
	q.IdentityNumber = digitsOnly(q.IdentityNumber)
	return q
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
