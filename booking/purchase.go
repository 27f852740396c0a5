package booking

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flightbook/model"
)

type TicketPurchaser interface {
	BuyTicket(ctx context.Context, req model.PurchaseRequest, idempotencyKey string) (model.PurchaseResponse, error)
}

// PurchaseOrder is one user-initiated submit. The key is fresh per submit.
type PurchaseOrder struct {
	Request        model.PurchaseRequest
	IdempotencyKey string
}

type PurchaseResult struct {
	Order    PurchaseOrder
	Response model.PurchaseResponse
	Err      error
}

// Purchaser submits a ready session. Begin and Finish run on the goroutine that owns the
// session; Send may run anywhere. The busy flag is held from Begin until Finish.
type Purchaser struct {
	session      *Session
	gateway      TicketPurchaser
	logger       *zap.Logger
	busy         atomic.Bool
	confirmation *model.PurchaseResponse
}

func NewPurchaser(session *Session, gateway TicketPurchaser, logger *zap.Logger) *Purchaser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Purchaser{session: session, gateway: gateway, logger: logger}
}

func (p *Purchaser) Busy() bool {
	return p.busy.Load()
}

// Begin claims the busy flag and assembles the request. It fails with ErrSubmitInProgress
// while another submit is outstanding.
func (p *Purchaser) Begin() (PurchaseOrder, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return PurchaseOrder{}, ErrSubmitInProgress
	}
	req, err := p.session.PurchaseRequest()
	if err != nil {
		p.busy.Store(false)
		return PurchaseOrder{}, err
	}
	return PurchaseOrder{Request: req, IdempotencyKey: uuid.NewString()}, nil
}

// Send calls the gateway exactly once. A 409 becomes a seat conflict; anything else is a
// gateway error. Neither is retried.
func (p *Purchaser) Send(ctx context.Context, order PurchaseOrder) PurchaseResult {
	res := PurchaseResult{Order: order}
	resp, err := p.gateway.BuyTicket(ctx, order.Request, order.IdempotencyKey)
	switch {
	case err == nil:
		res.Response = resp
	case isConflict(err):
		res.Err = &SeatConflictError{Reason: gatewayMessage(err), Err: err}
	default:
		res.Err = &GatewayError{Op: "purchase tickets", Err: err}
	}
	return res
}

// Finish releases the busy flag. On success the session is reset and the confirmation kept;
// on failure the session is left as it was so the user can resubmit.
func (p *Purchaser) Finish(res PurchaseResult) error {
	defer p.busy.Store(false)
	if res.Err != nil {
		p.logger.Warn("purchase failed",
			zap.String("session", p.session.ID()),
			zap.String("idempotency_key", res.Order.IdempotencyKey),
			zap.Error(res.Err))
		return res.Err
	}
	confirmation := res.Response
	p.confirmation = &confirmation
	p.logger.Info("purchase confirmed",
		zap.String("session", p.session.ID()),
		zap.String("pnr", confirmation.Pnr),
		zap.Int("tickets", len(confirmation.Tickets)))
	p.session.Reset()
	return nil
}

func (p *Purchaser) Submit(ctx context.Context) (model.PurchaseResponse, error) {
	order, err := p.Begin()
	if err != nil {
		return model.PurchaseResponse{}, err
	}
	res := p.Send(ctx, order)
	if err := p.Finish(res); err != nil {
		return model.PurchaseResponse{}, err
	}
	return res.Response, nil
}

func (p *Purchaser) Confirmation() (model.PurchaseResponse, bool) {
	if p.confirmation == nil {
		return model.PurchaseResponse{}, false
	}
	return *p.confirmation, true
}
