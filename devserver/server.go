// Package devserver is an in-memory booking backend serving the public API under
// /api/public. It exists for local runs and end-to-end tests.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flightbook/model"
)

const BasePath = "/api/public"

type Server struct {
	inv    *inventory
	logger *zap.Logger
	engine *gin.Engine
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAirports(airports []model.Airport) Option {
	return func(s *Server) {
		s.inv.airports = airports
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		inv:    newInventory(defaultAirports),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	s.Register(router.Group(BasePath))
	s.engine = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Register(router *gin.RouterGroup) {
	router.GET("/airport/search", s.airports)
	router.GET("/flights/search", s.searchFlights)
	router.GET("/seats/:id", s.seats)
	router.POST("/tickets/buy", s.buy)
	router.POST("/tickets/searchFlightInfo", s.searchFlightInfo)
	router.POST("/tickets/cancel", s.cancel)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev backend listening", zap.String("addr", addr), zap.String("base", BasePath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", c.GetHeader("X-Request-ID")),
			zap.Duration("latency", time.Since(start)))
	}
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"message": err.Error()})
}

func (s *Server) airports(c *gin.Context) {
	c.JSON(http.StatusOK, s.inv.airports)
}

func (s *Server) searchFlights(c *gin.Context) {
	from := c.Query("departureAirportIataCode")
	to := c.Query("arrivalAirportIataCode")
	if from == "" || to == "" {
		fail(c, http.StatusBadRequest, errors.New("departureAirportIataCode and arrivalAirportIataCode are required"))
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, c.Query("departureDate"), time.Local)
	if err != nil {
		fail(c, http.StatusBadRequest, errors.New("departureDate must be formatted YYYY-MM-DD"))
		return
	}
	if raw := c.Query("isRoundTrip"); raw != "" {
		if _, err := strconv.ParseBool(raw); err != nil {
			fail(c, http.StatusBadRequest, errors.New("isRoundTrip must be true or false"))
			return
		}
	}

	flights, err := s.inv.searchFlights(from, to, date)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (s *Server) seats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, errors.New("flight id must be a number"))
		return
	}
	seats, err := s.inv.seats(id)
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

func (s *Server) buy(c *gin.Context) {
	var req model.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Passengers) == 0 || strings.TrimSpace(req.ContactEmail) == "" {
		fail(c, http.StatusBadRequest, errors.New("passengers and contactEmail are required"))
		return
	}

	res, err := s.inv.buy(req, c.GetHeader("Idempotency-Key"))
	var taken *seatTakenError
	switch {
	case errors.As(err, &taken):
		fail(c, http.StatusConflict, err)
		return
	case errors.Is(err, errUnknownFlight):
		fail(c, http.StatusNotFound, err)
		return
	case err != nil:
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.logger.Info("tickets sold", zap.String("pnr", res.Pnr), zap.Int("tickets", len(res.Tickets)))
	c.JSON(http.StatusOK, res)
}

func (s *Server) bindTicketQuery(c *gin.Context) (model.TicketQuery, bool) {
	var q model.TicketQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		fail(c, http.StatusBadRequest, err)
		return q, false
	}
	q.Pnr = strings.ToUpper(strings.TrimSpace(q.Pnr))
	q.IdentityNumber = strings.TrimSpace(q.IdentityNumber)
	if q.Pnr == "" || q.IdentityNumber == "" {
		fail(c, http.StatusBadRequest, errors.New("pnr and identityNumber are required"))
		return q, false
	}
	return q, true
}

func (s *Server) searchFlightInfo(c *gin.Context) {
	q, ok := s.bindTicketQuery(c)
	if !ok {
		return
	}
	tickets, err := s.inv.lookup(q)
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (s *Server) cancel(c *gin.Context) {
	q, ok := s.bindTicketQuery(c)
	if !ok {
		return
	}
	n, err := s.inv.cancel(q)
	switch {
	case errors.Is(err, errTicketNotFound):
		fail(c, http.StatusNotFound, err)
		return
	case errors.Is(err, errAlreadyClosed):
		fail(c, http.StatusConflict, err)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, err)
		return
	}
	msg := "Ticket cancelled successfully"
	if n > 1 {
		msg = strconv.Itoa(n) + " tickets cancelled successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
