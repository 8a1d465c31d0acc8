// Package checkin exposes the door check-in calls: verify an order number,
// process the check-in, and list recent check-ins.
package checkin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"housepass/internal/checkin/metrics"
	"housepass/internal/ticketing/models"
	"housepass/internal/transport"
)

// Gateway is the slice of the request gateway this service needs.
type Gateway interface {
	Get(ctx context.Context, path string, out any, opts ...transport.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...transport.RequestOption) error
}

// Record is one canonical recent-check-in row.
type Record struct {
	OrderNumber  string    `json:"orderNumber"`
	CustomerName string    `json:"customerName"`
	EventTitle   string    `json:"eventTitle"`
	CheckedInAt  time.Time `json:"checkedInAt"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		OrderNumber   string     `json:"order_number"`
		OrderNumberC  string     `json:"orderNumber"`
		CustomerName  string     `json:"customer_name"`
		CustomerNameC string     `json:"customerName"`
		EventTitle    string     `json:"event_title"`
		EventTitleC   string     `json:"eventTitle"`
		CheckedInAt   *time.Time `json:"checked_in_at"`
		CheckedInAtC  *time.Time `json:"checkedInAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.OrderNumber = firstNonEmpty(raw.OrderNumber, raw.OrderNumberC)
	r.CustomerName = firstNonEmpty(raw.CustomerName, raw.CustomerNameC)
	r.EventTitle = firstNonEmpty(raw.EventTitle, raw.EventTitleC)
	if raw.CheckedInAt != nil {
		r.CheckedInAt = *raw.CheckedInAt
	} else if raw.CheckedInAtC != nil {
		r.CheckedInAt = *raw.CheckedInAtC
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Service performs check-in calls over the gateway.
type Service struct {
	gateway Gateway
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a check-in service.
func NewService(gateway Gateway, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify looks up an order by its number without marking it attended. The
// order number is path-escaped as-is; normalization is the flow
// controller's job.
func (s *Service) Verify(ctx context.Context, orderNumber string) (*models.Order, error) {
	var out models.Order
	path := "/api/checkin/verify/" + url.PathEscape(orderNumber)
	if err := s.gateway.Get(ctx, path, &out); err != nil {
		s.incrementVerifyFailures()
		return nil, err
	}
	s.incrementVerifications()
	return &out, nil
}

// Process marks an order attended. Each call carries a fresh
// Idempotency-Key so an operator retry after a dropped response cannot
// double-redeem at the backend.
func (s *Service) Process(ctx context.Context, orderNumber string) (*models.Order, error) {
	var out models.Order
	body := map[string]string{"orderNumber": orderNumber}
	err := s.gateway.Post(ctx, "/api/checkin", body, &out,
		transport.WithIdempotencyKey(uuid.NewString()))
	if err != nil {
		s.incrementProcessFailures()
		return nil, err
	}
	s.incrementCheckins()
	s.logger.Info("order checked in", "orderNumber", out.OrderNumber)
	return &out, nil
}

// Recent returns the latest check-ins, newest first.
func (s *Service) Recent(ctx context.Context) ([]Record, error) {
	var out []Record
	if err := s.gateway.Get(ctx, "/api/admin/checkins", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) incrementVerifications() {
	if s.metrics != nil {
		s.metrics.IncrementVerifications()
	}
}

func (s *Service) incrementVerifyFailures() {
	if s.metrics != nil {
		s.metrics.IncrementVerifyFailures()
	}
}

func (s *Service) incrementCheckins() {
	if s.metrics != nil {
		s.metrics.IncrementCheckins()
	}
}

func (s *Service) incrementProcessFailures() {
	if s.metrics != nil {
		s.metrics.IncrementProcessFailures()
	}
}
