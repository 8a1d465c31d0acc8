// Package orders exposes the order-management calls of the admin API.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"housepass/internal/ticketing/models"
	"housepass/internal/transport"
)

const basePath = "/api/admin/orders"

// Gateway is the slice of the request gateway this service needs.
type Gateway interface {
	Get(ctx context.Context, path string, out any, opts ...transport.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...transport.RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...transport.RequestOption) error
}

// Service builds order paths and query strings over the gateway.
type Service struct {
	gateway Gateway
	logger  *slog.Logger
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

// NewService creates an orders service.
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

// Filter narrows List. Zero values are omitted from the query string.
type Filter struct {
	Status string
	Search string
}

func (f Filter) encode() string {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// List returns orders matching the filter, unmodified beyond shape
// normalization.
func (s *Service) List(ctx context.Context, filter Filter) ([]models.Order, error) {
	var out []models.Order
	if err := s.gateway.Get(ctx, basePath+filter.encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one order by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	if err := s.gateway.Get(ctx, fmt.Sprintf("%s/%s", basePath, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus transitions an order to the given status.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	var out models.Order
	body := map[string]string{"status": status}
	if err := s.gateway.Put(ctx, fmt.Sprintf("%s/%s/status", basePath, id), body, &out); err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", "id", id, "status", status)
	return &out, nil
}

// ResendEmail asks the backend to resend the order confirmation email.
func (s *Service) ResendEmail(ctx context.Context, id string) error {
	return s.gateway.Post(ctx, fmt.Sprintf("%s/%s/resend-email", basePath, id), nil, nil)
}
