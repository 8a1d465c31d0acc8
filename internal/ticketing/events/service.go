// Package events exposes the event-management calls of the admin API.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"housepass/internal/ticketing/models"
	"housepass/internal/transport"
)

const basePath = "/api/admin/events"

// Gateway is the slice of the request gateway this service needs.
type Gateway interface {
	Get(ctx context.Context, path string, out any, opts ...transport.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...transport.RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...transport.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...transport.RequestOption) error
}

// Service builds event paths over the gateway and returns canonical records.
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

// NewService creates an events service.
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

// Draft carries the writable event fields for Create and Update.
type Draft struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Venue       string        `json:"venue,omitempty"`
	StartsAt    string        `json:"startsAt,omitempty"`
	EndsAt      string        `json:"endsAt,omitempty"`
	Status      string        `json:"status,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Tiers       []models.Tier `json:"tiers,omitempty"`
}

// List returns all events.
func (s *Service) List(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	if err := s.gateway.Get(ctx, basePath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one event by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Event, error) {
	var out models.Event
	if err := s.gateway.Get(ctx, fmt.Sprintf("%s/%s", basePath, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates an event and returns the stored record.
func (s *Service) Create(ctx context.Context, draft Draft) (*models.Event, error) {
	var out models.Event
	if err := s.gateway.Post(ctx, basePath, draft, &out); err != nil {
		return nil, err
	}
	s.logger.Info("event created", "id", out.ID, "title", out.Title)
	return &out, nil
}

// Update replaces an event's writable fields.
func (s *Service) Update(ctx context.Context, id string, draft Draft) (*models.Event, error) {
	var out models.Event
	if err := s.gateway.Put(ctx, fmt.Sprintf("%s/%s", basePath, id), draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.gateway.Delete(ctx, fmt.Sprintf("%s/%s", basePath, id), nil); err != nil {
		return err
	}
	s.logger.Info("event deleted", "id", id)
	return nil
}
