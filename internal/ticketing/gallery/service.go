// Package gallery exposes the photo-gallery calls of the admin API.
package gallery

import (
	"context"
	"fmt"
	"log/slog"

	"housepass/internal/ticketing/models"
	"housepass/internal/transport"
)

const basePath = "/api/admin/gallery"

// Gateway is the slice of the request gateway this service needs.
type Gateway interface {
	Get(ctx context.Context, path string, out any, opts ...transport.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...transport.RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...transport.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...transport.RequestOption) error
}

// Service manages curated gallery photos over the gateway.
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

// NewService creates a gallery service.
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

// Draft carries the writable gallery fields. Image bytes live backend-side;
// the client only submits the hosted URL.
type Draft struct {
	Title     string `json:"title"`
	ImageURL  string `json:"imageUrl"`
	EventID   string `json:"eventId,omitempty"`
	SortOrder int    `json:"sortOrder,omitempty"`
}

// List returns all gallery items.
func (s *Service) List(ctx context.Context) ([]models.GalleryItem, error) {
	var out []models.GalleryItem
	if err := s.gateway.Get(ctx, basePath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a gallery item.
func (s *Service) Create(ctx context.Context, draft Draft) (*models.GalleryItem, error) {
	var out models.GalleryItem
	if err := s.gateway.Post(ctx, basePath, draft, &out); err != nil {
		return nil, err
	}
	s.logger.Info("gallery item created", "id", out.ID)
	return &out, nil
}

// Update replaces a gallery item's writable fields.
func (s *Service) Update(ctx context.Context, id string, draft Draft) (*models.GalleryItem, error) {
	var out models.GalleryItem
	if err := s.gateway.Put(ctx, fmt.Sprintf("%s/%s", basePath, id), draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a gallery item.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.gateway.Delete(ctx, fmt.Sprintf("%s/%s", basePath, id), nil)
}
