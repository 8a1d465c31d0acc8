// Package stats fetches the dashboard summary.
package stats

import (
	"context"

	"housepass/internal/ticketing/models"
	"housepass/internal/transport"
)

const basePath = "/api/admin/stats"

// Gateway is the slice of the request gateway this service needs.
type Gateway interface {
	Get(ctx context.Context, path string, out any, opts ...transport.RequestOption) error
}

// Service fetches sales and attendance statistics.
type Service struct {
	gateway Gateway
}

// NewService creates a stats service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Fetch returns the current dashboard summary.
func (s *Service) Fetch(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := s.gateway.Get(ctx, basePath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
