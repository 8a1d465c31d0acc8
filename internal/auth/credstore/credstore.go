// Package credstore persists the long-lived refresh credential and cached
// staff profile across sessions. It is a pure storage wrapper: the session
// manager is the only caller, and nothing here talks to the network.
package credstore

import (
	"context"

	"housepass/internal/auth/models"
)

// Store is the credential persistence contract.
//
// Error Contract:
//   - Load returns (nil, nil) when no credential is stored. Read, parse, or
//     unseal failures are treated the same way (logged by implementations,
//     reported as absent) so a corrupt file can never wedge startup.
//   - Save and Clear return wrapped errors on infrastructure failures.
type Store interface {
	Save(ctx context.Context, cred *models.Credential) error
	Load(ctx context.Context) (*models.Credential, error)
	Clear(ctx context.Context) error
}
