package mocks

import (
	"context"

	"github.com/phrazzld/scry-scheduler/internal/service/auth"
)

// MockTokenVerifier is a configurable auth.TokenVerifier.
type MockTokenVerifier struct {
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)

	// Used when ValidateTokenFn is nil
	Claims      *auth.Claims
	ValidateErr error

	// LastToken is the most recent token passed to ValidateToken.
	LastToken string
}

var _ auth.TokenVerifier = (*MockTokenVerifier)(nil)

// ValidateToken implements auth.TokenVerifier
func (m *MockTokenVerifier) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	m.LastToken = token
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return m.Claims, m.ValidateErr
}
