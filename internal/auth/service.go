package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/schoolchat/relay-server/internal/relay"
	"github.com/schoolchat/relay-server/internal/store"
)

var (
	// ErrMissingCredential is returned when no token was supplied.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidToken is returned when the token fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownPrincipal is returned when a valid token names a user
	// that does not exist.
	ErrUnknownPrincipal = errors.New("unknown principal")
)

// Service validates connection credentials against the user store.
// It implements relay.Authenticator.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Authenticate resolves a bearer token to the identity it was issued
// for. The identity must be a positive user ID naming an existing
// principal; identity 0 is reserved for the bot and never accepted.
func (s *Service) Authenticate(ctx context.Context, credential string) (relay.Identity, error) {
	if credential == "" {
		return 0, ErrMissingCredential
	}

	claims, err := ValidateToken(s.jwtConfig, credential)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: user id %d", ErrInvalidToken, claims.UserID)
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return 0, ErrUnknownPrincipal
		}
		return 0, fmt.Errorf("lookup principal: %w", err)
	}

	return relay.Identity(user.ID), nil
}
