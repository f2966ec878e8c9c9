package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/schoolchat/relay-server/internal/store"
	"github.com/schoolchat/relay-server/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) (*Service, *store.User) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	user, err := st.CreateUser(context.Background(), "alice", store.RoleStudent)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig), user
}

func TestAuthenticate_ValidToken(t *testing.T) {
	svc, user := newTestAuthService(t)

	token, err := GenerateToken(svc.jwtConfig, user.ID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	identity, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("expected authentication success, got %v", err)
	}
	if int64(identity) != user.ID {
		t.Fatalf("identity mismatch: got %d want %d", identity, user.ID)
	}
}

func TestAuthenticate_MissingCredential(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Authenticate(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	svc, user := newTestAuthService(t)

	otherConfig := &JWTConfig{
		Secret:   []byte("some-other-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	token, err := GenerateToken(otherConfig, user.ID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	svc, user := newTestAuthService(t)

	expiredConfig := &JWTConfig{
		Secret:   svc.jwtConfig.Secret,
		Issuer:   "test",
		Audience: "test",
		TTL:      -time.Hour,
	}
	token, err := GenerateToken(expiredConfig, user.ID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAuthenticate_UnknownPrincipal(t *testing.T) {
	svc, _ := newTestAuthService(t)

	token, err := GenerateToken(svc.jwtConfig, 9999)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrUnknownPrincipal) {
		t.Fatalf("expected ErrUnknownPrincipal, got %v", err)
	}
}

func TestAuthenticate_BotIdentityRejected(t *testing.T) {
	svc, _ := newTestAuthService(t)

	// Identity 0 is the reserved bot and never a valid principal.
	token, err := GenerateToken(svc.jwtConfig, 0)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for bot identity, got %v", err)
	}
}
