package http

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolchat/relay-server/internal/auth"
	"github.com/schoolchat/relay-server/internal/store"
	"github.com/schoolchat/relay-server/internal/store/sqlite"
)

const testJWTSecret = "test-secret-change-me"

// createTestStore creates an in-memory SQLite store seeded with the
// given usernames. Returned IDs follow seeding order starting at 1.
func createTestStore(t *testing.T, usernames ...string) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	for _, username := range usernames {
		if _, err := st.CreateUser(context.Background(), username, store.RoleStudent); err != nil {
			t.Fatalf("failed to seed user %q: %v", username, err)
		}
	}

	return st
}

// testJWTConfig returns the JWT configuration used by transport tests.
func testJWTConfig() *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(testJWTSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
}

// makeToken mints a token for the given user ID.
func makeToken(t *testing.T, userID int64) string {
	t.Helper()

	token, err := auth.GenerateToken(testJWTConfig(), userID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
