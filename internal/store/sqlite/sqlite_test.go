package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/schoolchat/relay-server/internal/relay"
	"github.com/schoolchat/relay-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestCreateAndGetUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateUser(ctx, "alice", store.RoleStudent)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == 0 || created.Username != "alice" || created.Role != store.RoleStudent {
		t.Fatalf("unexpected created user: %+v", created)
	}

	byID, err := st.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Username != "alice" {
		t.Fatalf("unexpected user by id: %+v", byID)
	}

	byName, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("unexpected user by username: %+v", byName)
	}
}

func TestGetUserNotFound(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.GetUserByID(context.Background(), 999); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserExists(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	agent, err := st.CreateUser(ctx, "support-agent", store.RoleAgent)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	exists, err := st.UserExists(ctx, agent.ID)
	if err != nil {
		t.Fatalf("user exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected user %d to exist", agent.ID)
	}

	exists, err = st.UserExists(ctx, agent.ID+1)
	if err != nil {
		t.Fatalf("user exists: %v", err)
	}
	if exists {
		t.Fatalf("expected user %d to be unknown", agent.ID+1)
	}
}

func TestIdentityExistsMatchesUserExists(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "bob", store.RoleTeacher)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	exists, err := st.IdentityExists(ctx, relay.Identity(user.ID))
	if err != nil {
		t.Fatalf("identity exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected identity %d to exist", user.ID)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateUser(ctx, "alice", store.RoleStudent); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := st.CreateUser(ctx, "alice", store.RoleStudent); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}
}
