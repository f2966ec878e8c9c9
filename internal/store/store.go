package store

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a user lookup matches nothing.
var ErrUserNotFound = errors.New("user not found")

// Role describes what kind of principal a user is.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	// RoleAgent marks human support agents, the targets of bot
	// handovers.
	RoleAgent Role = "agent"
)

// User represents a principal known to the system.
type User struct {
	ID        int64
	Username  string
	Role      Role
	CreatedAt time.Time
}

// UserStore provides access to user records.
type UserStore interface {
	CreateUser(ctx context.Context, username string, role Role) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Store is the full persistence interface.
type Store interface {
	UserStore
	Close() error
}
