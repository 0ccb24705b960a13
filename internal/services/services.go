package services

import (
	"context"
	"errors"
	"time"

	"github.com/pvoloshyn/go-tasklist/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMalformed     = errors.New("malformed token")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidTitle       = errors.New("invalid task title")
)

type AuthService interface {
	// Register creates a user with the given email and password.
	//
	// It hashes the password, generates a unique ID, persists the
	// user and issues a token for it (auto-login on register).
	//
	// It returns ErrUserAlreadyExists if the user with the
	// given email already exists; the existing record is not
	// modified in that case.
	Register(ctx context.Context, params Credentials) (*AuthResult, error)

	// Login authenticates the user by email and password and
	// issues a fresh token.
	//
	// It returns ErrInvalidCredentials both when no user has the
	// given email and when the password doesn't match, so callers
	// cannot probe which emails are registered.
	Login(ctx context.Context, params Credentials) (*AuthResult, error)
}

// TokenService issues and verifies stateless bearer tokens.
// Nothing is persisted; the token itself carries the user identity
// and the expiry.
type TokenService interface {
	// Issue produces a signed token embedding the user ID.
	Issue(userID string) (token string, expiresAt time.Time, err error)

	// Verify checks the token signature and expiry and returns the
	// embedded user ID. It returns ErrTokenExpired for a token past
	// its expiry and ErrTokenMalformed for anything else that is
	// wrong with it (bad structure, bad signature, wrong issuer).
	Verify(token string) (userID string, err error)
}

// TaskService operations are scoped to one owner: every lookup
// filters by the user ID, so another user's task IDs behave exactly
// like IDs that don't exist.
type TaskService interface {
	// GetTasksByUserID returns all of the user's tasks ordered by
	// position ascending. No tasks is not an error.
	GetTasksByUserID(ctx context.Context, userID string) ([]*models.Task, error)

	// CreateTask appends a task to the end of the user's list
	// (position max+1, or 0 for the first task).
	//
	// It returns ErrInvalidTitle if the title is empty or
	// whitespace-only.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// UpdateTask applies the non-nil fields of params to the task.
	// Setting Position swaps the task with whichever task currently
	// holds the target position, in a single transaction, so the
	// per-user positions stay a permutation throughout.
	//
	// It returns ErrTaskNotFound if the task doesn't exist or
	// belongs to another user.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask removes the task and renumbers the user's
	// remaining tasks into 0..n-1, closing the gap.
	//
	// It returns ErrTaskNotFound if the task doesn't exist or
	// belongs to another user.
	DeleteTask(ctx context.Context, params DeleteTaskParams) error
}

type Credentials struct {
	Email    string
	Password string
}

type AuthResult struct {
	UserID         string
	Token          string
	TokenExpiresAt time.Time
}

type CreateTaskParams struct {
	UserID    string
	Title     string
	Completed bool
}

type UpdateTaskParams struct {
	ID        string
	UserID    string
	Title     *string
	Completed *bool
	Position  *int
}

type DeleteTaskParams struct {
	ID     string
	UserID string
}
