package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound indicates the user id does not resolve to a registered user.
var ErrNotFound = errors.New("user not found")

// User is the minimal account view the order flow needs.
type User struct {
	ID       string
	Username string
	Email    string
}

// Directory provides read access to registered users.
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
}
