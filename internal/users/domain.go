package users

import (
	"github.com/courtline/courtline/internal/shared"
)

// User is a club member account: trainers log sessions, admins approve and
// settle them.
type User struct {
	ID    int64
	Name  string
	Email string
	Role  shared.Role
	IBAN  string
}
