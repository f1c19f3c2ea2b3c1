package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// Role classifies platform participants. Farmers and FPOs sell lots;
// buyers, processors and retailers bid on them. The engine itself only
// checks identity (seller-of-lot, bidder-of-bid); the role is carried for
// listing and notification purposes.
type Role string

const (
	RoleFarmer    Role = "farmer"
	RoleFPO       Role = "fpo"
	RoleBuyer     Role = "buyer"
	RoleProcessor Role = "processor"
	RoleRetailer  Role = "retailer"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleFarmer, RoleFPO, RoleBuyer, RoleProcessor, RoleRetailer:
		return true
	default:
		return false
	}
}

type User struct {
	ID        uuid.UUID
	Name      string
	Role      Role
	CreatedAt time.Time
}

// Repository is the persistence interface for users. The engine resolves
// the X-User-ID header through it before any operation.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user *User) error
}
