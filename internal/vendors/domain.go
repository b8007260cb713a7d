package vendors

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is one marketplace merchant.
type Vendor struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// OnboardInput describes a vendor to onboard.
type OnboardInput struct {
	Name           string
	Email          string
	InitialCapital decimal.Decimal
	ActorID        int64
}

var (
	// ErrNotFound indicates the vendor does not exist.
	ErrNotFound = errors.New("vendors: not found")
	// ErrEmailTaken indicates another vendor already uses the email.
	ErrEmailTaken = errors.New("vendors: email already registered")
)
