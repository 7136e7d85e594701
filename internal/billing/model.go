package billing

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one credit purchase attempt. It is settled at most once.
type Transaction struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Plan      string
	Credits   int64
	Amount    int64
	Currency  string
	OrderID   string
	Payment   bool
	SettledAt *time.Time
	CreatedAt time.Time
}

// Order is a gateway order. Amount is in minor currency units.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}
