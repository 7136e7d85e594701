package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name          string    `bun:"name,notnull"`
	Email         string    `bun:"email,notnull"`
	PasswordHash  *string   `bun:"password_hash"`
	GoogleID      *string   `bun:"google_id"`
	CreditBalance int64     `bun:"credit_balance,notnull,default:5"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Transaction is the bun model for a credit purchase attempt
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID  `bun:"user_id,type:uuid,notnull"`
	Plan      string     `bun:"plan,notnull"`
	Credits   int64      `bun:"credits,notnull"`
	Amount    int64      `bun:"amount,notnull"`
	Currency  string     `bun:"currency,notnull"`
	OrderID   *string    `bun:"order_id"`
	Payment   bool       `bun:"payment,notnull,default:false"`
	SettledAt *time.Time `bun:"settled_at"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}
