package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/imagify/imagify-api/internal/database"
)

var (
	ErrTransactionNotFound = errors.New("Transaction not found")
	ErrAlreadySettled      = errors.New("transaction already settled")
)

// CreditAdder increments a balance inside the caller's transaction
type CreditAdder interface {
	AddCredits(ctx context.Context, db bun.IDB, userID uuid.UUID, credits int64) (int64, error)
}

// Repository handles transaction persistence
type Repository struct {
	db      *bun.DB
	credits CreditAdder
}

func NewRepository(db *bun.DB, credits CreditAdder) *Repository {
	return &Repository{db: db, credits: credits}
}

// Create stores a pending transaction and fills in its generated fields
func (r *Repository) Create(ctx context.Context, txn *Transaction) error {
	row := &database.Transaction{
		UserID:   txn.UserID,
		Plan:     txn.Plan,
		Credits:  txn.Credits,
		Amount:   txn.Amount,
		Currency: txn.Currency,
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	*txn = *mapDBTransaction(row)
	return nil
}

// SetOrderID records the gateway order created for a transaction
func (r *Repository) SetOrderID(ctx context.Context, id uuid.UUID, orderID string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Transaction)(nil)).
		Set("order_id = ?", orderID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set order id: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	row := new(database.Transaction)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return mapDBTransaction(row), nil
}

// Settle marks the transaction paid and credits its owner in one database
// transaction. Only the first call for a transaction succeeds; later calls
// return ErrAlreadySettled and change nothing.
func (r *Repository) Settle(ctx context.Context, id uuid.UUID) (int64, error) {
	var balance int64

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var (
			userID  uuid.UUID
			credits int64
		)
		result, err := tx.NewUpdate().
			Model((*database.Transaction)(nil)).
			Set("payment = TRUE").
			Set("settled_at = NOW()").
			Where("id = ?", id).
			Where("payment = FALSE").
			Returning("user_id, credits").
			Exec(ctx, &userID, &credits)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to mark transaction paid: %w", err)
		}
		if err != nil {
			return ErrAlreadySettled
		}
		if n, rerr := result.RowsAffected(); rerr == nil && n == 0 {
			return ErrAlreadySettled
		}

		balance, err = r.credits.AddCredits(ctx, tx, userID, credits)
		return err
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func mapDBTransaction(row *database.Transaction) *Transaction {
	t := &Transaction{
		ID:        row.ID,
		UserID:    row.UserID,
		Plan:      row.Plan,
		Credits:   row.Credits,
		Amount:    row.Amount,
		Currency:  row.Currency,
		Payment:   row.Payment,
		SettledAt: row.SettledAt,
		CreatedAt: row.CreatedAt,
	}
	if row.OrderID != nil {
		t.OrderID = *row.OrderID
	}
	return t
}
