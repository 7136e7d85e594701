package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/imagify/imagify-api/internal/database"
)

var (
	ErrNotFound            = errors.New("user not found")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrInsufficientCredits = errors.New("insufficient credit balance")
)

// Repository handles user data persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts a password account
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	return r.insert(ctx, &database.User{
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: &passwordHash,
	})
}

// CreateOAuth inserts an account backed by a Google identity
func (r *Repository) CreateOAuth(ctx context.Context, name, email, googleID string) (*User, error) {
	return r.insert(ctx, &database.User{
		Name:     name,
		Email:    normalizeEmail(email),
		GoogleID: &googleID,
	})
}

func (r *Repository) insert(ctx context.Context, dbUser *database.User) (*User, error) {
	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "LOWER(email) = ?", normalizeEmail(email))
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByGoogleID retrieves a user by the Google subject identifier
func (r *Repository) GetByGoogleID(ctx context.Context, googleID string) (*User, error) {
	return r.getOne(ctx, "google_id = ?", googleID)
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// ExistsByEmail reports whether an account is registered for email
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("LOWER(email) = ?", normalizeEmail(email)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// LinkGoogle attaches a Google identity to an existing account
func (r *Repository) LinkGoogle(ctx context.Context, userID uuid.UUID, googleID string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("google_id = ?", googleID).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to link google account: %w", err)
	}

	return requireRow(result)
}

// ReserveCredit takes one credit if the balance allows it and returns the new balance
func (r *Repository) ReserveCredit(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("credit_balance = credit_balance - 1").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("credit_balance > 0").
		Returning("credit_balance").
		Exec(ctx, &balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to reserve credit: %w", err)
	}
	if err != nil || requireRow(result) != nil {
		return 0, ErrInsufficientCredits
	}

	return balance, nil
}

// RefundCredit gives back a credit taken by ReserveCredit
func (r *Repository) RefundCredit(ctx context.Context, userID uuid.UUID) error {
	_, err := r.AddCredits(ctx, r.db, userID, 1)
	return err
}

// AddCredits increments the balance through db, which may be a transaction
func (r *Repository) AddCredits(ctx context.Context, db bun.IDB, userID uuid.UUID, credits int64) (int64, error) {
	var balance int64
	result, err := db.NewUpdate().
		Model((*database.User)(nil)).
		Set("credit_balance = credit_balance + ?", credits).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Returning("credit_balance").
		Exec(ctx, &balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}
	if err != nil || requireRow(result) != nil {
		return 0, ErrNotFound
	}

	return balance, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	u := &User{
		ID:            dbu.ID,
		Name:          dbu.Name,
		Email:         dbu.Email,
		CreditBalance: dbu.CreditBalance,
		CreatedAt:     dbu.CreatedAt,
		UpdatedAt:     dbu.UpdatedAt,
	}
	if dbu.PasswordHash != nil {
		u.PasswordHash = *dbu.PasswordHash
	}
	if dbu.GoogleID != nil {
		u.GoogleID = *dbu.GoogleID
	}
	return u
}
