package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/imagify/imagify-api/internal/logging"
	"github.com/imagify/imagify-api/internal/user"
)

var (
	ErrMissingDetails   = errors.New("Missing Details")
	ErrNoCredits        = errors.New("No Credit Balance")
	ErrUserNotFound     = errors.New("User not found")
	ErrGenerationFailed = errors.New("Image generation failed")
)

// NoCreditsError reports the balance that blocked a generation
type NoCreditsError struct {
	Balance int64
}

func (e *NoCreditsError) Error() string { return ErrNoCredits.Error() }

func (e *NoCreditsError) Is(target error) bool { return target == ErrNoCredits }

// UserStore is the credit ledger a generation draws on
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	ReserveCredit(ctx context.Context, userID uuid.UUID) (int64, error)
	RefundCredit(ctx context.Context, userID uuid.UUID) error
}

// Result is a generated image and the balance left after paying for it
type Result struct {
	Image         string
	CreditBalance int64
}

// Service spends one credit per generated image
type Service struct {
	users     UserStore
	generator Generator
	archive   Archive
	logger    *logging.Logger
}

// NewService wires the generation flow. archive may be nil, in which case
// images are returned inline as data URLs.
func NewService(users UserStore, generator Generator, archive Archive, logger *logging.Logger) *Service {
	return &Service{
		users:     users,
		generator: generator,
		archive:   archive,
		logger:    logger,
	}
}

// Generate reserves a credit, calls the image API and refunds the credit if the call fails.
// A caller with no credits is rejected before the image API is contacted.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if userID == uuid.Nil || prompt == "" {
		return nil, ErrMissingDetails
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.CreditBalance <= 0 {
		return nil, &NoCreditsError{Balance: u.CreditBalance}
	}

	balance, err := s.users.ReserveCredit(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrInsufficientCredits) {
			return nil, &NoCreditsError{Balance: 0}
		}
		return nil, fmt.Errorf("failed to reserve credit: %w", err)
	}

	png, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		// refund even if the caller went away
		if refundErr := s.users.RefundCredit(context.WithoutCancel(ctx), userID); refundErr != nil {
			s.logger.Error("failed to refund credit", "user_id", userID, "error", refundErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return &Result{Image: s.imageURL(ctx, userID, png), CreditBalance: balance}, nil
}

// imageURL archives the image when storage is configured. The credit is
// already spent, so an archive failure falls back to an inline image.
func (s *Service) imageURL(ctx context.Context, userID uuid.UUID, png []byte) string {
	if s.archive != nil {
		url, err := s.archive.Store(ctx, userID, png)
		if err == nil {
			return url
		}
		s.logger.Warn("failed to archive image, returning inline", "user_id", userID, "error", err)
	}
	return DataURL(png)
}

// DataURL encodes PNG bytes as a data: URL
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
