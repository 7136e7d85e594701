package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imagify/imagify-api/internal/logging"
	"github.com/imagify/imagify-api/internal/user"
)

var (
	ErrMissingDetails     = errors.New("Missing Details")
	ErrEmailRequired      = errors.New("Email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrUserExists         = errors.New("User already exists")
	ErrUserNotFound       = errors.New("User does not exist")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrGoogleDisabled     = errors.New("google sign-in is not configured")
)

const minPasswordLength = 8

// UserRepository is the persistence the auth flows need
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
	CreateOAuth(ctx context.Context, name, email, googleID string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*user.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	LinkGoogle(ctx context.Context, userID uuid.UUID, googleID string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendOTPEmail(ctx context.Context, toEmail, code string, ttl time.Duration) error
}

// AuthResult is what a successful register or login hands back
type AuthResult struct {
	Token string
	User  *user.User
}

// Service handles authentication business logic
type Service struct {
	users         UserRepository
	otps          OTPStore
	tokenService  TokenService
	emailService  EmailService
	logger        *logging.Logger
	tokenDuration time.Duration
	otpTTL        time.Duration
	now           func() time.Time

	google OAuthProvider
	states StateStore
}

func NewService(
	users UserRepository,
	otps OTPStore,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	tokenDuration time.Duration,
	otpTTL time.Duration,
) *Service {
	return &Service{
		users:         users,
		otps:          otps,
		tokenService:  tokenService,
		emailService:  emailService,
		logger:        logger,
		tokenDuration: tokenDuration,
		otpTTL:        otpTTL,
		now:           time.Now,
	}
}

// EnableGoogle turns on the Google sign-in flow
func (s *Service) EnableGoogle(provider OAuthProvider, states StateStore) {
	s.google = provider
	s.states = states
}

// GoogleEnabled reports whether EnableGoogle was called
func (s *Service) GoogleEnabled() bool {
	return s.google != nil && s.states != nil
}

// RequestOTP mails a fresh signup code to an unregistered address.
// Any code already pending for the address is replaced.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return ErrUserExists
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	entry := OTPEntry{Code: code, ExpiresAt: s.now().Add(s.otpTTL)}
	if err := s.otps.Put(ctx, email, entry); err != nil {
		return err
	}

	if err := s.emailService.SendOTPEmail(ctx, email, code, s.otpTTL); err != nil {
		// an unsent code must not stay verifiable
		if delErr := s.otps.Delete(ctx, email); delErr != nil {
			s.logger.Warn("failed to delete unsent otp", "email", email, "error", delErr)
		}
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	return nil
}

// VerifyOTP checks a signup code. A code verifies at most once.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrMissingDetails
	}

	return s.otps.Consume(ctx, email, code, s.now())
}

// Register creates a password account and signs it in
func (s *Service) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingDetails
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(newUser)
}

// Login authenticates a password account
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingDetails
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !existing.HasPassword() || !VerifyPassword(existing.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(existing)
}

// Profile loads the account behind a verified token
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GoogleAuthURL starts the OAuth flow and returns the consent page to redirect to
func (s *Service) GoogleAuthURL(ctx context.Context) (string, error) {
	if !s.GoogleEnabled() {
		return "", ErrGoogleDisabled
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	if err := s.states.Save(ctx, state); err != nil {
		return "", err
	}

	return s.google.AuthCodeURL(state), nil
}

// CompleteGoogleLogin handles the OAuth callback. The account is found by
// Google id, then by email (linking the identity), and is created otherwise.
func (s *Service) CompleteGoogleLogin(ctx context.Context, state, code string) (*AuthResult, error) {
	if !s.GoogleEnabled() {
		return nil, ErrGoogleDisabled
	}
	if state == "" || code == "" {
		return nil, ErrInvalidOAuthState
	}

	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOAuthState
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	u, err := s.resolveGoogleUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	return s.issue(u)
}

func (s *Service) resolveGoogleUser(ctx context.Context, profile *GoogleProfile) (*user.User, error) {
	u, err := s.users.GetByGoogleID(ctx, profile.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by google id: %w", err)
	}

	email := normalizeEmail(profile.Email)
	u, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// only a verified Google address may take over an existing account
		if !profile.EmailVerified {
			return nil, ErrUserExists
		}
		if err := s.users.LinkGoogle(ctx, u.ID, profile.Subject); err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		u.GoogleID = profile.Subject
		return u, nil
	case !errors.Is(err, user.ErrNotFound):
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = email
	}

	u, err = s.users.CreateOAuth(ctx, name, email, profile.Subject)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user created from google sign-in", "user_id", u.ID)

	return u, nil
}

func (s *Service) issue(u *user.User) (*AuthResult, error) {
	token, err := s.tokenService.CreateToken(u.ID, u.Email, s.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

func validateEmail(email string) error {
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
