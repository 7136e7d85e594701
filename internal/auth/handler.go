package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/imagify/imagify-api/internal/httputil"
	"github.com/imagify/imagify-api/internal/logging"
)

const tooManyRequestsMessage = "Too many requests, please try again later"

// RateLimiter throttles unauthenticated endpoints per client IP and per email
type RateLimiter interface {
	AllowIP(ctx context.Context, ip, purpose string) (bool, error)
	ClaimEmailCooldown(ctx context.Context, email string) (bool, error)
	ReleaseEmailCooldown(ctx context.Context, email string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	frontendURL string
}

func NewHandler(service *Service, rateLimiter RateLimiter, frontendURL string) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// SendOTPRequest represents the OTP request body
type SendOTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest represents the OTP verification body
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserSummary is the part of the account the web client displays
type UserSummary struct {
	Name string `json:"name"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

// CreditsResponse carries the caller's balance
type CreditsResponse struct {
	Success bool        `json:"success"`
	Credits int64       `json:"credits"`
	User    UserSummary `json:"user"`
}

// SendOTP handles signup code requests
// @Summary      Send signup OTP
// @Description  Email a 6-digit code to an address that has no account yet. A new request replaces the previous code. Failures answer 200 with success=false and message one of: Email is required, User already exists, Too many requests, please try again later.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body SendOTPRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Router       /api/user/send-otp [post]
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.ipLimited(w, r, "send-otp") {
		return
	}

	var req SendOTPRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid send-otp request body", "error", err.Error())
		httputil.RespondFailure(w, ErrMissingDetails.Error(), httputil.CodeMissingDetails)
		return
	}

	email := normalizeEmail(req.Email)
	logger = logger.WithFields(map[string]any{"email": email})

	claimed := false
	if h.rateLimiter != nil && email != "" {
		ok, err := h.rateLimiter.ClaimEmailCooldown(r.Context(), email)
		if err != nil {
			logger.Error("failed to claim email cooldown", "error", err.Error())
		} else if !ok {
			logger.Warn("otp requested during cooldown")
			httputil.RespondFailure(w, tooManyRequestsMessage, httputil.CodeCooldownActive)
			return
		}
		claimed = ok
	}

	if err := h.service.RequestOTP(r.Context(), email); err != nil {
		if claimed {
			if err := h.rateLimiter.ReleaseEmailCooldown(r.Context(), email); err != nil {
				logger.Error("failed to release email cooldown", "error", err.Error())
			}
		}
		h.respondError(w, logger, "send otp", err)
		return
	}

	logger.Info("otp sent")
	httputil.RespondMessage(w, "OTP sent successfully")
}

// VerifyOTP handles signup code verification
// @Summary      Verify signup OTP
// @Description  Check the emailed code. A code is accepted once and expires after 5 minutes. Failures answer 200 with success=false and message one of: OTP not found or expired, OTP expired, Invalid OTP.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body VerifyOTPRequest true "Email and code"
// @Success      200 {object} httputil.MessageResponse
// @Router       /api/user/verify-otp [post]
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.ipLimited(w, r, "verify-otp") {
		return
	}

	var req VerifyOTPRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid verify-otp request body", "error", err.Error())
		httputil.RespondFailure(w, ErrMissingDetails.Error(), httputil.CodeMissingDetails)
		return
	}

	logger = logger.WithFields(map[string]any{"email": normalizeEmail(req.Email)})

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		h.respondError(w, logger, "verify otp", err)
		return
	}

	logger.Info("otp verified")
	httputil.RespondMessage(w, "OTP verified successfully")
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a password account and receive a session token. Failures answer 200 with success=false and message one of: Missing Details, invalid email format, password must be at least 8 characters, User already exists.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      200 {object} AuthResponse
// @Router       /api/user/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.ipLimited(w, r, "register") {
		return
	}

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondFailure(w, ErrMissingDetails.Error(), httputil.CodeMissingDetails)
		return
	}

	logger = logger.WithFields(map[string]any{"email": normalizeEmail(req.Email)})

	result, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, logger, "registration", err)
		return
	}

	logger.Info("user registered successfully", "user_id", result.User.ID)
	httputil.RespondOK(w, newAuthResponse(result))
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a session token. Failures answer 200 with success=false and message one of: User does not exist, Invalid credentials.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthResponse
// @Router       /api/user/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.ipLimited(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondFailure(w, ErrMissingDetails.Error(), httputil.CodeMissingDetails)
		return
	}

	logger = logger.WithFields(map[string]any{"email": normalizeEmail(req.Email)})

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, logger, "login", err)
		return
	}

	logger.Info("user logged in successfully", "user_id", result.User.ID)
	httputil.RespondOK(w, newAuthResponse(result))
}

// Credits returns the caller's balance
// @Summary      Credit balance
// @Description  Failures answer 200 with success=false and message one of: Not Authorized. Login Again.
// @Tags         user
// @Produce      json
// @Param        token header string true "Session token"
// @Success      200 {object} CreditsResponse
// @Router       /api/user/credits [get]
func (h *Handler) Credits(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondFailure(w, NotAuthorizedMessage, httputil.CodeNotAuthorized)
		return
	}

	u, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		h.respondError(w, logger, "load credits", err)
		return
	}

	httputil.RespondOK(w, CreditsResponse{
		Success: true,
		Credits: u.CreditBalance,
		User:    UserSummary{Name: u.Name},
	})
}

// GoogleLogin redirects the browser to the Google consent page
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      302
// @Router       /auth/google [get]
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	target, err := h.service.GoogleAuthURL(r.Context())
	if err != nil {
		logger.Error("failed to start google sign-in", "error", err.Error())
		h.redirectLoginError(w, r, "google_unavailable")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// GoogleCallback finishes Google sign-in and hands the token to the frontend
// @Summary      Google sign-in callback
// @Tags         auth
// @Param        state query string true "OAuth state"
// @Param        code  query string true "Authorization code"
// @Success      302
// @Router       /auth/google/callback [get]
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		logger.Warn("google sign-in declined", "error", providerErr)
		h.redirectLoginError(w, r, "google_auth_failed")
		return
	}

	result, err := h.service.CompleteGoogleLogin(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOAuthState):
			logger.Warn("google callback with invalid state")
		case errors.Is(err, ErrUserExists):
			logger.Warn("google identity conflicts with an existing account")
		default:
			logger.Error("google sign-in failed", "error", err.Error())
		}
		h.redirectLoginError(w, r, "google_auth_failed")
		return
	}

	logger.Info("user signed in with google", "user_id", result.User.ID)
	target := h.frontendURL + "/google-auth-success?token=" + url.QueryEscape(result.Token)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) redirectLoginError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.frontendURL+"/login?error="+url.QueryEscape(reason), http.StatusFound)
}

// ipLimited enforces the per-IP window for purpose. Limiter failures are logged
// and let the request through.
func (h *Handler) ipLimited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if h.rateLimiter == nil {
		return false
	}
	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	allowed, err := h.rateLimiter.AllowIP(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if !allowed {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondFailure(w, tooManyRequestsMessage, httputil.CodeTooManyRequests)
		return true
	}
	return false
}

// respondError maps service errors onto the failure envelope
func (h *Handler) respondError(w http.ResponseWriter, logger *logging.Logger, action string, err error) {
	var code string
	switch {
	case errors.Is(err, ErrMissingDetails), errors.Is(err, ErrEmailRequired):
		code = httputil.CodeMissingDetails
	case errors.Is(err, ErrInvalidEmailFormat):
		code = httputil.CodeInvalidEmailFormat
	case errors.Is(err, ErrPasswordTooShort):
		code = httputil.CodePasswordTooShort
	case errors.Is(err, ErrUserExists):
		code = httputil.CodeUserExists
	case errors.Is(err, ErrUserNotFound):
		code = httputil.CodeUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		code = httputil.CodeInvalidCredentials
	case errors.Is(err, ErrOTPNotFound):
		code = httputil.CodeOTPNotFound
	case errors.Is(err, ErrOTPExpired):
		code = httputil.CodeOTPExpired
	case errors.Is(err, ErrOTPInvalid):
		code = httputil.CodeOTPInvalid
	default:
		logger.Error(action+" failed: internal error", "error", err.Error())
		httputil.RespondFailure(w, httputil.GenericFailureMessage, httputil.CodeInternalError)
		return
	}

	logger.Warn(action+" failed", "reason", err.Error())
	httputil.RespondFailure(w, err.Error(), code)
}

func newAuthResponse(result *AuthResult) AuthResponse {
	return AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    UserSummary{Name: result.User.Name},
	}
}

// getClientIP returns the caller address. chi's RealIP middleware has
// already folded X-Forwarded-For and X-Real-IP into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
