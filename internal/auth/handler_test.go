package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagify/imagify-api/internal/httputil"
)

type stubLimiter struct {
	denied   bool
	taken    bool
	err      error
	counted  []string
	claimed  []string
	released []string
}

func (s *stubLimiter) AllowIP(_ context.Context, _, purpose string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.counted = append(s.counted, purpose)
	return !s.denied, nil
}

func (s *stubLimiter) ClaimEmailCooldown(_ context.Context, email string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.taken {
		return false, nil
	}
	s.claimed = append(s.claimed, email)
	return true, nil
}

func (s *stubLimiter) ReleaseEmailCooldown(_ context.Context, email string) error {
	s.released = append(s.released, email)
	return nil
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:4321"
	rec := httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	f := newServiceFixture(t)
	limiter := &stubLimiter{}
	h := NewHandler(f.svc, limiter, "http://localhost:5173")

	out := postJSON(t, h.Register, `{"name":"Ada","email":"ada@example.com","password":"password123"}`)
	assert.Equal(t, true, out["success"])
	assert.NotEmpty(t, out["token"])
	assert.Equal(t, map[string]any{"name": "Ada"}, out["user"])

	out = postJSON(t, h.Register, `{"name":"Ada","email":"ada@example.com","password":"password123"}`)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "User already exists", out["message"])
	assert.Equal(t, httputil.CodeUserExists, out["code"])

	out = postJSON(t, h.Login, `{"email":"ada@example.com","password":"nope-nope"}`)
	assert.Equal(t, "Invalid credentials", out["message"])

	out = postJSON(t, h.Login, `{"email":"bob@example.com","password":"password123"}`)
	assert.Equal(t, "User does not exist", out["message"])

	out = postJSON(t, h.Login, `{"email":"ada@example.com","password":"password123"}`)
	assert.Equal(t, true, out["success"])

	assert.Equal(t, []string{"register", "register", "login", "login", "login"}, limiter.counted)
}

func TestHandler_MissingDetails(t *testing.T) {
	f := newServiceFixture(t)
	h := NewHandler(f.svc, nil, "http://localhost:5173")

	out := postJSON(t, h.Register, `{"email":"ada@example.com"}`)
	assert.Equal(t, "Missing Details", out["message"])

	out = postJSON(t, h.Login, `{not json`)
	assert.Equal(t, "Missing Details", out["message"])
}

func TestHandler_RateLimited(t *testing.T) {
	f := newServiceFixture(t)
	h := NewHandler(f.svc, &stubLimiter{denied: true}, "http://localhost:5173")

	out := postJSON(t, h.Login, `{"email":"ada@example.com","password":"password123"}`)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Too many requests, please try again later", out["message"])
	assert.Equal(t, httputil.CodeTooManyRequests, out["code"])
}

func TestHandler_LimiterErrorDoesNotBlock(t *testing.T) {
	f := newServiceFixture(t)
	h := NewHandler(f.svc, &stubLimiter{err: errors.New("redis down")}, "http://localhost:5173")

	out := postJSON(t, h.SendOTP, `{"email":"ada@example.com"}`)
	assert.Equal(t, true, out["success"])
}

func TestHandler_SendAndVerifyOTP(t *testing.T) {
	f := newServiceFixture(t)
	limiter := &stubLimiter{}
	h := NewHandler(f.svc, limiter, "http://localhost:5173")

	out := postJSON(t, h.SendOTP, `{"email":"ada@example.com"}`)
	assert.Equal(t, "OTP sent successfully", out["message"])
	assert.Equal(t, []string{"ada@example.com"}, limiter.claimed)
	assert.Empty(t, limiter.released)

	code := f.email.last().code
	out = postJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"`+code+`"}`)
	assert.Equal(t, "OTP verified successfully", out["message"])

	out = postJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"`+code+`"}`)
	assert.Equal(t, "OTP not found or expired", out["message"])
}

func TestHandler_SendOTPCooldown(t *testing.T) {
	f := newServiceFixture(t)
	h := NewHandler(f.svc, &stubLimiter{taken: true}, "http://localhost:5173")

	out := postJSON(t, h.SendOTP, `{"email":"ada@example.com"}`)
	assert.Equal(t, httputil.CodeCooldownActive, out["code"])
	assert.Empty(t, f.email.sent)
}

func TestHandler_SendOTPInternalErrorIsGeneric(t *testing.T) {
	f := newServiceFixture(t)
	f.email.err = errors.New("535 auth failed")
	h := NewHandler(f.svc, nil, "http://localhost:5173")

	out := postJSON(t, h.SendOTP, `{"email":"ada@example.com"}`)
	assert.Equal(t, httputil.GenericFailureMessage, out["message"])
	assert.Equal(t, httputil.CodeInternalError, out["code"])
}

func TestHandler_SendOTPFailureReleasesCooldown(t *testing.T) {
	f := newServiceFixture(t)
	f.email.err = errors.New("535 auth failed")
	limiter := &stubLimiter{}
	h := NewHandler(f.svc, limiter, "http://localhost:5173")

	out := postJSON(t, h.SendOTP, `{"email":"ada@example.com"}`)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, []string{"ada@example.com"}, limiter.claimed)
	assert.Equal(t, []string{"ada@example.com"}, limiter.released)
}

func TestHandler_RegisterShortPassword(t *testing.T) {
	f := newServiceFixture(t)
	h := NewHandler(f.svc, nil, "http://localhost:5173")

	out := postJSON(t, h.Register, `{"name":"Ada","email":"ada@example.com","password":"short"}`)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "password must be at least 8 characters", out["message"])
}

func TestHandler_Credits(t *testing.T) {
	f := newServiceFixture(t)
	h := NewHandler(f.svc, nil, "http://localhost:5173")
	res, err := f.svc.Register(context.Background(), "Ada", "ada@example.com", "password123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/credits", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDContextKey, res.User.ID))
	rec := httptest.NewRecorder()
	h.Credits(rec, req)

	assert.JSONEq(t, `{"success":true,"credits":5,"user":{"name":"Ada"}}`, rec.Body.String())
}

func TestHandler_GoogleFlow(t *testing.T) {
	f := newServiceFixture(t)
	enableGoogle(f, &GoogleProfile{Subject: "g-1", Name: "Ada", Email: "ada@example.com", EmailVerified: true})
	h := NewHandler(f.svc, nil, "http://localhost:5173/")

	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	consent, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	rec = httptest.NewRecorder()
	h.GoogleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+state, nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/google-auth-success", location.Path)

	claims, err := f.tokens.VerifyToken(location.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestHandler_GoogleCallbackFailureRedirectsToLogin(t *testing.T) {
	f := newServiceFixture(t)
	enableGoogle(f, &GoogleProfile{Subject: "g-1", Email: "ada@example.com"})
	h := NewHandler(f.svc, nil, "http://localhost:5173")

	rec := httptest.NewRecorder()
	h.GoogleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173/login?error=google_auth_failed", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.GoogleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil))
	assert.Equal(t, "http://localhost:5173/login?error=google_auth_failed", rec.Header().Get("Location"))
}

func TestMiddleware_RequireAuth(t *testing.T) {
	tokens, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)
	m := NewMiddleware(tokens)

	userID := uuid.New()
	token, err := tokens.CreateToken(userID, "ada@example.com", time.Hour)
	require.NoError(t, err)

	var seen uuid.UUID
	protected := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
		email, _ := GetUserEmailFromContext(r.Context())
		assert.Equal(t, "ada@example.com", email)
		httputil.RespondMessage(w, "ok")
	}))

	cases := []struct {
		name   string
		header string
		value  string
		ok     bool
	}{
		{"token header", "token", token, true},
		{"bearer", "Authorization", "Bearer " + token, true},
		{"missing", "", "", false},
		{"garbage", "token", "garbage", false},
		{"basic auth", "Authorization", "Basic abc", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			if tc.ok {
				assert.Equal(t, userID, seen)
				return
			}
			assert.Equal(t, uuid.Nil, seen)
			assert.Contains(t, rec.Body.String(), NotAuthorizedMessage)
		})
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	tokens, _ := NewPasetoService(testPasetoKey)
	token, err := tokens.CreateToken(uuid.New(), "ada@example.com", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("token", token)
	rec := httptest.NewRecorder()
	NewMiddleware(tokens).RequireAuth(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.JSONEq(t, `{"success":false,"message":"Not Authorized. Login Again","code":"TOKEN_EXPIRED"}`, rec.Body.String())
}

func TestRedisStateStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStateStore(client)

	require.NoError(t, store.Save(ctx, "state-1"))
	assert.Equal(t, oauthStateTTL, mr.TTL(oauthStateKey("state-1")))

	ok, err := store.Consume(ctx, "state-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "state-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "state-2"))
	mr.FastForward(oauthStateTTL + time.Second)
	ok, err = store.Consume(ctx, "state-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
