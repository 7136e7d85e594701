package image

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagify/imagify-api/internal/auth"
	"github.com/imagify/imagify-api/internal/httputil"
	"github.com/imagify/imagify-api/internal/logging"
	"github.com/imagify/imagify-api/internal/user"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

type ledger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
}

func newLedger(id uuid.UUID, balance int64) *ledger {
	return &ledger{balances: map[uuid.UUID]int64{id: balance}}
}

func (l *ledger) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &user.User{ID: id, Name: "Ada", CreditBalance: b}, nil
}

func (l *ledger) ReserveCredit(_ context.Context, id uuid.UUID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[id] <= 0 {
		return 0, user.ErrInsufficientCredits
	}
	l.balances[id]--
	return l.balances[id], nil
}

func (l *ledger) RefundCredit(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[id]++
	return nil
}

func (l *ledger) balance(id uuid.UUID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, _ string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return pngBytes, nil
}

type fakeArchive struct {
	err error
}

func (a *fakeArchive) Store(_ context.Context, _ uuid.UUID, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return "https://cdn.example.com/images/1.png", nil
}

func TestService_Generate(t *testing.T) {
	id := uuid.New()
	users := newLedger(id, 3)
	gen := &fakeGenerator{}
	svc := NewService(users, gen, nil, logging.NewLogger(true))

	res, err := svc.Generate(context.Background(), id, "a cat in a hat")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.CreditBalance)
	assert.Equal(t, DataURL(pngBytes), res.Image)
	assert.True(t, strings.HasPrefix(res.Image, "data:image/png;base64,"))
	assert.Equal(t, int64(2), users.balance(id))
}

func TestService_Generate_ZeroBalanceSkipsImageAPI(t *testing.T) {
	id := uuid.New()
	gen := &fakeGenerator{}
	svc := NewService(newLedger(id, 0), gen, nil, logging.NewLogger(true))

	_, err := svc.Generate(context.Background(), id, "a cat")
	require.ErrorIs(t, err, ErrNoCredits)

	var noCredits *NoCreditsError
	require.ErrorAs(t, err, &noCredits)
	assert.Equal(t, int64(0), noCredits.Balance)
	assert.Zero(t, gen.calls)
}

func TestService_Generate_RefundsOnFailure(t *testing.T) {
	id := uuid.New()
	users := newLedger(id, 1)
	gen := &fakeGenerator{err: errors.New("upstream 500")}
	svc := NewService(users, gen, nil, logging.NewLogger(true))

	_, err := svc.Generate(context.Background(), id, "a cat")
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, int64(1), users.balance(id))
}

func TestService_Generate_ConcurrentSpendNeverGoesNegative(t *testing.T) {
	id := uuid.New()
	users := newLedger(id, 3)
	gen := &fakeGenerator{}
	svc := NewService(users, gen, nil, logging.NewLogger(true))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Generate(context.Background(), id, "a cat")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), users.balance(id))
	assert.Equal(t, 3, gen.calls)
}

func TestService_Generate_Archive(t *testing.T) {
	id := uuid.New()

	svc := NewService(newLedger(id, 2), &fakeGenerator{}, &fakeArchive{}, logging.NewLogger(true))
	res, err := svc.Generate(context.Background(), id, "a cat")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/1.png", res.Image)

	svc = NewService(newLedger(id, 2), &fakeGenerator{}, &fakeArchive{err: errors.New("bucket gone")}, logging.NewLogger(true))
	res, err = svc.Generate(context.Background(), id, "a cat")
	require.NoError(t, err)
	assert.Equal(t, DataURL(pngBytes), res.Image)
}

func TestService_Generate_Validation(t *testing.T) {
	id := uuid.New()
	svc := NewService(newLedger(id, 2), &fakeGenerator{}, nil, logging.NewLogger(true))

	_, err := svc.Generate(context.Background(), id, "   ")
	assert.ErrorIs(t, err, ErrMissingDetails)

	_, err = svc.Generate(context.Background(), uuid.New(), "a cat")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func generateRequest(t *testing.T, h *Handler, userID uuid.UUID, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/image/generate-image", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDContextKey, userID))
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Generate(t *testing.T) {
	id := uuid.New()
	h := NewHandler(NewService(newLedger(id, 1), &fakeGenerator{}, nil, logging.NewLogger(true)))

	out := generateRequest(t, h, id, `{"prompt":"a cat"}`)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Image Generated", out["message"])
	assert.Equal(t, float64(0), out["creditBalance"])
	assert.Equal(t, DataURL(pngBytes), out["resultImage"])

	out = generateRequest(t, h, id, `{"prompt":"another cat"}`)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "No Credit Balance", out["message"])
	assert.Equal(t, httputil.CodeNoCredits, out["code"])
	assert.Equal(t, float64(0), out["creditBalance"])
}

func TestHandler_Generate_UpstreamFailure(t *testing.T) {
	id := uuid.New()
	h := NewHandler(NewService(newLedger(id, 1), &fakeGenerator{err: &APIError{StatusCode: 500}}, nil, logging.NewLogger(true)))

	out := generateRequest(t, h, id, `{"prompt":"a cat"}`)
	assert.Equal(t, ErrGenerationFailed.Error(), out["message"])
	assert.Equal(t, httputil.CodeGenerationError, out["code"])
}
