package billing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagify/imagify-api/internal/logging"
)

const testSecret = "rzp_test_secret"

type memoryStore struct {
	mu       sync.Mutex
	txns     map[uuid.UUID]*Transaction
	balances map[uuid.UUID]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{txns: make(map[uuid.UUID]*Transaction), balances: make(map[uuid.UUID]int64)}
}

func (m *memoryStore) Create(_ context.Context, txn *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn.ID = uuid.New()
	cp := *txn
	m.txns[txn.ID] = &cp
	return nil
}

func (m *memoryStore) SetOrderID(_ context.Context, id uuid.UUID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	if !ok {
		return ErrTransactionNotFound
	}
	txn.OrderID = orderID
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (m *memoryStore) Settle(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	if !ok {
		return 0, ErrTransactionNotFound
	}
	if txn.Payment {
		return 0, ErrAlreadySettled
	}
	txn.Payment = true
	m.balances[txn.UserID] += txn.Credits
	return m.balances[txn.UserID], nil
}

type fakeGateway struct {
	mu     sync.Mutex
	orders map[string]*Order
	err    error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{orders: make(map[string]*Order)}
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	o := &Order{ID: "order_" + receipt[:8], Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}
	g.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (g *fakeGateway) FetchOrder(_ context.Context, orderID string) (*Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return nil, errors.New("BAD_REQUEST_ERROR: The id provided does not exist")
	}
	cp := *o
	return &cp, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) markPaid(orderID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[orderID].Status = OrderStatusPaid
}

func newTestService() (*Service, *memoryStore, *fakeGateway) {
	store := newMemoryStore()
	gw := newFakeGateway()
	return NewService(store, gw, testSecret, "INR", logging.NewLogger(true)), store, gw
}

func TestService_CreateOrder(t *testing.T) {
	svc, store, _ := newTestService()
	userID := uuid.New()

	res, err := svc.CreateOrder(context.Background(), userID, "Advanced")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), res.Order.Amount)
	assert.Equal(t, "INR", res.Order.Currency)
	assert.Equal(t, "rzp_test_key", res.KeyID)

	txnID, err := uuid.Parse(res.Order.Receipt)
	require.NoError(t, err)
	txn, err := store.GetByID(context.Background(), txnID)
	require.NoError(t, err)
	assert.Equal(t, userID, txn.UserID)
	assert.Equal(t, int64(500), txn.Credits)
	assert.Equal(t, res.Order.ID, txn.OrderID)
	assert.False(t, txn.Payment)
}

func TestService_CreateOrder_Validation(t *testing.T) {
	svc, _, gw := newTestService()
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, uuid.New(), "")
	assert.ErrorIs(t, err, ErrMissingDetails)
	_, err = svc.CreateOrder(ctx, uuid.Nil, "Basic")
	assert.ErrorIs(t, err, ErrMissingDetails)
	_, err = svc.CreateOrder(ctx, uuid.New(), "Platinum")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	gw.err = errors.New("gateway down")
	_, err = svc.CreateOrder(ctx, uuid.New(), "Basic")
	assert.Error(t, err)
}

func TestService_VerifyPaymentCreditsOnce(t *testing.T) {
	svc, store, gw := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	res, err := svc.CreateOrder(ctx, userID, "Basic")
	require.NoError(t, err)
	gw.markPaid(res.Order.ID)

	settled, err := svc.VerifyPayment(ctx, userID, res.Order.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), settled.Credits)
	assert.Equal(t, int64(100), settled.Balance)

	_, err = svc.VerifyPayment(ctx, userID, res.Order.ID, "", "")
	assert.ErrorIs(t, err, ErrPaymentProcessed)
	assert.Equal(t, int64(100), store.balances[userID])
}

func TestService_VerifyPaymentConcurrentCreditsOnce(t *testing.T) {
	svc, store, gw := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	res, err := svc.CreateOrder(ctx, userID, "Business")
	require.NoError(t, err)
	gw.markPaid(res.Order.ID)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.VerifyPayment(ctx, userID, res.Order.ID, "", "")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5000), store.balances[userID])
}

func TestService_VerifyPayment_Unpaid(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	res, err := svc.CreateOrder(ctx, userID, "Basic")
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, userID, res.Order.ID, "", "")
	assert.ErrorIs(t, err, ErrPaymentFailed)
}

func TestService_VerifyPayment_OtherUsersOrder(t *testing.T) {
	svc, store, gw := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	res, err := svc.CreateOrder(ctx, owner, "Basic")
	require.NoError(t, err)
	gw.markPaid(res.Order.ID)

	_, err = svc.VerifyPayment(ctx, uuid.New(), res.Order.ID, "", "")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.Zero(t, store.balances[owner])
}

func TestService_VerifyPayment_Signature(t *testing.T) {
	svc, _, gw := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	res, err := svc.CreateOrder(ctx, userID, "Basic")
	require.NoError(t, err)
	gw.markPaid(res.Order.ID)

	_, err = svc.VerifyPayment(ctx, userID, res.Order.ID, "pay_1", "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	sig := sign(testSecret, res.Order.ID, "pay_1")
	_, err = svc.VerifyPayment(ctx, userID, res.Order.ID, "pay_1", sig)
	assert.NoError(t, err)
}

func TestService_VerifyPayment_MissingOrder(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.VerifyPayment(context.Background(), uuid.New(), "", "", "")
	assert.ErrorIs(t, err, ErrMissingDetails)
}
