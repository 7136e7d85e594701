package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/imagify/imagify-api/internal/logging"
)

var (
	ErrMissingDetails   = errors.New("Missing Details")
	ErrPlanNotFound     = errors.New("Plan not found")
	ErrPaymentFailed    = errors.New("Payment Failed")
	ErrPaymentProcessed = errors.New("Payment already processed")
	ErrInvalidSignature = errors.New("Invalid payment signature")
)

// TransactionStore is the persistence the payment flow needs
type TransactionStore interface {
	Create(ctx context.Context, txn *Transaction) error
	SetOrderID(ctx context.Context, id uuid.UUID, orderID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Settle(ctx context.Context, id uuid.UUID) (int64, error)
}

// OrderResult is what the checkout widget needs to open a payment
type OrderResult struct {
	Order Order
	KeyID string
}

// Settlement describes credits granted by a verified payment
type Settlement struct {
	Credits int64
	Balance int64
}

// Service handles credit purchases
type Service struct {
	store     TransactionStore
	gateway   Gateway
	keySecret string
	currency  string
	logger    *logging.Logger
}

func NewService(store TransactionStore, gateway Gateway, keySecret, currency string, logger *logging.Logger) *Service {
	return &Service{
		store:     store,
		gateway:   gateway,
		keySecret: keySecret,
		currency:  currency,
		logger:    logger,
	}
}

// CreateOrder records a pending purchase of planID and opens a gateway order
// whose receipt is the transaction id.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, planID string) (*OrderResult, error) {
	if userID == uuid.Nil || planID == "" {
		return nil, ErrMissingDetails
	}

	plan, ok := FindPlan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	txn := &Transaction{
		UserID:   userID,
		Plan:     plan.ID,
		Credits:  plan.Credits,
		Amount:   plan.Amount,
		Currency: s.currency,
	}
	if err := s.store.Create(ctx, txn); err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, plan.Amount*100, s.currency, txn.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	if err := s.store.SetOrderID(ctx, txn.ID, order.ID); err != nil {
		return nil, err
	}

	s.logger.Info("payment order created", "user_id", userID, "transaction_id", txn.ID, "order_id", order.ID, "plan", plan.ID)

	return &OrderResult{Order: *order, KeyID: s.gateway.KeyID()}, nil
}

// VerifyPayment credits the caller for a paid order. Each order credits at most once.
func (s *Service) VerifyPayment(ctx context.Context, userID uuid.UUID, orderID, paymentID, signature string) (*Settlement, error) {
	if userID == uuid.Nil || orderID == "" {
		return nil, ErrMissingDetails
	}

	if paymentID != "" || signature != "" {
		if !VerifySignature(s.keySecret, orderID, paymentID, signature) {
			return nil, ErrInvalidSignature
		}
	}

	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gateway order: %w", err)
	}
	if order.Status != OrderStatusPaid {
		return nil, ErrPaymentFailed
	}

	txnID, err := uuid.Parse(order.Receipt)
	if err != nil {
		return nil, ErrTransactionNotFound
	}

	txn, err := s.store.GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	// someone else's order must not credit the caller
	if txn.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	if txn.Payment {
		return nil, ErrPaymentProcessed
	}

	balance, err := s.store.Settle(ctx, txn.ID)
	if err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			return nil, ErrPaymentProcessed
		}
		return nil, err
	}

	s.logger.Info("payment settled", "user_id", userID, "transaction_id", txn.ID, "credits", txn.Credits)

	return &Settlement{Credits: txn.Credits, Balance: balance}, nil
}
