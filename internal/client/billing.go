package client

import (
	"context"
	"net/http"
)

// Plan is a purchasable credit bundle
type Plan struct {
	ID          string `json:"id"`
	Description string `json:"desc"`
	Credits     int64  `json:"credits"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
}

// Order is a gateway order waiting for checkout
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Checkout is what a payment page needs to collect the money
type Checkout struct {
	Order Order  `json:"order"`
	KeyID string `json:"key"`
}

// Plans lists the credit plans; no session is needed
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var resp struct {
		Plans []Plan `json:"plans"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/plans", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

// CreateOrder opens a payment order for planID
func (c *Client) CreateOrder(ctx context.Context, planID string) (*Checkout, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	var resp Checkout
	if err := c.do(ctx, http.MethodPost, "/api/user/pay-razor", map[string]string{"planId": planID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment settles a paid order and returns the new balance.
// paymentID and signature may be empty when only the order id is known.
func (c *Client) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (int64, error) {
	if err := c.requireToken(); err != nil {
		return 0, err
	}

	body := map[string]string{"razorpay_order_id": orderID}
	if paymentID != "" {
		body["razorpay_payment_id"] = paymentID
	}
	if signature != "" {
		body["razorpay_signature"] = signature
	}

	var resp struct {
		Credits int64 `json:"credits"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/user/verify-razor", body, &resp); err != nil {
		return 0, err
	}

	c.setCredits(resp.Credits)
	return resp.Credits, nil
}
