package billing

import (
	"errors"
	"net/http"

	"github.com/imagify/imagify-api/internal/auth"
	"github.com/imagify/imagify-api/internal/httputil"
	"github.com/imagify/imagify-api/internal/logging"
)

// Handler exposes the purchase endpoints
type Handler struct {
	service  *Service
	currency string
}

func NewHandler(service *Service, currency string) *Handler {
	return &Handler{service: service, currency: currency}
}

// CreateOrderRequest selects a plan to buy
type CreateOrderRequest struct {
	PlanID string `json:"planId"`
}

// CreateOrderResponse carries the gateway order and the public key for checkout
type CreateOrderResponse struct {
	Success bool   `json:"success"`
	Order   Order  `json:"order"`
	KeyID   string `json:"key"`
}

// VerifyPaymentRequest is posted by the checkout success callback
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id,omitempty"`
	Signature string `json:"razorpay_signature,omitempty"`
}

// VerifyPaymentResponse confirms the credit
type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Credits int64  `json:"credits"`
}

// PlanView is a plan with its price currency
type PlanView struct {
	Plan
	Currency string `json:"currency"`
}

// PlansResponse lists what can be bought
type PlansResponse struct {
	Success bool       `json:"success"`
	Plans   []PlanView `json:"plans"`
}

// Plans lists the credit plans
// @Summary      Credit plans
// @Tags         billing
// @Produce      json
// @Success      200 {object} PlansResponse
// @Router       /api/user/plans [get]
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	catalog := Plans()
	views := make([]PlanView, 0, len(catalog))
	for _, p := range catalog {
		views = append(views, PlanView{Plan: p, Currency: h.currency})
	}
	httputil.RespondOK(w, PlansResponse{Success: true, Plans: views})
}

// CreateOrder opens a payment order for a plan
// @Summary      Create payment order
// @Description  Failures answer 200 with success=false and message one of: Missing Details, Plan not found.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        token header string true "Session token"
// @Param        request body CreateOrderRequest true "Plan"
// @Success      200 {object} CreateOrderResponse
// @Router       /api/user/pay-razor [post]
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondFailure(w, auth.NotAuthorizedMessage, httputil.CodeNotAuthorized)
		return
	}

	var req CreateOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid pay-razor request body", "error", err.Error())
		httputil.RespondFailure(w, ErrMissingDetails.Error(), httputil.CodeMissingDetails)
		return
	}

	result, err := h.service.CreateOrder(r.Context(), userID, req.PlanID)
	if err != nil {
		respondError(w, logger, "create order", err)
		return
	}

	httputil.RespondOK(w, CreateOrderResponse{Success: true, Order: result.Order, KeyID: result.KeyID})
}

// VerifyPayment settles a paid order
// @Summary      Verify payment
// @Description  Credit the caller once the gateway reports the order as paid. Repeated calls for one order credit once. Failures answer 200 with success=false and message one of: Payment Failed, Payment already processed.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        token header string true "Session token"
// @Param        request body VerifyPaymentRequest true "Checkout result"
// @Success      200 {object} VerifyPaymentResponse
// @Router       /api/user/verify-razor [post]
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondFailure(w, auth.NotAuthorizedMessage, httputil.CodeNotAuthorized)
		return
	}

	var req VerifyPaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid verify-razor request body", "error", err.Error())
		httputil.RespondFailure(w, ErrMissingDetails.Error(), httputil.CodeMissingDetails)
		return
	}

	settlement, err := h.service.VerifyPayment(r.Context(), userID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(w, logger, "verify payment", err)
		return
	}

	httputil.RespondOK(w, VerifyPaymentResponse{Success: true, Message: "Credits Added", Credits: settlement.Balance})
}

func respondError(w http.ResponseWriter, logger *logging.Logger, action string, err error) {
	var code string
	switch {
	case errors.Is(err, ErrMissingDetails):
		code = httputil.CodeMissingDetails
	case errors.Is(err, ErrPlanNotFound):
		code = httputil.CodePlanNotFound
	case errors.Is(err, ErrPaymentFailed):
		code = httputil.CodePaymentFailed
	case errors.Is(err, ErrPaymentProcessed):
		code = httputil.CodePaymentProcessed
	case errors.Is(err, ErrInvalidSignature):
		code = httputil.CodeInvalidSignature
	case errors.Is(err, ErrTransactionNotFound):
		code = httputil.CodeTransactionMissing
	default:
		logger.Error(action+" failed: internal error", "error", err.Error())
		httputil.RespondFailure(w, httputil.GenericFailureMessage, httputil.CodeInternalError)
		return
	}

	logger.Warn(action+" failed", "reason", err.Error())
	httputil.RespondFailure(w, err.Error(), code)
}
