package image

import (
	"errors"
	"net/http"

	"github.com/imagify/imagify-api/internal/auth"
	"github.com/imagify/imagify-api/internal/httputil"
	"github.com/imagify/imagify-api/internal/logging"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GenerateRequest carries the text prompt
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is a generated image with the remaining balance
type GenerateResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	CreditBalance int64  `json:"creditBalance"`
	ResultImage   string `json:"resultImage"`
}

// NoCreditsResponse tells the client to route the user to the purchase flow
type NoCreditsResponse struct {
	httputil.FailureResponse
	CreditBalance int64 `json:"creditBalance"`
}

// Generate handles text-to-image requests
// @Summary      Generate image
// @Description  Spend one credit to turn a prompt into an image. resultImage is a data URL or a presigned link. Failures answer 200 with success=false and message one of: No Credit Balance.
// @Tags         image
// @Accept       json
// @Produce      json
// @Param        token header string true "Session token"
// @Param        request body GenerateRequest true "Prompt"
// @Success      200 {object} GenerateResponse
// @Router       /api/image/generate-image [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondFailure(w, auth.NotAuthorizedMessage, httputil.CodeNotAuthorized)
		return
	}

	var req GenerateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid generate-image request body", "error", err.Error())
		httputil.RespondFailure(w, ErrMissingDetails.Error(), httputil.CodeMissingDetails)
		return
	}

	result, err := h.service.Generate(r.Context(), userID, req.Prompt)
	if err != nil {
		var noCredits *NoCreditsError
		switch {
		case errors.As(err, &noCredits):
			logger.Info("generation refused: no credits", "user_id", userID)
			httputil.RespondOK(w, NoCreditsResponse{
				FailureResponse: httputil.FailureResponse{Message: noCredits.Error(), Code: httputil.CodeNoCredits},
				CreditBalance:   noCredits.Balance,
			})
		case errors.Is(err, ErrMissingDetails):
			httputil.RespondFailure(w, err.Error(), httputil.CodeMissingDetails)
		case errors.Is(err, ErrUserNotFound):
			httputil.RespondFailure(w, err.Error(), httputil.CodeUserNotFound)
		case errors.Is(err, ErrGenerationFailed):
			logger.Error("image generation failed", "user_id", userID, "error", err.Error())
			httputil.RespondFailure(w, ErrGenerationFailed.Error(), httputil.CodeGenerationError)
		default:
			logger.Error("image generation failed: internal error", "user_id", userID, "error", err.Error())
			httputil.RespondFailure(w, httputil.GenericFailureMessage, httputil.CodeInternalError)
		}
		return
	}

	logger.Info("image generated", "user_id", userID, "credit_balance", result.CreditBalance)
	httputil.RespondOK(w, GenerateResponse{
		Success:       true,
		Message:       "Image Generated",
		CreditBalance: result.CreditBalance,
		ResultImage:   result.Image,
	})
}
