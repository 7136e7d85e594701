package httputil

// Machine-readable failure codes carried next to the human message.
const (
	CodeInternalError      = "INTERNAL_ERROR"
	CodeMissingDetails     = "MISSING_DETAILS"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	CodeNotAuthorized = "NOT_AUTHORIZED"
	CodeTokenExpired  = "TOKEN_EXPIRED"

	CodeUserExists         = "USER_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeOAuthFailed        = "OAUTH_FAILED"

	CodeOTPNotFound = "OTP_NOT_FOUND"
	CodeOTPExpired  = "OTP_EXPIRED"
	CodeOTPInvalid  = "OTP_INVALID"

	CodePlanNotFound       = "PLAN_NOT_FOUND"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodePaymentProcessed   = "PAYMENT_ALREADY_PROCESSED"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeTransactionMissing = "TRANSACTION_NOT_FOUND"

	CodeNoCredits       = "NO_CREDIT_BALANCE"
	CodeGenerationError = "GENERATION_FAILED"
)
