package httputil

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

// GenericFailureMessage is what clients see when the cause of a failure is internal.
const GenericFailureMessage = "Something went wrong"

// FailureResponse is the soft-failure envelope shared by every endpoint
type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// MessageResponse is a success body that only carries a message
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondOK sends a 200 JSON response
func RespondOK(w http.ResponseWriter, data any) {
	RespondJSON(w, data, http.StatusOK)
}

// RespondMessage sends a success envelope with only a message
func RespondMessage(w http.ResponseWriter, message string) {
	RespondOK(w, MessageResponse{Success: true, Message: message})
}

// RespondFailure sends the soft-failure envelope. Failures are reported with
// HTTP 200 and told apart by message and code.
func RespondFailure(w http.ResponseWriter, message, code string) {
	RespondOK(w, FailureResponse{Success: false, Message: message, Code: code})
}

// DecodeJSON decodes a request body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}
