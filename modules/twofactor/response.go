package twofactor

import (
	"encoding/json"
	"errors"
	"net/http"
)

// response is the JSON envelope written by every endpoint.
type response struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpError describes how a sentinel error is presented to the client.
type httpError struct {
	status  int
	code    string
	message string
}

var httpErrors = []struct {
	err error
	httpError
}{
	{ErrInvalidOTP, httpError{http.StatusUnauthorized, "invalid_otp", "Invalid OTP!"}},
	{ErrSetupOTPIncorrect, httpError{http.StatusUnprocessableEntity, "invalid_otp", "Submitted OTP was not correct."}},
	{ErrSetupNotStarted, httpError{http.StatusConflict, "setup_not_started", "Second factor setup has not been started."}},
	{ErrSetupNotAllowed, httpError{http.StatusForbidden, "setup_not_allowed", "Pass the second factor before adding another one."}},
	{ErrTooManyAttempts, httpError{http.StatusTooManyRequests, "too_many_attempts", "Too many attempts. Try again later."}},
	{ErrAccountRequired, httpError{http.StatusUnauthorized, "unauthorized", http.StatusText(http.StatusUnauthorized)}},
}

// toHTTPError maps err to a client-facing error. Anything unknown becomes a
// 500 without leaking the underlying message.
func toHTTPError(err error) httpError {
	for _, e := range httpErrors {
		if errors.Is(err, e.err) {
			return e.httpError
		}
	}
	return httpError{http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError)}
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, response{Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	writeJSON(w, he.status, response{Error: &errorDetail{Code: he.code, Message: he.message}})
}
