package service

import (
	"fmt"
	"net/http"
)

// Error is a service-level failure carrying the HTTP status it should be
// reported with. Handlers translate it into the JSON error envelope;
// anything that is not an *Error becomes a 500.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrValidation reports malformed input (400).
func ErrValidation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// ErrUnauthorized reports a missing, invalid or expired credential (401).
func ErrUnauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// ErrNotFound reports a missing user or challenge (404).
func ErrNotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// ErrCodeMismatch reports a wrong OTP code, carrying the remaining-attempt
// count in the message when the budget is not yet exhausted (401).
func ErrCodeMismatch(remaining int) *Error {
	if remaining > 0 {
		return ErrUnauthorized(fmt.Sprintf("验证码错误，还可以尝试%d次", remaining))
	}
	return ErrUnauthorized("验证码已失效，请重新获取")
}
