package account

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeIncomplete             = "INCOMPLETE_INFORMATION"
	TextCodeAccountLength          = "ACCOUNT_LENGTH"
	TextCodePasswordTooShort       = "PASSWORD_TOO_SHORT"
	TextCodeAccountNotAlphanumeric = "ACCOUNT_NOT_ALPHANUMERIC"
	TextCodeInvalidEmail           = "INVALID_EMAIL"
	TextCodePasswordMismatch       = "PASSWORD_MISMATCH"
	TextCodeAccountRequired        = "ACCOUNT_REQUIRED"
	TextCodePasswordRequired       = "PASSWORD_REQUIRED"

	TextCodeAccountExists = "ACCOUNT_EXISTS"
	TextCodeEmailExists   = "EMAIL_EXISTS"

	TextCodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	TextCodeIncorrectPassword    = "INCORRECT_PASSWORD"
	TextCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	TextCodeInvalidAccount       = "INVALID_ACCOUNT"
	TextCodeActivationMismatch   = "ACTIVATION_MISMATCH"

	TextCodeNotActivated     = "ACCOUNT_NOT_ACTIVATED"
	TextCodeAlreadyActivated = "ALREADY_ACTIVATED"

	TextCodeTokenInvalid = "TOKEN_INVALID"
	TextCodeTokenExpired = "TOKEN_EXPIRED"

	TextCodeUserNotFound      = "USER_NOT_FOUND"
	TextCodeInvalidTransition = "INVALID_ACCOUNT_STATE_TRANSITION"
	TextCodeInternal          = "INTERNAL_ERROR"
)

// User facing messages
const (
	MsgIncomplete             = "incomplete information"
	MsgAccountLength          = "account too short"
	MsgPasswordTooShort       = "password too short"
	MsgAccountNotAlphanumeric = "account must be alphanumeric"
	MsgInvalidEmail           = "invalid email"
	MsgPasswordMismatch       = "passwords do not match"
	MsgAccountRequired        = "account cannot be empty"
	MsgPasswordRequired       = "password cannot be empty"
	MsgAccountExists          = "account exists"
	MsgEmailExists            = "email already registered"
	MsgAccountNotFound        = "account does not exist"
	MsgIncorrectPassword      = "incorrect password"
	MsgAuthenticationFailed   = "authentication failed"
	MsgInvalidAccount         = "invalid account"
	MsgActivationMismatch     = "activation failed, bad information"
	MsgAlreadyActivated       = "already activated"
	MsgActivated              = "activated"
	MsgLoggedIn               = "login successful"
	MsgSignedOut              = "signed out"
	MsgInternal               = "internal server error"
)

// ErrUserNotFound is returned by Users when no record matches
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenInvalid covers malformed tokens and signature mismatches
var ErrTokenInvalid = goerrors.New("token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when the token is past its expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidTransition is returned when a requested state change is not allowed
var ErrInvalidTransition = goerrors.New("invalid account state transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrValidationFailed returns a client input error. Signup and signin
// answer these with 403.
func ErrValidationFailed(textCode, reason string) *goerrors.Error {
	return goerrors.New(reason, goerrors.CategoryValidation).
		WithTextCode(textCode).
		WithCode(http.StatusForbidden)
}

// ErrConflict returns a duplicate account or email error
func ErrConflict(textCode, reason string) *goerrors.Error {
	return goerrors.New(reason, goerrors.CategoryConflict).
		WithTextCode(textCode).
		WithCode(http.StatusForbidden)
}

// ErrAuthFailed returns a credentials, token or activation key error
func ErrAuthFailed(textCode, reason string) *goerrors.Error {
	return goerrors.New(reason, goerrors.CategoryAuth).
		WithTextCode(textCode).
		WithCode(http.StatusForbidden)
}

// ErrAlreadyActivated returns the idempotent activation outcome
func ErrAlreadyActivated() *goerrors.Error {
	return goerrors.New(MsgAlreadyActivated, goerrors.CategoryConflict).
		WithTextCode(TextCodeAlreadyActivated).
		WithCode(http.StatusOK)
}

// ErrInternal wraps persistence and infrastructure failures
func ErrInternal(cause error, message string) *goerrors.Error {
	return goerrors.Wrap(cause, goerrors.CategoryInternal, message).
		WithTextCode(TextCodeInternal).
		WithCode(http.StatusInternalServerError)
}

// NotActivatedError is returned when a pending account logs in. The
// activation link has already been resent to Email.
type NotActivatedError struct {
	Email string
	err   *goerrors.Error
}

// ErrNotActivated builds a NotActivatedError for email
func ErrNotActivated(email string) *NotActivatedError {
	msg := fmt.Sprintf("account not activated, link resent to %s", email)
	return &NotActivatedError{
		Email: email,
		err: goerrors.New(msg, goerrors.CategoryAuth).
			WithTextCode(TextCodeNotActivated).
			WithCode(http.StatusForbidden),
	}
}

func (e *NotActivatedError) Error() string { return e.err.Message }

func (e *NotActivatedError) Unwrap() error { return e.err }

// HasTextCode reports whether err carries the given text code
func HasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func hasCategory(err error, category any) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return any(richErr.Category) == category
}

func IsValidationFailed(err error) bool {
	return hasCategory(err, goerrors.CategoryValidation) && !HasTextCode(err, TextCodeInvalidTransition)
}

func IsConflict(err error) bool {
	return HasTextCode(err, TextCodeAccountExists) || HasTextCode(err, TextCodeEmailExists)
}

func IsAuthFailed(err error) bool {
	return hasCategory(err, goerrors.CategoryAuth) && !IsNotActivated(err)
}

func IsNotActivated(err error) bool {
	var nae *NotActivatedError
	return errors.As(err, &nae)
}

func IsAlreadyActivated(err error) bool {
	return HasTextCode(err, TextCodeAlreadyActivated)
}

func IsInternal(err error) bool {
	return hasCategory(err, goerrors.CategoryInternal)
}

// IsTokenExpired reports whether err is ErrTokenExpired
func IsTokenExpired(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}

// StatusCode maps err to the HTTP status used by the JSON endpoints.
// Anything that is not a domain error is treated as internal.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Code == 0 {
		return http.StatusInternalServerError
	}
	return richErr.Code
}

// PublicMessage returns the message safe to show to the caller. Internal
// causes are never exposed.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsInternal(err) {
		return MsgInternal
	}
	var nae *NotActivatedError
	if errors.As(err, &nae) {
		return nae.Error()
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}
	return MsgInternal
}
