// Package autherr defines the stable machine codes returned by the
// authentication service. Every expected failure on the auth path is an
// *Error with a Code the caller branches on; storage-layer details never
// leak past CodeInternal.
package autherr

import "errors"

// Code identifies an expected authentication failure.
type Code string

const (
	CodeInvalidEmail        Code = "INVALID_EMAIL"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeAccountInactive     Code = "ACCOUNT_INACTIVE"
	CodeAccountBlocked      Code = "ACCOUNT_BLOCKED"
	CodeCompanyInactive     Code = "COMPANY_INACTIVE"
	CodeSubscriptionExpired Code = "SUBSCRIPTION_EXPIRED"
	CodeInvalidToken        Code = "INVALID_TOKEN"
	CodeInvalidSession      Code = "INVALID_SESSION"
	CodeWrongPassword       Code = "WRONG_PASSWORD"
	CodeSamePassword        Code = "SAME_PASSWORD"
	CodeWeakPassword        Code = "WEAK_PASSWORD"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Error is an expected authentication failure with a stable machine code.
// WeakPassword errors additionally carry itemized, user-actionable feedback;
// credential failures deliberately carry a single generic message so account
// existence is never revealed.
type Error struct {
	Code     Code
	Message  string
	Feedback []string
}

func (e *Error) Error() string { return e.Message }

// New returns an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WeakPassword returns a CodeWeakPassword error carrying the policy feedback.
func WeakPassword(feedback []string) *Error {
	return &Error{
		Code:     CodeWeakPassword,
		Message:  "password does not meet security requirements",
		Feedback: feedback,
	}
}

// Internal wraps a storage or infrastructure failure as CodeInternal,
// hiding the underlying detail from the caller.
func Internal() *Error {
	return &Error{Code: CodeInternal, Message: "internal server error"}
}

// CodeOf returns the machine code of err, or CodeInternal if err is not an
// *Error (unexpected failures are never exposed with detail).
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// FeedbackOf returns the itemized feedback of err, if any.
func FeedbackOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Feedback
	}
	return nil
}
