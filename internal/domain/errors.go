package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindTooLarge       ErrKind = "too_large"      // 413
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code
// - Message: safe summary for clients
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging only
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the domain code of err, or "" for non-domain errors.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrPasswordMismatch() *Error {
	return New(KindValidation, "password_mismatch", "passwords do not match")
}

func ErrEmailDomainNotAllowed(domainName string) *Error {
	return WithMeta(New(KindValidation, "email_domain_not_allowed", "email domain is not allowed"), map[string]string{
		"domain": domainName,
	})
}

// Registration reports duplicates as a plain 400 so the client flow matches
// every other registration rejection.
func ErrEmailAlreadyExists() *Error {
	return New(KindValidation, "email_already_exists", "email already registered")
}

func ErrInvalidRole(role string) *Error {
	return WithMeta(
		New(KindValidation, "invalid_role", "invalid role"),
		map[string]string{"role": role},
	)
}

func ErrInvalidFileType(filename string) *Error {
	return WithMeta(New(KindValidation, "invalid_file_type", "only PDF files are allowed"), map[string]string{
		"filename": filename,
	})
}

// ----------------------
// Auth errors (401)
// ----------------------

// IMPORTANT: use this for login failures to avoid user enumeration.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", "invalid email or password")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "token is expired")
}

// Token verified but the user it names no longer exists.
func ErrUserVanished() *Error {
	return New(KindAuth, "user_vanished", "user no longer exists")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrForbidden() *Error {
	return New(KindForbidden, "forbidden", "forbidden")
}

func ErrInsufficientRole(required string) *Error {
	return WithMeta(New(KindForbidden, "insufficient_role", "insufficient role"), map[string]string{
		"required": required,
	})
}

func ErrEmailNotVerified() *Error {
	return New(KindForbidden, "email_not_verified", "please verify your email before signing in")
}

func ErrLastAdminProtected() *Error {
	return New(KindForbidden, "last_admin_protected", "cannot remove last admin")
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "user not found")
}

func ErrFAQNotFound() *Error {
	return New(KindNotFound, "faq_not_found", "FAQ not found")
}

// ----------------------
// Too large (413)
// ----------------------

func ErrUploadTooLarge(limitMB int64) *Error {
	return WithMeta(New(KindTooLarge, "upload_too_large", "upload exceeds size limit"), map[string]string{
		"limit_mb": fmt.Sprintf("%d", limitMB),
	})
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrMailUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "mail_unavailable", "could not send verification email", cause)
}

func ErrStorageUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "storage_unavailable", "file storage unavailable", cause)
}

func ErrLLMNotFound() *Error {
	return New(KindInfrastructure, "llm_not_found", "chat service endpoint not found")
}

func ErrLLMAuthFailed() *Error {
	return New(KindInfrastructure, "llm_auth_failed", "chat service rejected credentials")
}

func ErrLLMUpstream(status int) *Error {
	return WithMeta(New(KindInfrastructure, "llm_upstream_error", "chat service error"), map[string]string{
		"status": fmt.Sprintf("%d", status),
	})
}

func ErrFormsUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "forms_unavailable", "could not fetch forms", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
