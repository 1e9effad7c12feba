package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for every terminal request outcome. Services return these
// (optionally wrapped with %w); controllers map them to HTTP codes with ToStatus.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Signed token verification
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenKindMismatch = errors.New("token kind mismatch")

	// Renewal secret rotation
	ErrRenewalInvalid = errors.New("renewal secret invalid")
	ErrRenewalExpired = errors.New("renewal secret expired")
	ErrRenewalRevoked = errors.New("renewal secret revoked")

	// Bots and widgets
	ErrOwnershipViolation = errors.New("bot not owned by caller")
	ErrBotNotFound        = errors.New("bot not found")
	ErrBotInactive        = errors.New("bot inactive")

	// Chat sessions
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionExpired          = errors.New("session expired")
	ErrSessionCapacityExceeded = errors.New("session capacity exceeded")

	// Infrastructure. The only retryable member of the taxonomy.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ToStatus maps a taxonomy error to an HTTP status code. Unknown errors are
// treated as internal failures.
func ToStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenKindMismatch),
		errors.Is(err, ErrRenewalInvalid),
		errors.Is(err, ErrRenewalExpired),
		errors.Is(err, ErrRenewalRevoked):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrOwnershipViolation):
		return fiber.StatusForbidden
	case errors.Is(err, ErrBotNotFound), errors.Is(err, ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrBotInactive):
		return fiber.StatusConflict
	case errors.Is(err, ErrSessionExpired):
		return fiber.StatusGone
	case errors.Is(err, ErrSessionCapacityExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Message returns the client-facing message for a taxonomy error. Ownership
// failures and missing bots share one body so callers cannot probe for
// existence of bots they do not own.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrOwnershipViolation), errors.Is(err, ErrBotNotFound):
		return "bot not found or not accessible"
	case errors.Is(err, ErrStoreUnavailable):
		return "service temporarily unavailable, retry later"
	default:
		return err.Error()
	}
}
