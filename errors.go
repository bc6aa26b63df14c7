package members

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeEmailTaken            = "EMAIL_TAKEN"
	TextCodeInvalidToken          = "INVALID_OR_EXPIRED_TOKEN"
	TextCodeNoPendingVerification = "NO_PENDING_VERIFICATION"
	TextCodeCodeMismatch          = "PHONE_CODE_MISMATCH"
	TextCodeInvalidDateRange      = "INVALID_DATE_RANGE"
	TextCodeAuthenticationFailed  = "AUTHENTICATION_FAILED"
	TextCodeAlreadyJoined         = "ALREADY_JOINED"
)

// ErrEmailTaken is returned when a register, invite, or email change races
// another account for the same address. The persistence layer's unique
// constraint is the final arbiter; constraint violations convert into this.
var ErrEmailTaken = goerrors.New("email address is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrInvalidOrExpiredToken is the single failure for tampered, wrong-purpose,
// and expired tokens. Callers never learn which check tripped.
var ErrInvalidOrExpiredToken = goerrors.New("link is invalid or has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrNoPendingVerification is returned when a phone code is submitted but no
// pending verification record exists for the account.
var ErrNoPendingVerification = goerrors.New("no pending phone verification", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNoPendingVerification).
	WithCode(goerrors.CodeNotFound)

// ErrCodeMismatch is returned when the submitted phone code does not match.
// The pending record is consumed either way; the member must resubmit the
// primary info form to get a fresh code.
var ErrCodeMismatch = goerrors.New("verification code does not match", goerrors.CategoryValidation).
	WithTextCode(TextCodeCodeMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidDateRange is returned when a savings window has a start date on
// or after its end date, or when a projection spans zero weeks.
var ErrInvalidDateRange = goerrors.New("the end date must be after the start date", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidDateRange).
	WithCode(goerrors.CodeBadRequest)

// ErrAuthenticationFailed is returned for any credential failure, including
// unknown emails and accounts that have never set a password.
var ErrAuthenticationFailed = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrAlreadyJoined is returned when an invited member who already set a
// password follows the invite link again.
var ErrAlreadyJoined = goerrors.New("this invite has already been used", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyJoined).
	WithCode(goerrors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput)

// IsUniqueViolationError reports whether err is a unique constraint failure
// from the underlying driver. Covers sqlite and postgres message shapes.
func IsUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsEmailTaken reports whether err carries the EMAIL_TAKEN code.
func IsEmailTaken(err error) bool { return hasTextCode(err, TextCodeEmailTaken) }

// IsInvalidToken reports whether err carries the INVALID_OR_EXPIRED_TOKEN code.
func IsInvalidToken(err error) bool { return hasTextCode(err, TextCodeInvalidToken) }

// IsCodeMismatch reports whether err carries the PHONE_CODE_MISMATCH code.
func IsCodeMismatch(err error) bool { return hasTextCode(err, TextCodeCodeMismatch) }

// IsInvalidDateRange reports whether err carries the INVALID_DATE_RANGE code.
func IsInvalidDateRange(err error) bool { return hasTextCode(err, TextCodeInvalidDateRange) }
