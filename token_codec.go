package members

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Purpose is the intended use of a signed token. Verification checks it so a
// token minted for one flow can never be replayed against another.
type Purpose string

const (
	// PurposeConfirm gates email confirmation and join-from-invite.
	PurposeConfirm Purpose = "confirm"
	// PurposeReset gates password reset.
	PurposeReset Purpose = "reset"
	// PurposeChangeEmail gates applying a new email address.
	PurposeChangeEmail Purpose = "change_email"
)

// Default TTLs per purpose. Call sites pass them explicitly; there is no
// hidden global expiration.
const (
	ConfirmTokenTTL     = 7 * 24 * time.Hour
	ResetTokenTTL       = time.Hour
	ChangeEmailTokenTTL = time.Hour
)

// LifecycleClaims is the signed token envelope. The payload is signed, not
// encrypted: treat every field as visible to the token holder.
type LifecycleClaims struct {
	jwt.RegisteredClaims
	Purpose Purpose           `json:"prp"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// TokenClaims is the verified result handed back to callers.
type TokenClaims struct {
	AccountID uuid.UUID
	Extra     map[string]string
}

// TokenCodec mints and verifies purpose-bound lifecycle tokens as HS256 JWTs.
// The compact serialization is URL-safe and can travel as a path segment.
type TokenCodec struct {
	signingKey []byte
	issuer     string
	logger     Logger
}

// NewTokenCodec creates a new TokenCodec instance
func NewTokenCodec(signingKey []byte, issuer string, logger Logger) *TokenCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenCodec{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
	}
}

// WithLogger overrides the logger used for verification diagnostics.
func (tc *TokenCodec) WithLogger(logger Logger) *TokenCodec {
	if logger != nil {
		tc.logger = logger
	}
	return tc
}

// Issue creates a signed token binding purpose and account for ttl, with an
// optional extra payload (e.g. the candidate address for an email change).
func (tc *TokenCodec) Issue(purpose Purpose, accountID uuid.UUID, ttl time.Duration, extra map[string]string) (string, error) {
	if ttl <= 0 {
		return "", goerrors.New("token ttl must be positive", goerrors.CategoryBadInput)
	}

	now := time.Now()
	claims := &LifecycleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
		Extra:   extra,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign lifecycle token")
	}

	return signedString, nil
}

// Verify parses tokenString and checks signature, expiry, and purpose. Every
// failure collapses into ErrInvalidOrExpiredToken; callers treat tampered and
// expired links identically.
func (tc *TokenCodec) Verify(tokenString string, purpose Purpose) (TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}
	parserOptions = append(parserOptions, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := jwt.ParseWithClaims(tokenString, &LifecycleClaims{}, func(t *jwt.Token) (any, error) {
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		tc.logger.Debug("token verification failed: %v", err)
		return TokenClaims{}, ErrInvalidOrExpiredToken
	}

	claims, ok := token.Claims.(*LifecycleClaims)
	if !ok || !token.Valid {
		return TokenClaims{}, ErrInvalidOrExpiredToken
	}

	if claims.Purpose != purpose {
		return TokenClaims{}, ErrInvalidOrExpiredToken
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return TokenClaims{}, ErrInvalidOrExpiredToken
	}

	return TokenClaims{
		AccountID: accountID,
		Extra:     claims.Extra,
	}, nil
}
