package members

import (
	"crypto/rand"
	"math/big"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// phoneCodeSpan covers [10000, 99999]: every code is exactly five digits.
const (
	phoneCodeMin  = 10000
	phoneCodeSpan = 90000
)

// GeneratePhoneCode returns a uniformly random five digit verification code.
// The code is kept as a string end to end; comparisons are string equality.
func GeneratePhoneCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(phoneCodeSpan))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
	}
	return strconv.FormatInt(n.Int64()+phoneCodeMin, 10), nil
}

// NormalizePhone parses and validates raw against the given default region
// and returns the E.164 form. Region defaults to US when empty.
func NormalizePhone(raw, region string) (string, error) {
	if region == "" {
		region = "US"
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "could not parse phone number").
			WithMetadata(map[string]any{"phone": raw})
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("phone number is not valid", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"phone": raw})
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
