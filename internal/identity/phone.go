// Package identity maps inbound phone numbers to customer and location
// records on the field-service platform, creating minimal records when none
// exist.
package identity

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone means normalization could not produce a 10-digit US number.
var ErrInvalidPhone = errors.New("identity: phone did not normalize to 10 digits")

var phoneDigitsRe = regexp.MustCompile(`\d`)

// NormalizePhone strips formatting from a raw phone string and returns the
// 10-digit national number. An 11-digit number with a leading "1" has the
// country code dropped. Anything else is ErrInvalidPhone.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Join(phoneDigitsRe.FindAllString(raw, -1), "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
