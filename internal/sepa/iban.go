package sepa

import (
	"errors"
	"strings"
)

var ErrInvalidIBAN = errors.New("sepa: invalid iban")

// ValidateIBAN checks structure and the ISO 13616 mod-97 checksum. Input is
// normalised (spaces stripped, upper-cased) before checking; pass the result
// of NormalizeIBAN into documents.
func ValidateIBAN(iban string) error {
	iban = NormalizeIBAN(iban)
	if len(iban) < 15 || len(iban) > 34 {
		return ErrInvalidIBAN
	}
	for i, r := range iban {
		switch {
		case r >= 'A' && r <= 'Z':
			if i == 2 || i == 3 {
				return ErrInvalidIBAN
			}
		case r >= '0' && r <= '9':
			if i == 0 || i == 1 {
				return ErrInvalidIBAN
			}
		default:
			return ErrInvalidIBAN
		}
	}
	if mod97(iban[4:]+iban[:4]) != 1 {
		return ErrInvalidIBAN
	}
	return nil
}

// NormalizeIBAN strips whitespace and upper-cases.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// mod97 computes the remainder of the rearranged IBAN interpreted as a big
// decimal number, digit by digit so no big-integer arithmetic is needed.
func mod97(s string) int {
	rem := 0
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			v := int(r-'A') + 10
			rem = (rem*100 + v) % 97
		} else {
			rem = (rem*10 + int(r-'0')) % 97
		}
	}
	return rem
}
