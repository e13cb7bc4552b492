package notification

import (
	"strings"

	"caseguard/models"
)

// NormalizePhone converts a phone number to international form for the SMS
// gateway. Accepted shapes, after stripping non-digits:
//
//	0XXXXXXXXX  (10 digits, local with leading 0)  -> cc + last 9 digits
//	XXXXXXXXX   (9 digits, bare local)             -> cc + digits
//	ccXXXXXXXXX (12 digits, already prefixed)      -> unchanged
//
// Anything else fails with a ValidationError for that recipient only.
func NormalizePhone(number, countryCode string) (string, error) {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()

	switch {
	case len(phone) == 10 && strings.HasPrefix(phone, "0"):
		return countryCode + phone[1:], nil
	case len(phone) == 9:
		return countryCode + phone, nil
	case len(phone) == 12 && strings.HasPrefix(phone, countryCode):
		return phone, nil
	}
	return "", &models.ValidationError{Field: "phone_number", Message: "unrecognized phone number format: " + number}
}
