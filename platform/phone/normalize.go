// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IN"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// NormalizeIndianMobile validates and normalizes an Indian mobile number to
// +91XXXXXXXXXX. Accepts bare 10-digit numbers starting 6-9, with or without
// a 91 / +91 prefix. Returns false when the input is not an Indian mobile.
func NormalizeIndianMobile(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return "", false
	}
	if number.GetCountryCode() != 91 || !phonenumbers.IsValidNumber(number) {
		return "", false
	}

	formatted := phonenumbers.Format(number, phonenumbers.E164)
	// Indian mobiles start 6-9; landlines are not deliverable over WhatsApp.
	national := strings.TrimPrefix(formatted, "+91")
	if len(national) != 10 || national[0] < '6' || national[0] > '9' {
		return "", false
	}
	return formatted, true
}
