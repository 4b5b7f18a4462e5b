// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizeE164 formats a phone number to E.164 using the given default
// region. If parsing fails, it returns the trimmed input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// WhatsAppLink builds a wa.me deep link for the given phone number with a
// pre-filled message. Returns an empty string when the number cannot be
// normalized to a valid E.164 number.
func WhatsAppLink(rawPhone, region, message string) string {
	number, err := phonenumbers.Parse(strings.TrimSpace(rawPhone), region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return ""
	}

	e164 := phonenumbers.Format(number, phonenumbers.E164)
	link := "https://wa.me/" + strings.TrimPrefix(e164, "+")
	if strings.TrimSpace(message) != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}
