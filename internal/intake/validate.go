package intake

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizePhone strips formatting and adds the Colombian country code to
// ten-digit mobile numbers.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	if len(cleaned) == 10 && strings.HasPrefix(cleaned, "3") {
		return "+57" + cleaned
	}
	if len(cleaned) == 12 && strings.HasPrefix(cleaned, "57") {
		return "+" + cleaned
	}
	if strings.HasPrefix(phone, "+") {
		return "+" + cleaned
	}
	return cleaned
}

func IsValidPhone(phone string) bool {
	digits := strings.TrimPrefix(NormalizePhone(phone), "+")
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	// all-same-digit numbers are never real
	return strings.Trim(digits, digits[:1]) != ""
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at:], ".")
}

func IsValidName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= 2
}
