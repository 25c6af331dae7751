package auth

import (
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at signup or reset
const MinPasswordLength = 8

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "11111111": {},
	"00000000": {}, "abc12345": {}, "letmein1": {}, "sunshine": {}, "football": {},
	"baseball": {}, "welcome1": {}, "admin123": {}, "princess": {}, "passw0rd": {},
}

// ValidatePassword returns the problems with a candidate password, if any.
// username and email are used to reject passwords that repeat them.
func ValidatePassword(password, username, email string) []string {
	var problems []string

	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}

	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		problems = append(problems, "This password is too common.")
	}

	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}

	for _, attr := range []string{username, localPart(email)} {
		attr = strings.ToLower(attr)
		if len(attr) >= 3 && (strings.Contains(lower, attr) || strings.Contains(attr, lower)) {
			problems = append(problems, "The password is too similar to your personal information.")
			break
		}
	}

	return problems
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
