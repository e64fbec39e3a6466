// Package security holds the login security core: input sanitization
// against query-operator injection, the per-address fixed-window rate
// limiter, and the per-account lockout policy.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// OperatorPrefix marks a document key as a query operator rather than a
// literal field name in the backing store's query language.
const OperatorPrefix = "$"

const (
	MinUsernameLen = 3
	MaxUsernameLen = 50
	MinPasswordLen = 6
	MaxPasswordLen = 100
)

// Rejection reasons returned by ValidateLoginInput.
const (
	ReasonInvalidFormat   = "Invalid request format"
	ReasonInvalidUsername = "Please provide a valid username"
	ReasonInvalidPassword = "Please provide a valid password"
	ReasonUsernameLength  = "Username must be between 3 and 50 characters"
	ReasonPasswordLength  = "Password must be between 6 and 100 characters"
	ReasonUsernameCharset = "Username may only contain letters, digits and underscores"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// LoginInput is the outcome of validating a raw login payload. When OK is
// false only Reason is meaningful.
type LoginInput struct {
	OK       bool
	Username string
	Password string
	Reason   string
}

func reject(reason string) LoginInput {
	return LoginInput{Reason: reason}
}

// ValidateLoginInput checks a decoded JSON login body. The body must be an
// object free of operator keys at any depth, with string username and
// password fields inside the allowed bounds. The username is returned
// trimmed; the password is returned exactly as submitted.
func ValidateLoginInput(raw any) LoginInput {
	body, ok := raw.(map[string]any)
	if !ok || body == nil {
		return reject(ReasonInvalidFormat)
	}
	if ContainsOperator(body) {
		return reject(ReasonInvalidFormat)
	}

	username, ok := nonBlankString(body["username"])
	if !ok {
		return reject(ReasonInvalidUsername)
	}
	password, ok := nonBlankString(body["password"])
	if !ok {
		return reject(ReasonInvalidPassword)
	}

	if n := utf8.RuneCountInString(username); n < MinUsernameLen || n > MaxUsernameLen {
		return reject(ReasonUsernameLength)
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLen || n > MaxPasswordLen {
		return reject(ReasonPasswordLength)
	}
	if !usernameRegex.MatchString(username) {
		return reject(ReasonUsernameCharset)
	}

	return LoginInput{
		OK:       true,
		Username: strings.TrimSpace(username),
		Password: password,
	}
}

func nonBlankString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// ContainsOperator reports whether v, or any object nested inside it
// (including objects inside arrays), has a key starting with OperatorPrefix.
// Strings are literals and never count, even when they contain "$".
func ContainsOperator(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if strings.HasPrefix(k, OperatorPrefix) {
				return true
			}
			if ContainsOperator(child) {
				return true
			}
		}
	case []any:
		for _, child := range t {
			if ContainsOperator(child) {
				return true
			}
		}
	}
	return false
}

// StripOperators returns a copy of v with every operator key removed at any
// depth, and every string passed through SanitizeString.
func StripOperators(v any) any {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = StripOperators(child)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if strings.HasPrefix(k, OperatorPrefix) {
				continue
			}
			out[k] = StripOperators(child)
		}
		return out
	default:
		return v
	}
}

// SanitizeString trims s and removes NUL bytes and control characters other
// than tab, newline and carriage return.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}
