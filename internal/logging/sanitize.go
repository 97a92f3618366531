// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package logging

import "strings"

// sensitiveKeys lists detail/field names whose values must never reach
// logs or the audit store.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"cookie":        true,
	"session_token": true,
	"private_key":   true,
	"credit_card":   true,
	"ssn":           true,
}

// IsSensitiveKey reports whether a field name refers to sensitive data.
// Matching is case-insensitive and also catches compound names such as
// "userPassword" or "jwt_token".
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// SanitizeValue redacts the value if the key refers to sensitive data.
func SanitizeValue(key, value string) string {
	if IsSensitiveKey(key) {
		return "[REDACTED]"
	}
	return truncateString(value, 500)
}

// SanitizeLogValue strips control characters from a string so attacker
// supplied input cannot forge log entries.
func SanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
