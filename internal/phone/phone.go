// internal/phone/phone.go
package phone

import "strings"

// Result is the outcome of cleaning a raw phone string.
type Result struct {
	Normalized *string // nil unless Valid
	Raw        string  // trimmed original formatting
	Valid      bool
}

// Clean processes a raw phone number:
//  1. a number containing an asterisk is obfuscated and never valid
//  2. parentheses, plus signs and whitespace are stripped
//  3. the result is valid iff it is non-empty and all digits
//
// This is the single source of truth for phone validity; import and
// recipient selection must both go through it.
func Clean(raw string) Result {
	trimmed := strings.TrimSpace(raw)

	obfuscated := strings.Contains(trimmed, "*")

	var b strings.Builder
	for _, r := range trimmed {
		switch {
		case r == '(' || r == ')' || r == '+':
			continue
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			continue
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	valid := !obfuscated && cleaned != "" && allDigits(cleaned)
	if !valid {
		return Result{Raw: trimmed, Valid: false}
	}
	return Result{Normalized: &cleaned, Raw: trimmed, Valid: true}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Destination converts a normalized number into the provider-addressable
// form. Numbers already carrying the prefix are passed through.
func Destination(normalized string) string {
	if strings.HasPrefix(normalized, "whatsapp:") {
		return normalized
	}
	return "whatsapp:" + normalized
}
