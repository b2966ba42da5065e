package helpers

import (
	"strings"
	"unicode"
)

// StrengthResult is the outcome of the password policy evaluation.
type StrengthResult struct {
	Valid       bool     `json:"valid"`
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

const maxSuggestions = 3

// weakSubstrings disqualify a password outright regardless of its additive
// score. Matched case-insensitively.
var weakSubstrings = []string{
	"password", "123456", "qwerty", "abc123", "letmein", "admin", "welcome", "iloveyou",
}

// EvaluatePassword scores a password heuristically: +1 each for length >= 8,
// uppercase, lowercase, digit, and symbol; -2 when a common weak substring is
// present. The score is clamped to [0,5]; a password is valid when it scores
// at least 3 and contains no weak substring.
func EvaluatePassword(pw string) StrengthResult {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	score := 0
	var suggestions []string

	if len(pw) >= 8 {
		score++
	} else {
		suggestions = append(suggestions, "use at least 8 characters")
	}
	if hasUpper {
		score++
	} else {
		suggestions = append(suggestions, "add an uppercase letter")
	}
	if hasLower {
		score++
	} else {
		suggestions = append(suggestions, "add a lowercase letter")
	}
	if hasDigit {
		score++
	} else {
		suggestions = append(suggestions, "add a number")
	}
	if hasSymbol {
		score++
		suggestions = append(suggestions, "good: contains special characters")
	} else {
		suggestions = append(suggestions, "add a special character")
	}

	weak := false
	lower := strings.ToLower(pw)
	for _, s := range weakSubstrings {
		if strings.Contains(lower, s) {
			weak = true
			suggestions = append(suggestions, "avoid common words and sequences")
			break
		}
	}
	if weak {
		score -= 2
	}
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return StrengthResult{
		Valid:       score >= 3 && !weak,
		Score:       score,
		Suggestions: suggestions,
	}
}
