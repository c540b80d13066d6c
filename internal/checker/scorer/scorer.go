// Package scorer implements the rule-based password strength heuristic. It is
// a fixed scoring table, not an entropy model: the exact rules are part of the
// product contract and must stay stable across releases.
package scorer

import (
	"unicode"
	"unicode/utf8"

	"passcheck/internal/checker/models"
)

const maxScore = 100

// uniquenessRatio is the fraction of distinct characters required for the
// complexity bonus.
const uniquenessRatio = 0.7

// Recommendation wording is part of the client contract.
const (
	recommendLength    = "Use at least 8 characters (12+ recommended)"
	recommendUppercase = "Add uppercase letters"
	recommendLowercase = "Add lowercase letters"
	recommendDigits    = "Add numbers"
	recommendSpecial   = "Add special characters (!@#$%^&*)"
)

// Evaluate scores a password. Pure and deterministic: same input, same
// output, no external calls. There is no failure mode; an empty password
// simply scores zero.
func Evaluate(password string) models.Result {
	score := 0
	recommendations := []string{}

	length := utf8.RuneCountInString(password)
	switch {
	case length >= 12:
		score += 25
	case length >= 8:
		score += 15
	default:
		recommendations = append(recommendations, recommendLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	distinct := make(map[rune]struct{}, length)
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSpecial = true
		}
		distinct[r] = struct{}{}
	}

	if hasUpper {
		score += 15
	} else {
		recommendations = append(recommendations, recommendUppercase)
	}

	if hasLower {
		score += 15
	} else {
		recommendations = append(recommendations, recommendLowercase)
	}

	if hasDigit {
		score += 15
	} else {
		recommendations = append(recommendations, recommendDigits)
	}

	if hasSpecial {
		score += 20
	} else {
		recommendations = append(recommendations, recommendSpecial)
	}

	// Complexity bonus. The length guard keeps the empty password from
	// vacuously qualifying.
	if length > 0 && float64(len(distinct)) >= uniquenessRatio*float64(length) {
		score += 10
	}

	if score > maxScore {
		score = maxScore
	}

	return models.Result{
		Score:           score,
		Level:           models.LevelFor(score),
		Recommendations: recommendations,
		IsValid:         score >= 40,
	}
}
