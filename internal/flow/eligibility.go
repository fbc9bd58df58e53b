package flow

import (
	"strconv"
	"strings"
)

// EligibilityResult buckets an eligibility score.
type EligibilityResult string

const (
	EligibilityHighChance EligibilityResult = "High chance"
	EligibilityPossible   EligibilityResult = "Possible"
	EligibilityLowChance  EligibilityResult = "Low chance"
)

// Scoring thresholds. Brackets are inclusive on their lower bound.
const (
	highChanceThreshold = 7
	possibleThreshold   = 4
)

// EvaluateEligibility scores a merged answer map over five independent
// criteria: age in [18,45] (+2), a master/bachelor/phd education (+2),
// experience >= 2 years (+2), IELTS >= 6 (+2), and living outside India (+1).
// Values that fail to parse as numbers simply score zero for their criterion.
func EvaluateEligibility(data map[string]string) (EligibilityResult, int) {
	score := 0

	if age, ok := parseNumber(data["age"]); ok && age >= 18 && age <= 45 {
		score += 2
	}

	edu := strings.ToLower(data["education"])
	if strings.Contains(edu, "master") || strings.Contains(edu, "bachelor") || strings.Contains(edu, "phd") {
		score += 2
	}

	if exp, ok := parseNumber(data["experience"]); ok && exp >= 2 {
		score += 2
	}

	if ielts, ok := parseNumber(data["ielts"]); ok && ielts >= 6 {
		score += 2
	}

	if country := data["country"]; country != "" && !strings.EqualFold(country, "india") {
		score++
	}

	switch {
	case score >= highChanceThreshold:
		return EligibilityHighChance, score
	case score >= possibleThreshold:
		return EligibilityPossible, score
	default:
		return EligibilityLowChance, score
	}
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
