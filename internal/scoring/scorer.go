// Package scoring estimates the long-term retrieval value of a
// conversational exchange and assigns it a fitness category.
package scoring

import (
	"regexp"
	"strings"
)

// StoreThreshold is the score above which an exchange is persisted into
// long-term memory. Strictly greater-than: a score of exactly 0.6 is
// not retained.
const StoreThreshold = 0.6

// Category labels a stored exchange for retrieval display.
type Category string

const (
	CategoryWorkoutPlan Category = "workout_plan"
	CategoryProgress    Category = "progress"
	CategoryNutrition   Category = "nutrition"
	CategoryLimitations Category = "limitations"
	CategoryScheduling  Category = "scheduling"
	CategoryGeneral     Category = "general"
)

// Domain keywords weighted by clinical/behavioral significance. Each
// distinct keyword counts once regardless of repetition.
var keywordWeights = map[string]float64{
	"workout": 0.3, "exercise": 0.3, "routine": 0.3,
	"progress": 0.4, "improvement": 0.4, "goal": 0.3,
	"weight": 0.2, "reps": 0.3, "sets": 0.3,
	"diet": 0.3, "nutrition": 0.3, "meal": 0.2,
	"injury": 0.5, "pain": 0.4, "limitation": 0.4,
	"schedule": 0.3, "plan": 0.3, "struggle": 0.4,
	"achievement": 0.4, "milestone": 0.4, "difficulty": 0.3,
}

var (
	// Numbered lists, bullet markers, colon-terminated lines, dash lists.
	structuredRe = regexp.MustCompile(`\d+\.|•|\n.*:|\n\s*-`)
	// A number followed by a measurement unit.
	measurementRe = regexp.MustCompile(`\d+\s*(kg|lbs|reps|sets|minutes|hours|days|weeks|%)`)
)

// Score estimates importance of an exchange text in [0, 1].
//
// Keyword weights are summed once per distinct matched keyword, then
// +0.3 for structured content, +0.2 for a number+unit measurement.
// Texts over 50 words gain +0.1; texts under 10 words are scaled by 0.7.
func Score(text string) float64 {
	lower := strings.ToLower(text)
	wordCount := len(strings.Fields(text))

	score := 0.0
	for kw, weight := range keywordWeights {
		if strings.Contains(lower, kw) {
			score += weight
		}
	}

	if structuredRe.MatchString(text) {
		score += 0.3
	}
	if measurementRe.MatchString(lower) {
		score += 0.2
	}

	if wordCount > 50 {
		score += 0.1
	} else if wordCount < 10 {
		score *= 0.7
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ShouldStore reports whether a scored exchange crosses the long-term
// retention threshold.
func ShouldStore(score float64) bool {
	return score > StoreThreshold
}

// Ordered category checks: first match wins.
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryWorkoutPlan, []string{"workout", "exercise", "routine", "plan"}},
	{CategoryProgress, []string{"progress", "improvement", "achievement"}},
	{CategoryNutrition, []string{"diet", "nutrition", "meal", "food"}},
	{CategoryLimitations, []string{"injury", "pain", "limitation"}},
	{CategoryScheduling, []string{"schedule", "time", "frequency"}},
}

// Categorize assigns the first matching category to the exchange text,
// defaulting to general. Matching is independent of scoring.
func Categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, group := range categoryKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.category
			}
		}
	}
	return CategoryGeneral
}
