/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package router classifies free-text data-quality questions into an
// intent and picks the model configuration for them.
package router

import (
	"strings"

	"etlvalid/internal/llm"
)

// Intent is the category a query routes to.
type Intent string

const (
	IntentComparison   Intent = "comparison"
	IntentCleaning     Intent = "cleaning"
	IntentCompleteness Intent = "completeness"
	IntentAccuracy     Intent = "accuracy"
)

// classification rules in priority order; the first match wins.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentComparison, []string{"compare", "source vs target", "etl"}},
	{IntentCleaning, []string{"clean", "fix", "correct"}},
	{IntentCompleteness, []string{"null", "missing", "empty"}},
	{IntentAccuracy, []string{"accuracy", "valid", "correctness"}},
}

// Classify maps a query to an intent by case-insensitive substring
// match. Queries matching no rule default to completeness.
func Classify(query string) Intent {
	q := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.intent
			}
		}
	}
	return IntentCompleteness
}

// DefaultModel is the model every query currently routes to.
const DefaultModel = "codellama:7b"

// SelectModel picks the model and decoding parameters for a query. It
// is total: every query maps to exactly one configuration. Per-intent
// model differentiation is reserved for future tuning; today every
// query gets the same fast code model.
func SelectModel(query string) (string, llm.ModelParams) {
	_ = query
	return DefaultModel, llm.ModelParams{
		Temperature:   0.1,
		TopK:          5,
		RepeatPenalty: 1.1,
		NumPredict:    1024,
		NumCtx:        2048,
	}
}
