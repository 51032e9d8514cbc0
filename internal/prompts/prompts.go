/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package prompts holds the intent-specific prompt templates and
// renders them with retrieved context.
package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"etlvalid/internal/router"
)

// Data carries everything a template can reference. Comparison prompts
// use SourceContext/TargetContext; all other intents use the flat
// Context field.
type Data struct {
	Context             string
	SourceContext       string
	TargetContext       string
	SourceDB            string
	TargetDB            string
	TransformationLogic string
	Question            string
}

const completenessTemplate = `You are a Data Completeness Validation Expert. Generate tests to check for:
- NULL values in critical columns
- Missing required fields
- Empty strings where data should exist
- Default values that might indicate missing data
- Give the output as executable SQL

Database Context: {{.Context}}

Source Database: {{.SourceDB}}
Target Database: {{.TargetDB}}

Transformation Logic:
{{.TransformationLogic}}

User Query: {{.Question}}

Generate a comprehensive completeness validation script:
`

const accuracyTemplate = `You are a Data Accuracy Validation Expert. Generate tests to check:
- Data type conformity
- Value ranges
- Referential integrity

Database Context: {{.Context}}

Source Database: {{.SourceDB}}
Target Database: {{.TargetDB}}

Transformation Logic:
{{.TransformationLogic}}

User Query: {{.Question}}

Generate a comprehensive accuracy validation script:
`

const comparisonTemplate = `You are a Cross-Database Comparison Expert. Generate tests to:
- Compare record counts between source and target
- Validate data transformations
- Verify ETL completeness
- Identify data drift

Source Database ({{.SourceDB}}): {{.SourceContext}}
Target Database ({{.TargetDB}}): {{.TargetContext}}

Transformation Logic:
{{.TransformationLogic}}

User Query: {{.Question}}

Generate a comprehensive comparison validation script:
`

const cleaningTemplate = `You are a Data Cleaning Expert. Generate scripts to:
- Handle NULL values appropriately
- Standardize formats
- Correct data errors
- Deduplicate records

Database Context: {{.Context}}

Source Database: {{.SourceDB}}
Target Database: {{.TargetDB}}

Transformation Logic:
{{.TransformationLogic}}

User Query: {{.Question}}

Generate a comprehensive data cleaning script:
`

var templates = map[router.Intent]*template.Template{
	router.IntentCompleteness: template.Must(template.New("completeness").Parse(completenessTemplate)),
	router.IntentAccuracy:     template.Must(template.New("accuracy").Parse(accuracyTemplate)),
	router.IntentComparison:   template.Must(template.New("comparison").Parse(comparisonTemplate)),
	router.IntentCleaning:     template.Must(template.New("cleaning").Parse(cleaningTemplate)),
}

// NoTransformationLogic is rendered when no transformation source was
// supplied.
const NoTransformationLogic = "No transformation logic provided"

// Render fills the template for the given intent. Unknown intents fall
// back to the completeness template.
func Render(intent router.Intent, data Data) (string, error) {
	tmpl, ok := templates[intent]
	if !ok {
		tmpl = templates[router.IntentCompleteness]
	}
	if strings.TrimSpace(data.TransformationLogic) == "" {
		data.TransformationLogic = NoTransformationLogic
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", intent, err)
	}
	return b.String(), nil
}
