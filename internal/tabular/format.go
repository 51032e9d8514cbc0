/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package tabular renders validation query result sets as
// tab-separated text for terminal and log output.
package tabular

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// escaper rewrites characters that would break one-row-per-line output.
var escaper = strings.NewReplacer("\t", "\\t", "\n", "\\n", "\r", "\\r")

// FormatValue renders one cell. NULL renders as the literal NULL so a
// completeness check's output is unambiguous about missing values.
func FormatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}

	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []byte:
		s = string(val)
	case time.Time:
		s = val.Format(time.RFC3339)
	case bool:
		s = strconv.FormatBool(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'g', -1, 64)
	case []interface{}, map[string]interface{}:
		if b, err := json.Marshal(val); err == nil {
			s = string(b)
		} else {
			s = fmt.Sprint(val)
		}
	default:
		s = fmt.Sprint(val)
	}

	return escaper.Replace(s)
}

// FormatResults renders a header row and one line per data row,
// tab-separated.
func FormatResults(columnNames []string, results [][]interface{}) string {
	if len(columnNames) == 0 {
		return ""
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, strings.Join(columnNames, "\t"))
	for _, row := range results {
		cells := make([]string, len(row))
		for i, val := range row {
			cells[i] = FormatValue(val)
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return strings.Join(lines, "\n")
}

// FormatResultsLimit renders at most limit data rows and appends a
// truncation note when rows were cut. A non-positive limit renders
// everything.
func FormatResultsLimit(columnNames []string, results [][]interface{}, limit int) string {
	if limit <= 0 || len(results) <= limit {
		return FormatResults(columnNames, results)
	}
	out := FormatResults(columnNames, results[:limit])
	return fmt.Sprintf("%s\n... (%d of %d rows shown)", out, limit, len(results))
}
