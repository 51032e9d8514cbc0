/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package sqlextract isolates SQL from LLM-generated answers and splits
// scripts into individual statements. All functions are pure.
package sqlextract

import (
	"strings"
)

// codeBlock is one fenced block found in generated text.
type codeBlock struct {
	language string
	content  string
}

// parseBlocks scans text line by line for triple-backtick fences. An
// unterminated final fence is treated as running to the end of input.
func parseBlocks(text string) []codeBlock {
	var blocks []codeBlock
	var current []string
	lang := ""
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				blocks = append(blocks, codeBlock{
					language: lang,
					content:  strings.TrimSpace(strings.Join(current, "\n")),
				})
				current = nil
				inBlock = false
				continue
			}
			lang = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
			inBlock = true
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}
	if inBlock {
		blocks = append(blocks, codeBlock{
			language: lang,
			content:  strings.TrimSpace(strings.Join(current, "\n")),
		})
	}
	return blocks
}

// sqlKeywords identify a block as SQL even without a language tag.
var sqlKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER"}

func looksLikeSQL(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range sqlKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// ExtractSQL pulls SQL out of a generated answer:
//  1. all blocks tagged as sql, joined by a blank line;
//  2. otherwise the first untagged block containing a SQL keyword;
//  3. otherwise the whole answer, trimmed.
func ExtractSQL(answer string) string {
	blocks := parseBlocks(answer)

	var sqlBlocks []string
	for _, b := range blocks {
		if b.language == "sql" {
			sqlBlocks = append(sqlBlocks, b.content)
		}
	}
	if len(sqlBlocks) > 0 {
		return strings.Join(sqlBlocks, "\n\n")
	}

	for _, b := range blocks {
		if looksLikeSQL(b.content) {
			return b.content
		}
	}

	return strings.TrimSpace(answer)
}

// SplitStatements splits a SQL script on statement-terminating
// semicolons, ignoring semicolons inside string literals, quoted
// identifiers, and comments. A trailing statement without a semicolon
// is kept. Comment-only fragments are dropped.
func SplitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inString   bool
		stringCh   byte
		inLine     bool // -- comment
		inBlock    bool // /* comment */
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		current.Reset()
		if stmt == "" || isCommentOnly(stmt) {
			return
		}
		statements = append(statements, stmt)
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]

		switch {
		case inLine:
			current.WriteByte(ch)
			if ch == '\n' {
				inLine = false
			}
			continue
		case inBlock:
			current.WriteByte(ch)
			if ch == '*' && i+1 < len(script) && script[i+1] == '/' {
				current.WriteByte('/')
				i++
				inBlock = false
			}
			continue
		case inString:
			current.WriteByte(ch)
			if ch == stringCh {
				// Doubled quote is an escaped quote, not a terminator.
				if i+1 < len(script) && script[i+1] == stringCh {
					current.WriteByte(script[i+1])
					i++
				} else {
					inString = false
				}
			}
			continue
		}

		switch {
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			inLine = true
			current.WriteByte(ch)
		case ch == '/' && i+1 < len(script) && script[i+1] == '*':
			inBlock = true
			current.WriteByte(ch)
		case ch == '\'' || ch == '"' || ch == '`':
			inString = true
			stringCh = ch
			current.WriteByte(ch)
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()

	return statements
}

// isCommentOnly reports whether every line of the fragment is blank or
// a line comment.
func isCommentOnly(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		return false
	}
	return true
}
