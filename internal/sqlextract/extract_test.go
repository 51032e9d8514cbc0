/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package sqlextract

import (
	"reflect"
	"testing"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{
			"single sql block",
			"```sql\nSELECT 1;\n```",
			"SELECT 1;",
		},
		{
			"no code blocks",
			"no code blocks here",
			"no code blocks here",
		},
		{
			"multiple sql blocks joined",
			"```sql\nSELECT 1;\n```\n```sql\nSELECT 2;\n```",
			"SELECT 1;\n\nSELECT 2;",
		},
		{
			"untagged block with sql keyword",
			"Here is the query:\n```\nSELECT COUNT(*) FROM orders;\n```\nDone.",
			"SELECT COUNT(*) FROM orders;",
		},
		{
			"untagged block without sql falls through to full text",
			"Look:\n```\njust some text\n```",
			"Look:\n```\njust some text\n```",
		},
		{
			"sql block preferred over earlier untagged block",
			"```\nSELECT 0;\n```\n```sql\nSELECT 1;\n```",
			"SELECT 1;",
		},
		{
			"unterminated sql fence",
			"```sql\nSELECT 1;",
			"SELECT 1;",
		},
		{
			"prose around the block is dropped",
			"Sure, here you go:\n\n```sql\nSELECT a FROM t;\n```\n\nLet me know!",
			"SELECT a FROM t;",
		},
		{
			"whitespace-only answer",
			"   \n\t ",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSQL(tt.answer); got != tt.want {
				t.Errorf("ExtractSQL(%q) = %q, want %q", tt.answer, got, tt.want)
			}
		})
	}
}

func TestExtractSQLDeterministic(t *testing.T) {
	in := "```sql\nSELECT 1;\n```\ntext\n```\nSELECT 2;\n```"
	if ExtractSQL(in) != ExtractSQL(in) {
		t.Error("extraction is not deterministic")
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			"two statements",
			"SELECT 1;\nSELECT 2;",
			[]string{"SELECT 1", "SELECT 2"},
		},
		{
			"trailing statement without semicolon",
			"SELECT 1;\nSELECT 2",
			[]string{"SELECT 1", "SELECT 2"},
		},
		{
			"semicolon inside string literal",
			"SELECT 'a;b' FROM t; SELECT 2;",
			[]string{"SELECT 'a;b' FROM t", "SELECT 2"},
		},
		{
			"escaped quote in literal",
			"SELECT 'it''s;fine' FROM t;",
			[]string{"SELECT 'it''s;fine' FROM t"},
		},
		{
			"semicolon in line comment",
			"SELECT 1 -- trailing; comment\nFROM t;",
			[]string{"SELECT 1 -- trailing; comment\nFROM t"},
		},
		{
			"semicolon in block comment",
			"SELECT 1 /* a;b */ FROM t;",
			[]string{"SELECT 1 /* a;b */ FROM t"},
		},
		{
			"comment-only fragment dropped",
			"-- header comment\n;SELECT 1;",
			[]string{"SELECT 1"},
		},
		{
			"backtick identifier",
			"SELECT `weird;name` FROM t;",
			[]string{"SELECT `weird;name` FROM t"},
		},
		{
			"empty script",
			"",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitStatements(tt.script)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitStatements(%q) = %#v, want %#v", tt.script, got, tt.want)
			}
		})
	}
}
