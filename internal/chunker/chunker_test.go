/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"etlvalid/internal/document"
)

func schemaDoc(content string) document.Document {
	return document.Document{
		Content: content,
		Metadata: map[string]string{
			document.MetaType:   document.TypeSchema,
			document.MetaTable:  "orders",
			document.MetaSource: "source_db",
		},
	}
}

func TestChunkSmallDocumentUnsplit(t *testing.T) {
	c := New(1000, 1)
	chunks := c.Chunk([]document.Document{schemaDoc("Table: orders\nColumns:\n- id: int (NOT NULL)")})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "Table: orders\nColumns:\n- id: int (NOT NULL)" {
		t.Errorf("content altered: %q", chunks[0].Content)
	}
}

func TestChunkRespectsSizeAndLineBoundaries(t *testing.T) {
	var b strings.Builder
	b.WriteString("Table: wide\nColumns:\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "- column_%02d: varchar(255) (NULL)\n", i)
	}
	doc := schemaDoc(b.String())

	c := New(200, 1)
	chunks := c.Chunk([]document.Document{doc})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Content) > 200 {
			t.Errorf("chunk %d exceeds size limit: %d chars", i, len(ch.Content))
		}
		for _, line := range strings.Split(ch.Content, "\n") {
			if strings.HasPrefix(line, "- column_") && !strings.HasSuffix(line, "(NULL)") {
				t.Errorf("chunk %d split inside a column line: %q", i, line)
			}
		}
	}
}

func TestChunkMetadataInherited(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "- column_%02d: int (NULL)\n", i)
	}
	doc := schemaDoc(b.String())

	c := New(150, 1)
	chunks := c.Chunk([]document.Document{doc})
	for i, ch := range chunks {
		if !reflect.DeepEqual(ch.Metadata, doc.Metadata) {
			t.Errorf("chunk %d metadata = %v, want %v", i, ch.Metadata, doc.Metadata)
		}
	}

	// Chunk metadata must be an independent copy.
	chunks[0].Metadata["source"] = "mutated"
	if doc.Metadata["source"] != "source_db" {
		t.Error("mutating chunk metadata leaked into the parent document")
	}
}

func TestChunkIdempotent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "- column_%02d: text (NULL)\n", i)
	}
	docs := []document.Document{schemaDoc(b.String())}

	c := New(180, 1)
	first := c.Chunk(docs)
	second := c.Chunk(docs)
	if !reflect.DeepEqual(first, second) {
		t.Error("chunking is not idempotent")
	}
}

func TestChunkTransformationNeverSplit(t *testing.T) {
	stmt := "INSERT INTO target_orders\nSELECT id, customer_id, total\nFROM source_orders\nWHERE total > 0"
	doc := document.Document{
		Content: "Transformation Logic:\n" + strings.Repeat(stmt+"\n", 1),
		Metadata: map[string]string{
			document.MetaType:   document.TypeTransformation,
			document.MetaSource: "source_db",
		},
	}

	c := New(50, 1)
	chunks := c.Chunk([]document.Document{doc})
	if len(chunks) != 1 {
		t.Fatalf("transformation document was split into %d chunks", len(chunks))
	}
}

func TestChunkOversizedLineKeptWhole(t *testing.T) {
	long := "- big_column: " + strings.Repeat("x", 400)
	doc := schemaDoc("Table: t\n" + long + "\nend")

	c := New(100, 0)
	chunks := c.Chunk([]document.Document{doc})
	found := false
	for _, ch := range chunks {
		if strings.Contains(ch.Content, long) {
			found = true
		}
	}
	if !found {
		t.Error("oversized line was broken across chunks")
	}
}
