/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package chunker splits documents into bounded-size chunks at line
// boundaries. A chunk never breaks inside a single line, so a column
// description or statement rendered on one line stays intact. Chunking
// is a pure function of its input: the same documents and settings
// always produce the same chunks.
package chunker

import (
	"strings"

	"etlvalid/internal/document"
)

const (
	// DefaultMaxSize is the maximum chunk content length in characters.
	DefaultMaxSize = 1000
	// DefaultOverlap is the number of trailing lines repeated at the
	// start of the following chunk.
	DefaultOverlap = 1
)

// Chunker splits documents into chunks.
type Chunker struct {
	maxSize int
	overlap int
}

// New creates a chunker. Non-positive arguments fall back to defaults.
func New(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap*80 >= maxSize {
		overlap = 0
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

// Chunk splits every document whose content exceeds the size limit.
// Each chunk carries a copy of its parent document's metadata.
func (c *Chunker) Chunk(docs []document.Document) []document.Document {
	var chunks []document.Document
	for _, doc := range docs {
		chunks = append(chunks, c.chunkDocument(doc)...)
	}
	return chunks
}

func (c *Chunker) chunkDocument(doc document.Document) []document.Document {
	// Transformation documents hold exactly one SQL statement each and
	// must never be split mid-statement.
	if doc.Metadata[document.MetaType] == document.TypeTransformation {
		return []document.Document{withMetadata(doc.Content, doc.Metadata)}
	}
	if len(doc.Content) <= c.maxSize {
		return []document.Document{withMetadata(doc.Content, doc.Metadata)}
	}

	lines := strings.Split(doc.Content, "\n")
	var (
		chunks  []document.Document
		current []string
		size    int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, withMetadata(strings.Join(current, "\n"), doc.Metadata))
		if c.overlap > 0 && c.overlap < len(current) {
			current = append([]string(nil), current[len(current)-c.overlap:]...)
		} else {
			current = nil
		}
		size = joinedLen(current)
	}

	for _, line := range lines {
		lineLen := len(line)
		if size > 0 {
			lineLen++ // joining newline
		}
		if size+lineLen > c.maxSize && len(current) > 0 {
			flush()
			lineLen = len(line)
			if size > 0 {
				lineLen++
			}
		}
		// An oversized single line stays whole.
		current = append(current, line)
		size += lineLen
	}
	flush()
	return chunks
}

func joinedLen(lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	n := len(lines) - 1
	for _, l := range lines {
		n += len(l)
	}
	return n
}

func withMetadata(content string, meta map[string]string) document.Document {
	copied := make(map[string]string, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return document.Document{Content: content, Metadata: copied}
}
