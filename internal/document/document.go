/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package document renders schema and profile reports into text documents
// carrying provenance metadata. The rendering is deterministic: the same
// report always produces byte-identical documents, so index builds are
// reproducible.
package document

import (
	"fmt"
	"strings"

	"etlvalid/internal/config"
	"etlvalid/internal/profiler"
)

// Metadata keys attached to every document.
const (
	MetaType   = "type"
	MetaTable  = "table"
	MetaSource = "source"
)

// Document type values.
const (
	TypeSchema         = "schema"
	TypeProfile        = "profile"
	TypeTransformation = "transformation"
	TypeDatabaseInfo   = "database_info"
)

// Side identifies which database a document describes.
type Side string

const (
	SideSource Side = "source_db"
	SideTarget Side = "target_db"
)

// targetPrefix marks target-side content so the model can tell the two
// databases apart inside a single retrieved context.
const targetPrefix = "[TARGET] "

// Document is one unit of indexable text with provenance metadata.
// Metadata is set before chunking and inherited unchanged by every chunk.
type Document struct {
	Content  string
	Metadata map[string]string
}

// SchemaDocs renders one document per table in the report.
func SchemaDocs(report *profiler.SchemaReport, side Side) []Document {
	docs := make([]Document, 0, len(report.Tables))
	for _, table := range report.Tables {
		docs = append(docs, Document{
			Content: renderSchema(table, side),
			Metadata: map[string]string{
				MetaType:   TypeSchema,
				MetaTable:  table.TableName,
				MetaSource: string(side),
			},
		})
	}
	return docs
}

// ProfileDocs renders one document per table profile in the report.
func ProfileDocs(report *profiler.ProfileReport, side Side) []Document {
	docs := make([]Document, 0, len(report.Tables))
	for _, profile := range report.Tables {
		docs = append(docs, Document{
			Content: renderProfile(profile, side),
			Metadata: map[string]string{
				MetaType:   TypeProfile,
				MetaTable:  profile.TableName,
				MetaSource: string(side),
			},
		})
	}
	return docs
}

// DatabaseInfoDoc summarizes a database endpoint. Credentials are never
// rendered into document text.
func DatabaseInfoDoc(cfg config.DatabaseConfig, side Side) Document {
	label := "Source"
	if side == SideTarget {
		label = "Target"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s Database Information:\n", label)
	fmt.Fprintf(&b, "Driver: %s\n", cfg.Driver)
	fmt.Fprintf(&b, "Host: %s:%d\n", cfg.Host, cfg.Port)
	fmt.Fprintf(&b, "Database: %s\n", cfg.Database)
	return Document{
		Content: b.String(),
		Metadata: map[string]string{
			MetaType:   TypeDatabaseInfo,
			MetaSource: string(side),
		},
	}
}

// TransformationDocs wraps pre-split transformation SQL statements, one
// document per statement.
func TransformationDocs(statements []string) []Document {
	docs := make([]Document, 0, len(statements))
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		docs = append(docs, Document{
			Content: "Transformation Logic:\n" + stmt,
			Metadata: map[string]string{
				MetaType:   TypeTransformation,
				MetaSource: string(SideSource),
			},
		})
	}
	return docs
}

func renderSchema(table profiler.TableSchema, side Side) string {
	var b strings.Builder
	if side == SideTarget {
		b.WriteString(targetPrefix)
	}
	fmt.Fprintf(&b, "Table: %s\nColumns:\n", table.TableName)
	for _, col := range table.Columns {
		nullInfo := "NOT NULL"
		if col.Nullable {
			nullInfo = "NULL"
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", col.Name, col.DataType, nullInfo)
	}
	if len(table.ForeignKeys) > 0 {
		b.WriteString("\nForeign Keys:\n")
		for _, fk := range table.ForeignKeys {
			fmt.Fprintf(&b, "- %s references %s(%s)\n",
				fk.Column, fk.ReferencedTable, fk.ReferencedColumn)
		}
	}
	return b.String()
}

func renderProfile(profile profiler.TableProfile, side Side) string {
	var b strings.Builder
	if side == SideTarget {
		b.WriteString(targetPrefix)
	}
	fmt.Fprintf(&b, "Table: %s\nRow Count: %d\nColumn Profiles:\n",
		profile.TableName, profile.RowCount)
	for _, col := range profile.Columns {
		fmt.Fprintf(&b, "- %s (%s): NULLs: %d, Distinct: %d, Samples: %v\n",
			col.Name, col.DataType, col.NullCount, col.DistinctCount, col.SampleValues)
	}
	return b.String()
}
