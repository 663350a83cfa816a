// Package ddl renders materialized view and index metadata as replayable
// PostgreSQL DDL statements. All functions are pure.
package ddl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/sadopc/matviewddl/internal/schema"
)

// Separator is placed between consecutive statements of an extraction.
const Separator = "\n\n"

// QuoteIdent wraps name in double quotes. Embedded double quotes are not
// escaped; identifiers containing them produce invalid SQL.
func QuoteIdent(name string) string {
	return `"` + name + `"`
}

// QualifiedName returns "schema"."name".
func QualifiedName(schemaName, name string) string {
	return QuoteIdent(schemaName) + "." + QuoteIdent(name)
}

// NormalizeDefinition trims surrounding whitespace and every trailing
// semicolon from a view definition, so exactly one terminator can be
// appended.
func NormalizeDefinition(def string) string {
	def = strings.TrimRightFunc(def, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
	return strings.TrimSpace(def)
}

// FormatView renders
//
//	CREATE MATERIALIZED VIEW "schema"."name" AS
//	<definition>;
func FormatView(schemaName string, v schema.MaterializedView) string {
	var b strings.Builder
	b.WriteString("CREATE MATERIALIZED VIEW ")
	b.WriteString(QualifiedName(schemaName, v.Name))
	b.WriteString(" AS\n")
	b.WriteString(NormalizeDefinition(v.Definition))
	b.WriteByte(';')
	return b.String()
}

// FormatIndex renders
//
//	CREATE [UNIQUE ]INDEX "index" ON "schema"."table" ("c1", "c2");
//
// with the columns in the order given. The index's own owning schema is
// used when set, schemaName otherwise.
func FormatIndex(schemaName string, ix schema.Index) string {
	owner := ix.Schema
	if owner == "" {
		owner = schemaName
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if ix.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(QuoteIdent(ix.Name))
	b.WriteString(" ON ")
	b.WriteString(QualifiedName(owner, ix.Table))
	b.WriteString(" (")
	for i, col := range ix.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(QuoteIdent(col))
	}
	b.WriteString(");")
	return b.String()
}

// Join concatenates statements with Separator.
func Join(statements []string) string {
	return strings.Join(statements, Separator)
}

// Checksum returns the hex SHA-256 of a rendered script. Identical catalogs
// produce identical checksums.
func Checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}
