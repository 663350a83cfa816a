// Package output writes an extraction result as a replayable SQL script,
// a JSON document or a CSV listing.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sadopc/matviewddl/internal/extract"
)

// Format selects the output encoding.
type Format string

const (
	FormatSQL  Format = "sql"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat parses a format name. An empty name selects FormatSQL.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSQL:
		return FormatSQL, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options control how a result is written.
type Options struct {
	Format Format
	// Header prefixes SQL output with a comment block describing the source.
	Header   bool
	Database string
	Checksum string
	// Highlight, when set, styles SQL output for a terminal.
	Highlight   func(string) string
	GeneratedAt time.Time
}

// Write encodes res to w.
func Write(w io.Writer, res *extract.Result, opts Options) error {
	if res == nil {
		return errors.New("output: nil result")
	}
	switch opts.Format {
	case "", FormatSQL:
		return writeSQL(w, res, opts)
	case FormatJSON:
		return writeJSON(w, res, opts)
	case FormatCSV:
		return writeCSV(w, res)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
}

// WriteFile encodes res to the file at path, replacing it.
func WriteFile(path string, res *extract.Result, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, res, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Header returns the SQL comment block written when Options.Header is set.
func Header(res *extract.Result, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Materialized views of schema %q", res.Schema)
	if opts.Database != "" {
		fmt.Fprintf(&b, " in database %q", opts.Database)
	}
	b.WriteByte('\n')
	if !opts.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "-- Generated %s\n", opts.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "-- %d materialized views, %d indexes\n", res.Views, res.Indexes)
	return b.String()
}

func writeSQL(w io.Writer, res *extract.Result, opts Options) error {
	var b strings.Builder
	if opts.Header {
		b.WriteString(Header(res, opts))
		if len(res.Statements) > 0 {
			b.WriteByte('\n')
		}
	}
	if text := res.DDL(); text != "" {
		if opts.Highlight != nil {
			text = opts.Highlight(text)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonObject struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	View      string `json:"view"`
	Statement string `json:"statement"`
}

type jsonDocument struct {
	Schema      string       `json:"schema"`
	Database    string       `json:"database,omitempty"`
	Views       int          `json:"views"`
	Indexes     int          `json:"indexes"`
	Checksum    string       `json:"checksum,omitempty"`
	GeneratedAt *time.Time   `json:"generated_at,omitempty"`
	DurationMS  int64        `json:"duration_ms"`
	Objects     []jsonObject `json:"objects"`
}

func writeJSON(w io.Writer, res *extract.Result, opts Options) error {
	doc := jsonDocument{
		Schema:     res.Schema,
		Database:   opts.Database,
		Views:      res.Views,
		Indexes:    res.Indexes,
		Checksum:   opts.Checksum,
		DurationMS: res.Duration.Milliseconds(),
		Objects:    make([]jsonObject, 0, len(res.Objects)),
	}
	if !opts.GeneratedAt.IsZero() {
		t := opts.GeneratedAt.UTC()
		doc.GeneratedAt = &t
	}
	for _, o := range res.Objects {
		doc.Objects = append(doc.Objects, jsonObject(o))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeCSV(w io.Writer, res *extract.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"kind", "name", "view", "statement"}); err != nil {
		return err
	}
	for _, o := range res.Objects {
		if err := cw.Write([]string{o.Kind, o.Name, o.View, o.Statement}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
