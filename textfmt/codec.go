// Package textfmt reads and writes the three-section DataPlusMeta text
// format.
//
// A file is UTF-8 text, optionally prefixed with a byte order mark, made of
// three sections separated by two blank lines:
//
//	<BOM># optional preamble comment lines
//
//	<metadata as YAML>
//
//
//	<schema header row>
//
//	<schema rows>
//
//
//	<data header row>
//
//	<data rows>
//
// The schema and data sections are comma separated tables where lines
// starting with '#' are comments. The first column of the schema holds the
// label of each data column, index first. The first column of the data is
// the index.
package textfmt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/maruel/dataplusmeta/frame"
	"github.com/maruel/dataplusmeta/meta"
	"github.com/maruel/dataplusmeta/schema"
)

const (
	// BOM is the UTF-8 byte order mark written at the start of every file.
	BOM = "\ufeff"
	// Separator separates the three sections. It must not appear in any of
	// them.
	Separator = "\n\n\n"
	// blankLine follows the header-only row of each table.
	blankLine = "\n"
)

// DefaultPreamble explains the layout to a reader opening a file by hand.
// Pass it as EncodeOptions.Preamble; nothing is written by default.
const DefaultPreamble = `This file contains three sections separated by two blank lines.
The first section contains meta data, which can be parsed with yaml.
The second and third sections contain data column definitions
and data respectively, both formatted as csv tables.`

// Document is the decoded content of a file.
type Document struct {
	Meta   meta.Value
	Schema *schema.Table
	Data   *frame.Frame
}

// DecodeOptions configures Decode.
type DecodeOptions struct {
	// IgnoreDTypes infers the type of every data column from its values
	// instead of using the schema's dtype field.
	IgnoreDTypes bool
}

// Decode parses a file. It returns a complete Document or an error,
// usually a *FormatError.
func Decode(data []byte, opts DecodeOptions) (*Document, error) {
	text := strings.TrimPrefix(string(data), BOM)
	// Files edited on Windows.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sections := strings.Split(text, Separator)
	if len(sections) != 3 {
		return nil, &FormatError{Section: SectionFile, Err: fmt.Errorf("%w: got %d, want 3", ErrSectionCount, len(sections))}
	}
	m, err := meta.Parse([]byte(sections[0]))
	if err != nil {
		return nil, formatErr(SectionMetadata, ErrMetadata, err)
	}
	s, err := decodeSchema(sections[1])
	if err != nil {
		return nil, err
	}
	f, err := decodeData(sections[2], s, opts)
	if err != nil {
		return nil, err
	}
	return &Document{Meta: m, Schema: s, Data: f}, nil
}

func decodeSchema(section string) (*schema.Table, error) {
	t, err := readTable(section)
	if err != nil {
		return nil, formatErr(SectionSchema, ErrRows, err)
	}
	s := &schema.Table{Name: t.header[0], Fields: t.header[1:], Rows: make([]schema.Row, len(t.records))}
	if s.Name == "" {
		s.Name = schema.DefaultName
	}
	seen := make(map[string]bool, len(t.records))
	for i, rec := range t.records {
		label := strings.TrimSpace(rec[0])
		if label == "" {
			return nil, formatErr(SectionSchema, ErrRows, fmt.Errorf("row %d has no label", i+1))
		}
		if seen[label] {
			return nil, formatErr(SectionSchema, ErrDuplicateLabel, fmt.Errorf("%q", label))
		}
		seen[label] = true
		values := rec[1:]
		for j := range values {
			values[j] = strings.TrimSpace(values[j])
		}
		s.Rows[i] = schema.Row{Label: label, Values: values}
	}
	if err := s.Validate(); err != nil {
		return nil, formatErr(SectionSchema, ErrRows, err)
	}
	return s, nil
}

func decodeData(section string, s *schema.Table, opts DecodeOptions) (*frame.Frame, error) {
	t, err := readTable(section)
	if err != nil {
		return nil, formatErr(SectionData, ErrRows, err)
	}
	if t.header[0] == "" && len(s.Rows) != 0 {
		t.header[0] = s.Rows[0].Label
	}
	seen := make(map[string]bool, len(t.header))
	columns := make([]frame.Column, len(t.header))
	for j, name := range t.header {
		label := name
		if j == 0 && label == "" {
			label = frame.DefaultIndexName
		}
		if seen[label] {
			return nil, formatErr(SectionData, ErrDuplicateLabel, fmt.Errorf("%q", label))
		}
		seen[label] = true
		raws := t.column(j)
		dtype, ok := s.DType(label)
		if opts.IgnoreDTypes || !ok {
			columns[j] = frame.Infer(name, raws)
			continue
		}
		c, err := frame.ParseColumn(name, dtype, raws)
		if err != nil {
			kind := ErrValue
			if dtype.IsDateTime() {
				kind = ErrDateTime
			}
			return nil, formatErr(SectionData, kind, err)
		}
		columns[j] = c
	}
	f, err := frame.New(columns[0], columns[1:]...)
	if err != nil {
		return nil, formatErr(SectionData, ErrRows, err)
	}
	return f, nil
}

// EncodeOptions configures Encode.
type EncodeOptions struct {
	// Preamble is written as comment lines at the top of the file.
	Preamble string
}

// Encode serializes a Document.
//
// The schema must be present and consistent with the data; callers
// reconcile them first with schema.Update or schema.Check. An empty schema
// name defaults to schema.DefaultName and an unnamed data index takes the
// schema's first label. doc is not modified.
func Encode(doc *Document, opts EncodeOptions) ([]byte, error) {
	if doc.Data == nil {
		return nil, ErrNoData
	}
	s := doc.Schema.Clone()
	if s != nil && s.Name == "" {
		s.Name = schema.DefaultName
	}
	f := *doc.Data
	if f.Index.Name == "" && s != nil && len(s.Rows) != 0 {
		f.Index.Name = s.Rows[0].Label
	}
	if _, err := schema.Check(s, &f, schema.Strict); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(BOM)
	if opts.Preamble != "" {
		for _, line := range strings.Split(strings.TrimSuffix(opts.Preamble, "\n"), "\n") {
			buf.WriteString("# " + strings.TrimSuffix(line, "\r") + "\n")
		}
		buf.WriteString(blankLine)
	}

	m, err := meta.Dump(doc.Meta)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if bytes.Contains(m, []byte(Separator)) || bytes.HasSuffix(m, []byte("\n\n")) {
		return nil, fmt.Errorf("metadata: %w", ErrSeparatorInContent)
	}
	buf.Write(m)
	buf.WriteString("\n\n")

	sec := encodeSchema(s)
	if strings.Contains(sec, Separator) {
		return nil, fmt.Errorf("schema: %w", ErrSeparatorInContent)
	}
	buf.WriteString(sec)
	buf.WriteString("\n\n")

	sec, err = encodeData(&f)
	if err != nil {
		return nil, err
	}
	if strings.Contains(sec, Separator) {
		return nil, fmt.Errorf("data: %w", ErrSeparatorInContent)
	}
	buf.WriteString(sec)
	return buf.Bytes(), nil
}

func encodeSchema(s *schema.Table) string {
	var buf bytes.Buffer
	writeRecord(&buf, append([]string{s.Name}, s.Fields...))
	buf.WriteString(blankLine)
	for _, r := range s.Rows {
		writeRecord(&buf, append([]string{r.Label}, r.Values...))
	}
	return buf.String()
}

func encodeData(f *frame.Frame) (string, error) {
	var buf bytes.Buffer
	writeRecord(&buf, f.Labels())
	buf.WriteString(blankLine)
	labels := f.Labels()
	fields := make([]string, len(labels))
	for i := range f.Len() {
		for j, v := range f.Row(i) {
			s, err := frame.Format(v)
			if err != nil {
				return "", fmt.Errorf("column %q row %d: %w", labels[j], i, err)
			}
			fields[j] = s
		}
		writeRecord(&buf, fields)
	}
	return buf.String(), nil
}
