// Handles the delimited tables of the schema and data sections.

package textfmt

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	delimiter   = ','
	commentChar = '#'
)

var errNoHeader = errors.New("missing header row")

// table is a delimited table as read from a section: a header row and the
// records below it, all of the header's width.
type table struct {
	header  []string
	records [][]string
}

// readTable parses one section. Blank lines and lines starting with the
// comment character are skipped; leading blanks of unquoted fields are
// dropped. Header names are trimmed.
func readTable(section string) (*table, error) {
	r := csv.NewReader(strings.NewReader(section))
	r.Comma = delimiter
	r.Comment = commentChar
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = 0
	r.ReuseRecord = false
	t := &table{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if t.header == nil {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
			t.header = rec
			continue
		}
		t.records = append(t.records, rec)
	}
	if t.header == nil {
		return nil, errNoHeader
	}
	return t, nil
}

// column returns the fields of column j.
func (t *table) column(j int) []string {
	out := make([]string, len(t.records))
	for i, rec := range t.records {
		out[i] = rec[j]
	}
	return out
}

// writeRecord appends one record terminated by "\n".
//
// encoding/csv.Writer is not used: it does not quote fields with leading
// blanks or a leading comment character, which the reader would then alter
// or drop.
func writeRecord(buf *bytes.Buffer, fields []string) {
	if len(fields) == 1 && fields[0] == "" {
		// A bare empty line would be skipped as blank.
		buf.WriteString(`""` + "\n")
		return
	}
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(delimiter)
		}
		if !needsQuotes(f, i == 0) {
			buf.WriteString(f)
			continue
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

func needsQuotes(f string, first bool) bool {
	if f == "" {
		return false
	}
	if strings.ContainsAny(f, "\",\r\n") {
		return true
	}
	if first && f[0] == commentChar {
		return true
	}
	r, _ := utf8.DecodeRuneInString(f)
	if unicode.IsSpace(r) {
		return true
	}
	r, _ = utf8.DecodeLastRuneInString(f)
	return unicode.IsSpace(r)
}
