package dataplusmeta

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/maruel/dataplusmeta/frame"
	"github.com/maruel/dataplusmeta/meta"
	"github.com/maruel/dataplusmeta/schema"
	"github.com/maruel/dataplusmeta/textfmt"
)

// Container bundles a Data Table with its Schema Table and Metadata Block.
//
// The fields may be replaced freely; consistency between Schema and Data is
// only enforced by Write, or on demand with Check and UpdateSchema. A
// Container is not safe for concurrent use.
type Container struct {
	// Data is nil when absent.
	Data *frame.Frame
	// Schema is nil when absent.
	Schema *schema.Table
	Meta   meta.Value
	// Source identifies where the content came from, typically a path.
	Source string
}

// WriteOptions configures Write and Encode.
type WriteOptions struct {
	// KeepSchema writes the schema as is after a strict check, instead of
	// refreshing its dtypes from the data first.
	KeepSchema bool
	// Preamble is written as comment lines at the top of the file. See
	// textfmt.DefaultPreamble.
	Preamble string
}

// New returns a Container. A null m becomes an empty map. An inconsistent
// schema is accepted with a logged warning.
func New(data *frame.Frame, s *schema.Table, m meta.Value, source string) *Container {
	if m.Kind() == meta.KindNull {
		m = meta.Map()
	}
	c := &Container{Data: data, Schema: s, Meta: m, Source: source}
	_, _ = c.Check(schema.Advisory)
	return c
}

// Read loads a file.
func Read(path string, opts textfmt.DecodeOptions) (*Container, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return decode(raw, path, opts)
}

// Decode loads the content of r. source is recorded as the container's
// Source.
func Decode(r io.Reader, source string, opts textfmt.DecodeOptions) (*Container, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", describeSource(source), err)
	}
	return decode(raw, source, opts)
}

func decode(raw []byte, source string, opts textfmt.DecodeOptions) (*Container, error) {
	doc, err := textfmt.Decode(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", describeSource(source), err)
	}
	return New(doc.Data, doc.Schema, doc.Meta, source), nil
}

// Write reconciles the schema with the data, then writes the file.
//
// The file is created or truncated only once the content is fully encoded,
// but it is written in place: an interrupted write leaves a partial file.
func (c *Container) Write(path string, opts WriteOptions) error {
	raw, err := c.encode("write", opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := f.Write(raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// Encode reconciles the schema with the data, then writes the file content
// to w.
func (c *Container) Encode(w io.Writer, opts WriteOptions) error {
	raw, err := c.encode("encode", opts)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

func (c *Container) encode(op string, opts WriteOptions) ([]byte, error) {
	if c.Data == nil {
		return nil, &StateError{Op: op, Err: ErrNoData}
	}
	if opts.KeepSchema {
		if _, err := c.Check(schema.Strict); err != nil {
			return nil, err
		}
	} else if _, err := c.UpdateSchema(schema.Strict); err != nil {
		return nil, err
	}
	doc := &textfmt.Document{Meta: c.Meta, Schema: c.Schema, Data: c.Data}
	return textfmt.Encode(doc, textfmt.EncodeOptions{Preamble: opts.Preamble})
}

// Check reports whether the schema describes the data. See schema.Check.
func (c *Container) Check(mode schema.Mode) (bool, error) {
	_, err := schema.Check(c.Schema, c.Data, schema.Strict)
	if err == nil {
		return true, nil
	}
	if mode == schema.Strict {
		return false, err
	}
	slog.Warn("Schema and data are inconsistent", "source", describeSource(c.Source), "reason", err.Error())
	return false, nil
}

// UpdateSchema replaces the schema with one whose dtypes reflect the data.
// Without data the schema is cleared. When the labels differ the schema is
// left untouched and the mismatch is reported per mode.
func (c *Container) UpdateSchema(mode schema.Mode) (bool, error) {
	s, err := schema.Update(c.Schema, c.Data, schema.Strict)
	if err != nil {
		if mode == schema.Strict {
			return false, err
		}
		slog.Warn("Schema not updated", "source", describeSource(c.Source), "reason", err.Error())
		return false, nil
	}
	c.Schema = s
	return true, nil
}

// NumColumns returns the number of data columns including the index, or 0
// without data.
func (c *Container) NumColumns() int {
	if c.Data == nil {
		return 0
	}
	return len(c.Data.Columns) + 1
}

func (c *Container) String() string {
	return fmt.Sprintf("DataPlusMeta object with %d data columns from %s.", c.NumColumns(), describeSource(c.Source))
}

func describeSource(source string) string {
	if source == "" {
		return "unknown source"
	}
	return source
}
