package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/maruel/dataplusmeta"
	"github.com/maruel/dataplusmeta/schema"
	"github.com/maruel/dataplusmeta/textfmt"
)

// defaultPreambleName selects textfmt.DefaultPreamble in -preamble.
const defaultPreambleName = "default"

var errFailed = errors.New("some files failed")

type cli struct {
	stdout io.Writer
	stderr io.Writer
	env    map[string]string
}

func (c *cli) flagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(c.stderr, "usage: dpm %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func decodeFlags(fs *flag.FlagSet) *textfmt.DecodeOptions {
	opts := &textfmt.DecodeOptions{}
	fs.BoolVar(&opts.IgnoreDTypes, "ignore-dtypes", false, "Infer column types instead of using the schema dtypes")
	return opts
}

func (c *cli) check(args []string) error {
	fs := c.flagSet("check", "<file>...")
	strict := fs.Bool("strict", false, "Fail when a schema does not describe its data")
	opts := decodeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	failed := 0
	for _, path := range fs.Args() {
		if !c.checkFile(path, *opts, *strict) {
			failed++
		}
	}
	if failed != 0 {
		return fmt.Errorf("%w: %d of %d", errFailed, failed, fs.NArg())
	}
	return nil
}

// checkFile prints the state of one file and reports whether it passed.
// An inconsistent file only fails in strict mode.
func (c *cli) checkFile(path string, opts textfmt.DecodeOptions, strict bool) bool {
	d, err := dataplusmeta.Read(path, opts)
	if err != nil {
		_, _ = fmt.Fprintf(c.stdout, "%s: %v\n", path, err)
		return false
	}
	if _, err := d.Check(schema.Strict); err != nil {
		_, _ = fmt.Fprintf(c.stdout, "%s: %v\n", path, err)
		return !strict
	}
	_, _ = fmt.Fprintf(c.stdout, "%s: ok\n", path)
	return true
}

// summary is the JSON form of describe.
type summary struct {
	Source     string          `json:"source"`
	Rows       int             `json:"rows"`
	Consistent bool            `json:"consistent"`
	Problem    string          `json:"problem,omitempty"`
	Columns    []columnSummary `json:"columns"`
	Metadata   any             `json:"metadata"`
}

type columnSummary struct {
	Label string            `json:"label"`
	DType string            `json:"dtype"`
	Nulls int               `json:"nulls"`
	Info  map[string]string `json:"info,omitempty"`
}

func summarize(d *dataplusmeta.Container) *summary {
	s := &summary{Source: d.Source, Metadata: d.Meta.Any()}
	if _, err := d.Check(schema.Strict); err != nil {
		s.Problem = err.Error()
	} else {
		s.Consistent = true
	}
	if d.Data == nil {
		return s
	}
	s.Rows = d.Data.Len()
	for _, label := range d.Data.Labels() {
		col, _ := d.Data.Column(label)
		cs := columnSummary{Label: label, DType: string(col.DType)}
		for _, v := range col.Values {
			if v.IsNull() {
				cs.Nulls++
			}
		}
		if d.Schema != nil {
			for _, field := range d.Schema.Fields {
				if field == schema.DTypeField {
					continue
				}
				if v, ok := d.Schema.Get(label, field); ok && v != "" {
					if cs.Info == nil {
						cs.Info = map[string]string{}
					}
					cs.Info[field] = v
				}
			}
		}
		s.Columns = append(s.Columns, cs)
	}
	return s
}

func (c *cli) describe(args []string) error {
	fs := c.flagSet("describe", "<file>...")
	asJSON := fs.Bool("json", false, "Print a JSON object per file")
	opts := decodeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	for _, path := range fs.Args() {
		d, err := dataplusmeta.Read(path, *opts)
		if err != nil {
			return err
		}
		s := summarize(d)
		if *asJSON {
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(s); err != nil {
				return err
			}
			continue
		}
		_, _ = fmt.Fprintln(c.stdout, d)
		w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "  rows:\t%d\n", s.Rows)
		_, _ = fmt.Fprintf(w, "  metadata:\t%s\n", strings.Join(d.Meta.Keys(), ", "))
		if s.Problem != "" {
			_, _ = fmt.Fprintf(w, "  problem:\t%s\n", s.Problem)
		}
		for _, col := range s.Columns {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%d nulls\n", col.Label, col.DType, col.Nulls)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) rewrite(args []string) error {
	fs := c.flagSet("rewrite", "<file>")
	out := fs.String("o", "", "Output path; defaults to rewriting the input in place")
	preamble := fs.String("preamble", "", `Comment written at the top of the file; "`+defaultPreambleName+`" selects the standard explanation`)
	keep := fs.Bool("keep-schema", false, "Write the schema as is; fail if it does not describe the data")
	opts := decodeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["preamble"] {
		if v := c.env["DPM_PREAMBLE"]; v != "" {
			*preamble = v
		}
	}
	if *preamble == defaultPreambleName {
		*preamble = textfmt.DefaultPreamble
	}
	in := fs.Arg(0)
	if *out == "" {
		*out = in
	}
	d, err := dataplusmeta.Read(in, *opts)
	if err != nil {
		return err
	}
	return d.Write(*out, dataplusmeta.WriteOptions{KeepSchema: *keep, Preamble: *preamble})
}

func (c *cli) jsonSchema(args []string) error {
	fs := c.flagSet("jsonschema", "<file>")
	title := fs.String("title", "", "Schema title; defaults to the file name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	path := fs.Arg(0)
	d, err := dataplusmeta.Read(path, textfmt.DecodeOptions{})
	if err != nil {
		return err
	}
	if d.Schema == nil {
		return &dataplusmeta.StateError{Op: "jsonschema", Err: schema.ErrMissing}
	}
	if *title == "" {
		*title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(d.Schema.JSONSchema(*title))
}
