package textfmt

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maruel/dataplusmeta/frame"
	"github.com/maruel/dataplusmeta/meta"
	"github.com/maruel/dataplusmeta/schema"
)

const powerFile = BOM + `site: A
elevation: 10


column,dtype

timestamp,datetime64[ns]
power,float64


timestamp,power

2024-01-01 00:00:00,100.5
2024-01-01 01:00:00,102.25
`

func powerDoc(t *testing.T) *Document {
	t.Helper()
	f, err := frame.New(
		frame.NewColumn("timestamp", frame.KindTime,
			frame.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			frame.Time(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))),
		frame.NewColumn("power", frame.KindFloat, frame.Float(100.5), frame.Float(102.25)),
	)
	if err != nil {
		t.Fatal(err)
	}
	return &Document{
		Meta:   meta.Map(meta.Entry{Key: "site", Value: meta.String("A")}, meta.Entry{Key: "elevation", Value: meta.Int(10)}),
		Schema: schema.FromFrame(f),
		Data:   f,
	}
}

func assertDocEqual(t *testing.T, got, want *Document) {
	t.Helper()
	if !got.Meta.Equal(want.Meta) {
		t.Errorf("Meta = %#v, want %#v", got.Meta, want.Meta)
	}
	if !got.Schema.Equal(want.Schema) {
		t.Errorf("Schema = %+v, want %+v", got.Schema, want.Schema)
	}
	if !got.Data.Equal(want.Data) {
		t.Errorf("Data = %+v, want %+v", got.Data, want.Data)
	}
}

func TestEncode(t *testing.T) {
	t.Run("end to end", func(t *testing.T) {
		doc := powerDoc(t)
		got, err := Encode(doc, EncodeOptions{})
		if err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
		if string(got) != powerFile {
			t.Fatalf("Encode() =\n%q\nwant\n%q", got, powerFile)
		}
		if !strings.Contains(string(got), "column,dtype\n\ntimestamp,datetime64[ns]\npower,float64\n") {
			t.Error("schema section is not laid out as header, blank line, body")
		}
		back, err := Decode(got, DecodeOptions{})
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		assertDocEqual(t, back, doc)
	})

	t.Run("preamble", func(t *testing.T) {
		got, err := Encode(powerDoc(t), EncodeOptions{Preamble: DefaultPreamble})
		if err != nil {
			t.Fatal(err)
		}
		want := BOM + "# This file contains three sections separated by two blank lines.\n"
		if !strings.HasPrefix(string(got), want) {
			t.Errorf("Encode() = %q", got)
		}
		if !strings.Contains(string(got), "# and data respectively, both formatted as csv tables.\n\nsite: A\n") {
			t.Errorf("preamble is not followed by one blank line: %q", got)
		}
		back, err := Decode(got, DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		assertDocEqual(t, back, powerDoc(t))
	})

	t.Run("defaults names on copies", func(t *testing.T) {
		doc := powerDoc(t)
		doc.Schema.Name = ""
		doc.Data.Index.Name = ""
		doc.Schema.Rows[0].Label = "index"
		got, err := Encode(doc, EncodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(got), "\ncolumn,dtype\n") || !strings.Contains(string(got), "\nindex,power\n") {
			t.Errorf("Encode() = %q", got)
		}
		if doc.Schema.Name != "" || doc.Data.Index.Name != "" {
			t.Error("Encode() modified its input")
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(d *Document)
			want   error
		}{
			{"no data", func(d *Document) { d.Data = nil }, ErrNoData},
			{"no schema", func(d *Document) { d.Schema = nil }, schema.ErrMissing},
			{"stale dtype", func(d *Document) { d.Schema.Rows[1].Values[0] = "int64" }, schema.ErrDTypeMismatch},
			{"sub-second", func(d *Document) {
				d.Data.Index.Values[1] = frame.Time(time.Date(2024, 1, 1, 1, 0, 0, 5e8, time.UTC))
			}, frame.ErrSubSecond},
			{"separator in metadata", func(d *Document) {
				d.Meta = d.Meta.With("notes", meta.String("a\n\n\nb"))
			}, ErrSeparatorInContent},
			{"separator in schema", func(d *Document) {
				d.Schema.Fields = append(d.Schema.Fields, "note")
				d.Schema.Rows[0].Values = append(d.Schema.Rows[0].Values, "x\n\n\ny")
				d.Schema.Rows[1].Values = append(d.Schema.Rows[1].Values, "")
			}, ErrSeparatorInContent},
			{"separator in data", func(d *Document) {
				d.Data.Columns = append(d.Data.Columns, frame.NewColumn("note", frame.KindString, frame.Str("x\n\n\n"), frame.Null()))
				d.Schema = schema.FromFrame(d.Data)
			}, ErrSeparatorInContent},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				doc := powerDoc(t)
				tt.modify(doc)
				if _, err := Encode(doc, EncodeOptions{}); !errors.Is(err, tt.want) {
					t.Errorf("Encode() error = %v, want %v", err, tt.want)
				}
			})
		}
	})
}

func TestRoundTrip(t *testing.T) {
	f, err := frame.New(
		frame.NewColumn("id", frame.KindInt, frame.Int(1), frame.Int(2), frame.Int(3), frame.Int(4)),
		frame.NewColumn("name", frame.KindString, frame.Str("plain"), frame.Str("a, b"), frame.Str(`say "hi"`), frame.Null()),
		frame.NewColumn("padded", frame.KindString, frame.Str(" lead"), frame.Str("trail "), frame.Str("multi\nline"), frame.Str("#not a comment")),
		frame.NewColumn("ratio", frame.KindFloat, frame.Float(0.1), frame.Float(1), frame.Null(), frame.Float(1e-300)),
		frame.NewColumn("count", frame.KindInt, frame.Int(-9007199254740993), frame.Null(), frame.Int(0), frame.Int(7)),
		frame.NewColumn("flag", frame.KindBool, frame.Bool(true), frame.Bool(false), frame.Null(), frame.Bool(true)),
		frame.NewColumn("price", frame.KindDecimal,
			frame.Decimal(decimal.RequireFromString("0.10")),
			frame.Decimal(decimal.RequireFromString("123456789012345678901234567890.5")),
			frame.Null(),
			frame.Decimal(decimal.RequireFromString("-3"))),
	)
	if err != nil {
		t.Fatal(err)
	}
	f.Columns[4].DType = "Int64"
	s := schema.FromFrame(f)
	s.Fields = append(s.Fields, "units", "description")
	for i := range s.Rows {
		s.Rows[i].Values = append(s.Rows[i].Values, "", "")
	}
	s.Rows[3].Values[1] = "W/m2"
	s.Rows[1].Values[2] = "Name, with comma"
	m := meta.Map(
		meta.Entry{Key: "title", Value: meta.String("Round trip")},
		meta.Entry{Key: "tags", Value: meta.Seq(meta.String("x"), meta.Int(2))},
		meta.Entry{Key: "owner", Value: meta.Map(meta.Entry{Key: "name", Value: meta.String("lab")})},
	)
	doc := &Document{Meta: m, Schema: s, Data: f}

	text, err := Encode(doc, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	got, err := Decode(text, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error: %v\n%s", err, text)
	}
	assertDocEqual(t, got, doc)

	again, err := Encode(got, EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, text) {
		t.Errorf("second encode differs:\n%q\n%q", again, text)
	}

	t.Run("local time", func(t *testing.T) {
		cet := time.FixedZone("CET", 3600)
		f, err := frame.New(
			frame.NewColumn("timestamp", frame.KindTime, frame.Time(time.Date(2024, 1, 15, 13, 45, 0, 0, cet))),
			frame.NewColumn("power", frame.KindFloat, frame.Float(1)),
		)
		if err != nil {
			t.Fatal(err)
		}
		doc := &Document{Meta: meta.Map(), Schema: schema.FromFrame(f), Data: f}
		text, err := Encode(doc, EncodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(text, []byte("\n2024-01-15 13:45:00,1.0\n")) {
			t.Errorf("Encode() = %q", text)
		}
		got, err := Decode(text, DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		assertDocEqual(t, got, doc)
	})
}

func TestDecode(t *testing.T) {
	t.Run("BOM is optional", func(t *testing.T) {
		with, err := Decode([]byte(powerFile), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		without, err := Decode([]byte(strings.TrimPrefix(powerFile, BOM)), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		assertDocEqual(t, without, with)
	})

	t.Run("comments and blanks", func(t *testing.T) {
		in := "# preamble\n\na: 1\n\n\n# schema comment\n  column , dtype \n\n a , int64 \nb,object\n\n\na,b\n# data comment\n\n 1, x\n2,#y\n"
		doc, err := Decode([]byte(in), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if doc.Schema.Name != "column" || doc.Schema.Fields[0] != "dtype" || doc.Schema.Rows[0].Label != "a" {
			t.Errorf("Schema = %+v", doc.Schema)
		}
		if dt, _ := doc.Schema.DType("a"); dt != frame.DTypeInt64 {
			t.Errorf("DType(a) = %q", dt)
		}
		want := []frame.Value{frame.Str("x"), frame.Str("#y")}
		for i, v := range want {
			if got := doc.Data.Columns[0].Values[i]; !got.Equal(v) {
				t.Errorf("b[%d] = %v, want %v", i, got, v)
			}
		}
		if got := doc.Data.Index.Values[0]; !got.Equal(frame.Int(1)) {
			t.Errorf("a[0] = %v", got)
		}
	})

	t.Run("empty metadata", func(t *testing.T) {
		doc, err := Decode([]byte("\n\n\nc,dtype\n\nx,int64\n\n\nx\n\n1\n"), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if doc.Meta.Kind() != meta.KindMap || doc.Meta.Len() != 0 {
			t.Errorf("Meta = %#v", doc.Meta)
		}
	})

	t.Run("unnamed index inherits schema label", func(t *testing.T) {
		in := "{}\n\n\ncolumn,dtype\n\ntimestamp,datetime64[ns]\npower,float64\n\n\n,power\n\n2024-01-01 00:00:00,1.0\n"
		doc, err := Decode([]byte(in), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if doc.Data.Index.Name != "timestamp" || doc.Data.Index.DType != frame.DTypeDateTime {
			t.Errorf("Index = %+v", doc.Data.Index)
		}
		if ok, err := schema.Check(doc.Schema, doc.Data, schema.Strict); !ok {
			t.Error(err)
		}
	})

	t.Run("CRLF line endings", func(t *testing.T) {
		want, err := Decode([]byte(powerFile), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		got, err := Decode([]byte(strings.ReplaceAll(powerFile, "\n", "\r\n")), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		assertDocEqual(t, got, want)
	})

	t.Run("integers beyond int64 keep their digits", func(t *testing.T) {
		in := "a: 1\n\n\ncolumn,units\n\nn,\nv,\n\n\nn,v\n\n1,12345678901234567891\n2,-1\n"
		doc, err := Decode([]byte(in), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		v := doc.Data.Columns[0]
		if v.DType != frame.DTypeDecimal || !v.Values[0].Equal(frame.Decimal(decimal.RequireFromString("12345678901234567891"))) {
			t.Errorf("v = %+v", v)
		}
	})

	t.Run("IgnoreDTypes", func(t *testing.T) {
		doc, err := Decode([]byte(powerFile), DecodeOptions{IgnoreDTypes: true})
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.Data.DTypes(); got[0] != frame.DTypeObject || got[1] != frame.DTypeFloat64 {
			t.Errorf("DTypes() = %q", got)
		}
	})

	t.Run("schema without dtypes", func(t *testing.T) {
		in := "a: 1\n\n\ncolumn,units\n\nn,\nv,W\n\n\nn,v\n\n1,2.5\n2,\n"
		doc, err := Decode([]byte(in), DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.Data.DTypes(); got[0] != frame.DTypeInt64 || got[1] != frame.DTypeFloat64 {
			t.Errorf("DTypes() = %q", got)
		}
		if !doc.Data.Columns[0].Values[1].IsNull() {
			t.Error("empty field is not null")
		}
		if _, err := schema.Check(doc.Schema, doc.Data, schema.Strict); !errors.Is(err, schema.ErrNoDTypes) {
			t.Errorf("Check() = %v", err)
		}
	})

	t.Run("errors", func(t *testing.T) {
		valid := strings.TrimPrefix(powerFile, BOM)
		tests := []struct {
			name    string
			in      string
			section Section
			want    error
		}{
			{"two sections", "column,dtype\n\nx,int64\n\n\nx\n\n1\n", SectionFile, ErrSectionCount},
			{"four sections", valid + "\n\n\nmore\n", SectionFile, ErrSectionCount},
			{"empty", "", SectionFile, ErrSectionCount},
			{"bad yaml", strings.Replace(valid, "site: A", "site: [A", 1), SectionMetadata, ErrMetadata},
			{"schema width", strings.Replace(valid, "power,float64", "power,float64,extra", 1), SectionSchema, ErrRows},
			{"schema missing header", "a: 1\n\n\n# only a comment\n\n\nx\n\n1\n", SectionSchema, ErrRows},
			{"schema duplicate", strings.Replace(valid, "power,float64", "timestamp,float64", 1), SectionSchema, ErrDuplicateLabel},
			{"data width", strings.Replace(valid, "102.25", "102.25,3", 1), SectionData, ErrRows},
			{"data duplicate", strings.Replace(valid, "timestamp,power\n", "timestamp,timestamp\n", 1), SectionData, ErrDuplicateLabel},
			{"bad date", strings.Replace(valid, "2024-01-01 01:00:00", "2024-13-99 00:00:00", 1), SectionData, ErrDateTime},
			{"iso date", strings.Replace(valid, "2024-01-01 01:00:00", "2024-01-01T01:00:00", 1), SectionData, ErrDateTime},
			{"fractional date", strings.Replace(valid, "01:00:00", "01:00:00.5", 1), SectionData, ErrDateTime},
			{"uint64 beyond int64", strings.NewReplacer("power,float64", "power,uint64", "102.25", "18446744073709551615", "100.5", "1").Replace(valid), SectionData, ErrValue},
			{"bad float", strings.Replace(valid, "102.25", "lots", 1), SectionData, ErrValue},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				doc, err := Decode([]byte(tt.in), DecodeOptions{})
				if doc != nil {
					t.Error("Decode() returned a partial document")
				}
				if !errors.Is(err, tt.want) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.want)
				}
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("Decode() error %T is not a *FormatError", err)
				}
				if fe.Section != tt.section {
					t.Errorf("Section = %s, want %s", fe.Section, tt.section)
				}
			})
		}
	})

	t.Run("wrong section count message", func(t *testing.T) {
		_, err := Decode([]byte("a: 1\n"), DecodeOptions{})
		if err == nil || !strings.Contains(err.Error(), "wrong section count") {
			t.Errorf("Decode() error = %v", err)
		}
	})
}

func TestWriteRecord(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"a", "b"}, "a,b\n"},
		{[]string{""}, "\"\"\n"},
		{[]string{"", ""}, ",\n"},
		{[]string{"a,b", `q"q`}, "\"a,b\",\"q\"\"q\"\n"},
		{[]string{"#x", "#y"}, "\"#x\",#y\n"},
		{[]string{" x", "y ", "\tz"}, "\" x\",\"y \",\"\tz\"\n"},
		{[]string{"a\nb"}, "\"a\nb\"\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		writeRecord(&buf, tt.in)
		if got := buf.String(); got != tt.want {
			t.Errorf("writeRecord(%q) = %q, want %q", tt.in, got, tt.want)
		}
		header := strings.TrimSuffix(strings.Repeat("h,", len(tt.in)), ",")
		table, err := readTable(header + "\n" + buf.String())
		if err != nil {
			t.Fatalf("readTable(%q) error: %v", buf.String(), err)
		}
		if len(table.records) != 1 || !slices.Equal(table.records[0], tt.in) {
			t.Errorf("read back %q, want %q", table.records, tt.in)
		}
	}
}
