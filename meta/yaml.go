package meta

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML document. Map key order is preserved. An empty
// document, or one holding only comments, is an empty map.
func Parse(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Map(), nil
	}
	return fromNode(&doc)
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Map(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		items := make([]Value, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Value{kind: KindSeq, items: items}, nil
	case yaml.MappingNode:
		out := Value{kind: KindMap, entries: make([]Entry, 0, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: map keys must be scalars", k.Line)
			}
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			if tag := k.ShortTag(); tag != "!!str" {
				if out.keyTags == nil {
					out.keyTags = make(map[string]string)
				}
				out.keyTags[k.Value] = tag
			}
			out.entries = append(out.entries, Entry{Key: k.Value, Value: v})
		}
		return out, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return Value{}, fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
	}
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		// Out of int64 range.
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case "!!str":
		return String(n.Value), nil
	default:
		// !!timestamp, !!binary and custom tags keep their text and tag.
		return Value{kind: KindString, s: n.Value, tag: n.ShortTag()}, nil
	}
}

// Dump encodes v as a YAML document with a trailing newline.
//
// Nested collections holding only scalars are written in flow style
// ("[a, b]", "{x: 1}") to keep files compact and diff friendly.
func Dump(v Value) ([]byte, error) {
	n, err := toNode(v)
	if err != nil {
		return nil, err
	}
	// The top level always uses block style for readability.
	n.Style = 0
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNode(v Value) (*yaml.Node, error) {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}, nil
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}, nil
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(v.f)}, nil
	case KindString:
		return scalarNode(v.s, v.tag)
	case KindSeq:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			c, err := toNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		setFlow(n, n.Content)
		return n, nil
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		values := make([]*yaml.Node, 0, len(v.entries))
		for _, e := range v.entries {
			k, err := scalarNode(e.Key, v.keyTags[e.Key])
			if err != nil {
				return nil, err
			}
			c, err := toNode(e.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, k, c)
			values = append(values, c)
		}
		setFlow(n, values)
		return n, nil
	default:
		return nil, fmt.Errorf("unknown metadata kind %s", v.kind)
	}
}

// scalarNode returns the node of a string. A non-empty tag is kept so the
// encoder writes the text plain when it resolves to that tag.
func scalarNode(s, tag string) (*yaml.Node, error) {
	if tag != "" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(s); err != nil {
		return nil, err
	}
	return n, nil
}

// setFlow selects flow style for non-empty collections of scalars. Empty
// collections are always written "[]" or "{}" by the encoder.
func setFlow(n *yaml.Node, children []*yaml.Node) {
	if len(children) == 0 {
		n.Style = yaml.FlowStyle
		return
	}
	for _, c := range children {
		if c.Kind != yaml.ScalarNode || strings.Contains(c.Value, "\n") {
			return
		}
	}
	n.Style = yaml.FlowStyle
}

// formatFloat keeps a fractional part or exponent so the scalar reads back
// as a float, and uses the YAML spelling of special values.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
