// Package tokenize converts raw input documents into token streams for
// matching. Every adapter produces []any with one normalization rule:
// anything that parses as a number becomes float64, everything else stays a
// string. Pattern literals follow the same rule, so "7" in a whitespace
// field, 7 in a JSON array, and lit(7) in a pattern all meet in the middle.
package tokenize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/Cadence/core/errors"
)

// Scalar normalizes one textual value: numeric strings become float64,
// everything else passes through unchanged.
func Scalar(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Fields splits s on whitespace and normalizes each field.
func Fields(s string) []any {
	fields := strings.Fields(s)
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = Scalar(f)
	}
	return out
}

// Lines splits s into lines and normalizes each one. Blank lines are
// dropped; surrounding whitespace is trimmed.
func Lines(s string) []any {
	var out []any
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, Scalar(line))
	}
	return out
}

// JSONArray decodes data as a JSON array of scalars. JSON numbers decode to
// float64 already, so no further normalization is needed. Nested arrays and
// objects are rejected: a token must be a single comparable value.
func JSONArray(data []byte) ([]any, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &errors.ParseError{Format: "JSON", Message: err.Error(), Err: err}
	}
	for i, v := range raw {
		switch v.(type) {
		case nil, bool, float64, string:
		default:
			return nil, errors.NewValidation("tokens",
				"element "+strconv.Itoa(i)+" is not a scalar")
		}
	}
	return raw, nil
}

// XMLNames parses data as XML and returns the element names in document
// order, one token per element.
func XMLNames(data []byte) ([]any, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Message: err.Error(), Err: err}
	}
	var out []any
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode {
			out = append(out, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out, nil
}

// XMLText parses data as XML, evaluates the XPath expression expr, and
// returns the normalized inner text of each selected node.
func XMLText(data []byte, expr string) ([]any, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, &errors.ParseError{Format: "xpath", Source: expr, Message: err.Error(), Err: err}
	}

	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Message: err.Error(), Err: err}
	}

	nodes, err := xmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, &errors.ParseError{Format: "xpath", Source: expr, Message: err.Error(), Err: err}
	}

	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = Scalar(strings.TrimSpace(n.InnerText()))
	}
	return out, nil
}
