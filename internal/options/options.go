// Package options holds the user-editable minifier options document.
//
// A Document keeps the raw text exactly as typed next to the last value that
// parsed successfully. A failed parse never replaces that value; it only sets
// the document's error, so evaluations keep running against the last valid
// options while the user fixes the text.
package options

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/mitchellh/copystructure"

	"github.com/conneroisu/minplay/internal/errors"
)

// Value is a parsed options document: a JSON object.
type Value map[string]any

// DefaultText is the options document a new session starts with.
const DefaultText = `{
  "compress": true,
  "ecma": 2020,
  "keep_names": false,
  "mangle": true,
  "module": false,
  "output": {
    "comments": false
  }
}`

// Outcome reports the result of SetText.
type Outcome struct {
	OK  bool
	Err error
}

// Document is safe for concurrent use.
type Document struct {
	mu     sync.RWMutex
	text   string
	parsed Value
	err    error
}

// NewDocument creates a document from initial text, which must parse.
func NewDocument(initial string) (*Document, error) {
	v, err := Parse(initial)
	if err != nil {
		return nil, err
	}
	return &Document{text: initial, parsed: v}, nil
}

// Default returns a document holding DefaultText.
func Default() *Document {
	d, err := NewDocument(DefaultText)
	if err != nil {
		panic(fmt.Sprintf("options: default document does not parse: %v", err))
	}
	return d
}

// SetText records text and, if it parses, replaces the parsed value.
func (d *Document) SetText(text string) Outcome {
	v, err := Parse(text)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.text = text
	if err != nil {
		d.err = err
		return Outcome{Err: err}
	}
	d.parsed = v
	d.err = nil
	return Outcome{OK: true}
}

// Text returns the raw text as last set.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Err returns the parse error of the most recent SetText, or nil.
func (d *Document) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// Snapshot returns a deep copy of the parsed value that shares nothing
// with the document.
func (d *Document) Snapshot() (Value, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Clone(d.parsed)
}

// Pretty renders the parsed value with two-space indentation.
func (d *Document) Pretty() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Pretty(d.parsed)
}

// Clone deep-copies v.
func Clone(v Value) (Value, error) {
	if v == nil {
		return Value{}, nil
	}
	c, err := copystructure.Copy(v)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeSnapshotFailed, "copying options", err)
	}
	return c.(Value), nil
}

// Pretty renders v as indented JSON. Map keys come out sorted.
func Pretty(v Value) string {
	if v == nil {
		v = Value{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// Values produced by Parse always encode.
		return "{}"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// Parse decodes text into an options Value. The error is an options
// PlaygroundError whose cause is a located Diagnostic.
func Parse(text string) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, describe(text, err)
	}
	if _, err := dec.Token(); !stderrors.Is(err, io.EOF) {
		line, col := errors.LineColumn(text, int(dec.InputOffset()))
		return nil, optionsError(errors.NewDiagnostic("unexpected data after top-level value", line, col))
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, optionsError(errors.NewDiagnostic(
			fmt.Sprintf("options must be a JSON object, got %s", kind(raw)), 1, 1))
	}
	return normalize(obj), nil
}

func optionsError(d *errors.Diagnostic) error {
	return errors.NewOptionsError("invalid options document", d).WithLocation("", d.Line, d.Column)
}

func describe(text string, err error) error {
	var syntax *json.SyntaxError
	switch {
	case stderrors.As(err, &syntax):
		line, col := errors.LineColumn(text, int(syntax.Offset))
		return optionsError(errors.NewDiagnostic(syntax.Error(), line, col))
	case stderrors.Is(err, io.EOF):
		return optionsError(errors.NewDiagnostic("options document is empty", 1, 1))
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		line, col := errors.LineColumn(text, len(text))
		return optionsError(errors.NewDiagnostic("unexpected end of JSON input", line, col))
	default:
		return optionsError(errors.NewDiagnostic(err.Error(), 0, 0))
	}
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// normalize turns json.Number into int64 when integral and float64 otherwise,
// so "1" and "1.0" decode to the same Value.
func normalize(v map[string]any) Value {
	out := make(Value, len(v))
	for k, val := range v {
		out[k] = normalizeAny(val)
	}
	return out
}

func normalizeAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(normalize(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeAny(e)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil {
			// Out of float64 range; keep the literal.
			return t
		}
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f)
		}
		return f
	default:
		return v
	}
}
