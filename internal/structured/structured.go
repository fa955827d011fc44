// Package structured decodes model responses that should, but may not,
// contain a JSON payload.
//
// Decoding runs three stages in order:
//
//  1. The whole response parsed as JSON.
//  2. The first fenced JSON block inside the response.
//  3. The whole response wrapped as the schema's prose field.
//
// The outcome is a tagged Result so callers can tell a parsed payload
// from plain text that was kept as-is.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Kind tags how a response was decoded.
type Kind int

const (
	// Failed means no stage produced a usable value.
	Failed Kind = iota

	// Parsed means a JSON payload was found and matched the schema.
	Parsed

	// FallbackWrapped means the raw text was wrapped as the prose field.
	FallbackWrapped
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case FallbackWrapped:
		return "fallback_wrapped"
	default:
		return "failed"
	}
}

var fenced = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ErrSchemaMismatch is returned when JSON was found but does not match the schema.
var ErrSchemaMismatch = errors.New("response does not match schema")

// ErrNoPayload is returned when no stage could decode the response.
var ErrNoPayload = errors.New("no usable payload in response")

// Schema describes the expected payload.
type Schema struct {
	name   string
	prose  string
	schema *gojsonschema.Schema
}

// NewSchema compiles a JSON schema definition.
// proseField names the string property raw text is wrapped into when no
// JSON payload is found; empty disables the wrapping stage.
func NewSchema(name string, definition map[string]any, proseField string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("compiling %s schema: %w", name, err)
	}
	return &Schema{name: name, prose: proseField, schema: compiled}, nil
}

// MustSchema is NewSchema for package-level schemas.
func MustSchema(name string, definition map[string]any, proseField string) *Schema {
	s, err := NewSchema(name, definition, proseField)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Result is the outcome of Decode.
type Result[T any] struct {
	Kind  Kind
	Value T
	Raw   string
	Err   error
}

// OK reports whether Value holds a decoded payload.
func (r Result[T]) OK() bool {
	return r.Kind != Failed
}

// Decode runs the three decoding stages against raw.
func Decode[T any](raw string, s *Schema) Result[T] {
	res := Result[T]{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		res.Err = ErrNoPayload
		return res
	}

	// Stage 1: the whole response, when it is an object or array. Bare
	// scalars fall through and end up wrapped as prose.
	if isContainer(trimmed) && json.Valid([]byte(trimmed)) {
		return decodePayload(s, []byte(trimmed), res)
	}

	// Stage 2: a fenced block.
	if m := fenced.FindStringSubmatch(trimmed); m != nil && json.Valid([]byte(m[1])) {
		return decodePayload(s, []byte(m[1]), res)
	}

	// Stage 3: wrap as prose.
	if s.prose == "" {
		res.Err = ErrNoPayload
		return res
	}
	wrapped, err := json.Marshal(map[string]any{s.prose: trimmed})
	if err != nil {
		res.Err = err
		return res
	}
	if err := json.Unmarshal(wrapped, &res.Value); err != nil {
		res.Err = err
		return res
	}
	res.Kind = FallbackWrapped
	return res
}

func isContainer(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

func decodePayload[T any](s *Schema, payload []byte, res Result[T]) Result[T] {
	verdict, err := s.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		res.Err = fmt.Errorf("validating %s: %w", s.name, err)
		return res
	}
	if !verdict.Valid() {
		var details []string
		for _, desc := range verdict.Errors() {
			details = append(details, desc.String())
		}
		res.Err = fmt.Errorf("%w: %s: %s", ErrSchemaMismatch, s.name, strings.Join(details, "; "))
		return res
	}
	if err := json.Unmarshal(payload, &res.Value); err != nil {
		res.Err = fmt.Errorf("decoding %s: %w", s.name, err)
		return res
	}
	res.Kind = Parsed
	return res
}

// FlexID is an optional integer identifier that models emit as a number,
// a numeric string or null.
type FlexID struct {
	Value *int64
}

// UnmarshalJSON accepts 12, "12", "" and null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		f.Value = nil
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		f.Value = nil
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Non-numeric ids cannot be resolved to an item.
		f.Value = nil
		return nil //nolint:nilerr
	}
	id := int64(n)
	f.Value = &id
	return nil
}

// MarshalJSON writes the id or null.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(*f.Value, 10)), nil
}
