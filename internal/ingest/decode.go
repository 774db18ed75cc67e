package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrDecode is returned when a payload is not a UTF-8 JSON object or array.
var ErrDecode = errors.New("unable to decode payload")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodePayload parses raw into a JSON object. A top-level array is taken to
// be the conversation list. Numbers are kept as json.Number.
func decodePayload(raw []byte) (map[string]any, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrDecode)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after JSON value", ErrDecode)
	}

	switch doc := v.(type) {
	case map[string]any:
		return doc, nil
	case []any:
		return map[string]any{"conversations": doc}, nil
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array, got %T", ErrDecode, v)
	}
}
