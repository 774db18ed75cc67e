package dialect

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	opts := testOptions()
	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{name: "integer epoch", value: json.Number("1700000000"), want: time.Unix(1700000000, 0).UTC()},
		{name: "float epoch", value: 1700000000.25, want: time.Unix(1700000000, 250000000).UTC()},
		{name: "numeric string", value: "1700000000", want: time.Unix(1700000000, 0).UTC()},
		{name: "zulu", value: "2024-01-02T03:04:05Z", want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "offset", value: "2024-01-02T03:04:05+01:00", want: time.Date(2024, 1, 2, 2, 4, 5, 0, time.UTC)},
		{name: "naive", value: "2024-01-02T03:04:05", want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "space separated", value: "2024-01-02 03:04:05", want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "date only", value: "2024-01-02", want: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := opts.parseTime(tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := opts.parseTime("next tuesday")
	assert.Error(t, err)
	_, err = opts.parseTime(map[string]any{})
	assert.Error(t, err)
}

func TestDecodeBlob(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []byte
		wantErr bool
	}{
		{name: "nil", value: nil, want: []byte{}},
		{name: "base64", value: "aGVsbG8gd29ybGQ=", want: []byte("hello world")},
		{name: "plain text", value: "hello world", want: []byte("hello world")},
		{name: "padded text keeps whitespace", value: " hi there ", want: []byte(" hi there ")},
		{name: "byte array", value: []any{json.Number("104"), json.Number("105")}, want: []byte("hi")},
		{name: "byte out of range", value: []any{json.Number("256")}, wantErr: true},
		{name: "object", value: map[string]any{"a": 1}, wantErr: true},
		{name: "number", value: json.Number("12"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBlob(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRole(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: "human", want: "user"},
		{in: "HUMAN", want: "user"},
		{in: "model", want: "assistant"},
		{in: "AI", want: "assistant"},
		{in: "computer", want: "assistant"},
		{in: "developer", want: "system"},
		{in: map[string]any{"role": "assistant"}, want: "assistant"},
		{in: nil, want: "user"},
		{in: "tool", want: "tool"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveRole(tt.in, roleRemap), "%v", tt.in)
	}
}

func TestResolveContent(t *testing.T) {
	assert.Equal(t, "", resolveContent(nil))
	assert.Equal(t, "plain", resolveContent("plain"))
	assert.Equal(t, "a\nb", resolveContent(map[string]any{"parts": []any{"a", "", "b"}}))
	assert.Equal(t, "x\ny", resolveContent([]any{map[string]any{"text": "x"}, "y"}))
	assert.Equal(t, "inner", resolveContent(map[string]any{"text": "inner"}))
	assert.Equal(t, "42", resolveContent(json.Number("42")))
}
