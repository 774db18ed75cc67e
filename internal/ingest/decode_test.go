package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	doc, err := decodePayload([]byte(`{"create_time": 1700000000.5}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1700000000.5"), doc["create_time"])

	doc, err = decodePayload([]byte("\xEF\xBB\xBF[{\"id\": \"a\"}]"))
	require.NoError(t, err)
	convs, ok := doc["conversations"].([]any)
	require.True(t, ok)
	assert.Len(t, convs, 1)

	for _, raw := range []string{
		``,
		`not json`,
		`"a string"`,
		`{"a": 1} {"b": 2}`,
		"{\"a\": \"\xff\"}",
	} {
		_, err := decodePayload([]byte(raw))
		assert.ErrorIs(t, err, ErrDecode, raw)
	}
}
