package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		DocumentID string `json:"documentId"`
		Text       string `json:"text"`
	}

	got, err := DecodeJSON[payload]([]byte(`{"documentId":"doc-1","text":"hello world"}`))
	require.NoError(t, err)
	assert.Equal(t, payload{DocumentID: "doc-1", Text: "hello world"}, got)

	_, err = DecodeJSON[payload]([]byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode message")
}
