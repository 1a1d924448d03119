package rpc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawling_observer/internal/domain"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(9)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	tests := []struct {
		name string
		env  domain.Envelope
	}{
		{"empty objects", domain.Envelope{Header: map[string]any{}, Body: map[string]any{}}},
		{"null body", domain.Envelope{Header: map[string]any{"type": "ping"}}},
		{"unicode", domain.Envelope{
			Header: map[string]any{"status": "success"},
			Body:   map[string]any{"message": "삼성전자 실적 발표 📈", "quote": "<b>&</b>"},
		}},
		{"nested", domain.Envelope{
			Header: map[string]any{"request_id": "4f1c", "sent_at": "2025-01-06T14:00:00Z"},
			Body: map[string]any{
				"item": map[string]any{
					"tag":  "AAPL",
					"data": map[string]any{"news_data": "Apple beats", "history": []any{json.Number("1.5"), nil, true, "x"}},
				},
			},
		}},
		{"large integers", domain.Envelope{
			Header: map[string]any{"id": json.Number("9007199254740993")},
			Body:   map[string]any{"v": json.Number("12345678901234567890"), "f": json.Number("0.1")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := c.Encode(&tt.env)
			require.NoError(t, err)
			require.True(t, bytes.HasSuffix(frame, Sentinel))

			payload := bytes.TrimSuffix(frame, Sentinel)
			assert.NotContains(t, string(payload), string(Sentinel))

			var got domain.Envelope
			require.NoError(t, c.Decode(payload, &got))
			assert.Equal(t, tt.env, got)
		})
	}
}

func TestCodec_DecodeErrors(t *testing.T) {
	c := newTestCodec(t)
	var env domain.Envelope

	err := c.Decode([]byte("not base64!"), &env)
	assert.ErrorContains(t, err, "decode base64")

	err = c.Decode([]byte("aGVsbG8="), &env)
	assert.ErrorContains(t, err, "decompress")

	trailing := base64.StdEncoding.EncodeToString(c.enc.EncodeAll([]byte(`{"header":{}} {}`), nil))
	err = c.Decode([]byte(trailing), &env)
	assert.ErrorContains(t, err, "trailing data")
}

func TestCodec_DecodeKeepsIntegerPrecision(t *testing.T) {
	c := newTestCodec(t)

	frame, err := c.Encode(map[string]any{
		"header": map[string]any{"id": uint64(9007199254740993)},
		"body":   map[string]any{"v": uint64(12345678901234567890)},
	})
	require.NoError(t, err)

	var got domain.Envelope
	require.NoError(t, c.Decode(bytes.TrimSuffix(frame, Sentinel), &got))
	assert.Equal(t, json.Number("9007199254740993"), got.Header["id"])
	body, ok := got.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("12345678901234567890"), body["v"])
}

func TestCodec_Close(t *testing.T) {
	c, err := NewCodec(3)
	require.NoError(t, err)
	c.Close()

	_, err = c.dec.DecodeAll([]byte{}, nil)
	assert.Error(t, err)
}

func TestCodec_CompressesRepetitivePayloads(t *testing.T) {
	c := newTestCodec(t)

	body := bytes.Repeat([]byte("revenue grew "), 500)
	frame, err := c.Encode(domain.Envelope{Body: string(body)})
	require.NoError(t, err)

	assert.Less(t, len(frame), len(body)/4)
}
