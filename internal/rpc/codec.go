package rpc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Sentinel terminates every frame. It cannot occur in base64 output.
var Sentinel = []byte("<END>")

// Codec converts values to and from the wire form
// base64(zstd(json(v))) followed by Sentinel. Encoders and decoders are
// safe for concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec builds a codec compressing at the given zstd level (1-22).
func NewCodec(level int) (*Codec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Encode returns the framed bytes of v, sentinel included.
func (c *Codec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	raw := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	compressed := c.enc.EncodeAll(raw, nil)

	frame := make([]byte, base64.StdEncoding.EncodedLen(len(compressed)), base64.StdEncoding.EncodedLen(len(compressed))+len(Sentinel))
	base64.StdEncoding.Encode(frame, compressed)
	return append(frame, Sentinel...), nil
}

// Decode reverses Encode for a payload with the sentinel already stripped.
func (c *Codec) Decode(payload []byte, v any) error {
	compressed := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(compressed, payload)
	if err != nil {
		return fmt.Errorf("decode base64: %w", err)
	}

	raw, err := c.dec.DecodeAll(compressed[:n], nil)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	// Numbers stay json.Number so integers beyond 2^53 survive.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decode json: trailing data after value")
	}
	return nil
}

// Close releases the encoder's and decoder's resources.
func (c *Codec) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}
