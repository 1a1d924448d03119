package rpc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const readChunkSize = 4096

// ErrFrameTooLarge is returned when no sentinel arrives within the size limit.
var ErrFrameTooLarge = errors.New("frame exceeds size limit")

// FrameReader splits a byte stream into sentinel-terminated frames. Bytes
// following a sentinel are kept for the next call.
type FrameReader struct {
	r       io.Reader
	buf     []byte
	scanned int
	max     int
}

// NewFrameReader reads frames from r. A max of zero or less disables the
// size limit.
func NewFrameReader(r io.Reader, max int) *FrameReader {
	return &FrameReader{r: r, max: max}
}

// ReadFrame returns the next frame without its sentinel. A stream that ends
// before a sentinel yields io.ErrUnexpectedEOF, or io.EOF when nothing was
// buffered.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	chunk := make([]byte, readChunkSize)
	for {
		if frame, ok := f.next(); ok {
			return frame, nil
		}
		if f.max > 0 && len(f.buf) > f.max+len(Sentinel) {
			return nil, fmt.Errorf("%w: %d bytes buffered", ErrFrameTooLarge, len(f.buf))
		}

		n, err := f.r.Read(chunk)
		f.buf = append(f.buf, chunk[:n]...)
		if err != nil {
			if frame, ok := f.next(); ok {
				return frame, nil
			}
			if errors.Is(err, io.EOF) {
				if len(f.buf) == 0 {
					return nil, io.EOF
				}
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

// next extracts a complete frame from the buffer. Only bytes that might
// complete a sentinel straddling the previous boundary are rescanned.
func (f *FrameReader) next() ([]byte, bool) {
	start := f.scanned - len(Sentinel) + 1
	if start < 0 {
		start = 0
	}

	i := bytes.Index(f.buf[start:], Sentinel)
	if i < 0 {
		f.scanned = len(f.buf)
		return nil, false
	}
	end := start + i

	frame := make([]byte, end)
	copy(frame, f.buf[:end])

	rest := f.buf[end+len(Sentinel):]
	f.buf = append(f.buf[:0], rest...)
	f.scanned = 0
	return frame, true
}
