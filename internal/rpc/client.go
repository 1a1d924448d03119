package rpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"crawling_observer/internal/domain"
)

type Config struct {
	Addr           string
	ConnectTimeout time.Duration
	ReceiveTimeout time.Duration
	MaxFrameBytes  int
}

// Recorder receives the outcome of every request.
type Recorder interface {
	ObserveRequest(outcome string, duration time.Duration)
}

// Client performs one request/response exchange per call, each on its own
// connection. It holds no per-call state and is safe for concurrent use.
type Client struct {
	cfg      Config
	codec    *Codec
	dialer   *net.Dialer
	recorder Recorder
	logger   *slog.Logger
}

// NewClient builds a client. recorder may be nil.
func NewClient(cfg Config, codec *Codec, recorder Recorder, logger *slog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		codec:    codec,
		dialer:   &net.Dialer{Timeout: cfg.ConnectTimeout},
		recorder: recorder,
		logger:   logger.With("component", "rpc", "addr", cfg.Addr),
	}
}

// Request sends env and returns the decoded response envelope. A
// non-success status in the response is returned as data. Failures are
// domain errors of kind TransportConnect, TransportTimeout or
// TransportDecode; the request is never retried here.
func (c *Client) Request(ctx context.Context, env *domain.Envelope) (*domain.Envelope, error) {
	start := time.Now()

	resp, err := c.request(ctx, env)

	outcome := outcomeLabel(resp, err)
	if c.recorder != nil {
		c.recorder.ObserveRequest(outcome, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("request failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	c.logger.Debug("request completed", "status", resp.Status(), "duration", time.Since(start))
	return resp, nil
}

func (c *Client) request(ctx context.Context, env *domain.Envelope) (*domain.Envelope, error) {
	frame, err := c.codec.Encode(env)
	if err != nil {
		return nil, domain.E(domain.KindTransportDecode, "encode request", err)
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.E(domain.KindTransportTimeout, "connect", err)
		}
		return nil, domain.E(domain.KindTransportConnect, "connect", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.ReceiveTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, domain.E(domain.KindTransportConnect, "set deadline", err)
	}

	c.logger.Debug("sending request", "bytes", len(frame))

	if err := writeFull(conn, frame); err != nil {
		if isTimeout(err) {
			return nil, domain.E(domain.KindTransportTimeout, "write request", err)
		}
		return nil, domain.E(domain.KindTransportConnect, "write request", err)
	}

	payload, err := NewFrameReader(conn, c.cfg.MaxFrameBytes).ReadFrame()
	if err != nil {
		switch {
		case isTimeout(err):
			return nil, domain.E(domain.KindTransportTimeout, "read response", err)
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, ErrFrameTooLarge):
			return nil, domain.E(domain.KindTransportDecode, "read response", err)
		default:
			return nil, domain.E(domain.KindTransportConnect, "read response", err)
		}
	}

	var resp domain.Envelope
	if err := c.codec.Decode(payload, &resp); err != nil {
		return nil, domain.E(domain.KindTransportDecode, "decode response", err)
	}
	return &resp, nil
}

// writeFull loops until every byte is written; a short write without an
// error is retried.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcomeLabel(resp *domain.Envelope, err error) string {
	switch {
	case err == nil && resp.OK():
		return "success"
	case err == nil:
		return "non_success"
	}
	switch domain.KindOf(err) {
	case domain.KindTransportConnect:
		return "connect_error"
	case domain.KindTransportTimeout:
		return "timeout"
	default:
		return "decode_error"
	}
}

