package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"crawling_observer/internal/domain"
)

type ClientTestSuite struct {
	suite.Suite
	codec    *Codec
	listener net.Listener
	wg       sync.WaitGroup
	logger   *slog.Logger
	requests chan domain.Envelope
}

func (s *ClientTestSuite) SetupTest() {
	codec, err := NewCodec(9)
	s.Require().NoError(err)
	s.codec = codec

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.listener = ln

	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.requests = make(chan domain.Envelope, 8)
}

func (s *ClientTestSuite) TearDownTest() {
	_ = s.listener.Close()
	s.wg.Wait()
	s.codec.Close()
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) client(receiveTimeout time.Duration) *Client {
	return NewClient(Config{
		Addr:           s.listener.Addr().String(),
		ConnectTimeout: time.Second,
		ReceiveTimeout: receiveTimeout,
		MaxFrameBytes:  1 << 20,
	}, s.codec, nil, s.logger)
}

// serve accepts one connection per call and answers with handle. The reply
// is written in small pieces to exercise reassembly on the client.
func (s *ClientTestSuite) serve(handle func(conn net.Conn, req domain.Envelope)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		payload, err := NewFrameReader(conn, 0).ReadFrame()
		if err != nil {
			return
		}
		var req domain.Envelope
		if err := s.codec.Decode(payload, &req); err != nil {
			return
		}
		s.requests <- req
		handle(conn, req)
	}()
}

func (s *ClientTestSuite) reply(conn net.Conn, resp domain.Envelope) {
	frame, err := s.codec.Encode(&resp)
	if err != nil {
		return
	}
	for len(frame) > 0 {
		n := min(3, len(frame))
		if _, err := conn.Write(frame[:n]); err != nil {
			return
		}
		frame = frame[n:]
		time.Sleep(time.Millisecond)
	}
}

func analysisRequest() *domain.Envelope {
	return &domain.Envelope{
		Header: map[string]any{"request_id": "r-1", "type": "article_analysis"},
		Body:   map[string]any{"item": map[string]any{"tag": "AAPL", "data": map[string]any{"news_data": "Apple beats"}}},
	}
}

func (s *ClientTestSuite) TestRequest_Success() {
	s.serve(func(conn net.Conn, req domain.Envelope) {
		s.reply(conn, domain.Envelope{
			Header: map[string]any{"status": "success", "request_id": req.Header["request_id"]},
			Body:   map[string]any{"message": "긍정적"},
		})
	})

	resp, err := s.client(2*time.Second).Request(context.Background(), analysisRequest())

	s.Require().NoError(err)
	s.True(resp.OK())
	msg, ok := resp.BodyField("message")
	s.True(ok)
	s.Equal("긍정적", msg)

	got := <-s.requests
	s.Equal("article_analysis", got.Header["type"])
}

func (s *ClientTestSuite) TestRequest_NonSuccessStatusIsData() {
	s.serve(func(conn net.Conn, _ domain.Envelope) {
		s.reply(conn, domain.Envelope{
			Header: map[string]any{"status": "error"},
			Body:   map[string]any{"message": "model unavailable"},
		})
	})

	resp, err := s.client(2*time.Second).Request(context.Background(), analysisRequest())

	s.Require().NoError(err)
	s.False(resp.OK())
	s.Equal("error", resp.Status())
}

func (s *ClientTestSuite) TestRequest_Timeout() {
	release := make(chan struct{})
	s.serve(func(net.Conn, domain.Envelope) { <-release })
	defer close(release)

	start := time.Now()
	_, err := s.client(100*time.Millisecond).Request(context.Background(), analysisRequest())

	s.ErrorIs(err, domain.ErrTransportTimeout)
	s.True(domain.IsRetryable(err))
	s.Less(time.Since(start), 2*time.Second)
}

func (s *ClientTestSuite) TestRequest_ClosedBeforeSentinel() {
	s.serve(func(conn net.Conn, _ domain.Envelope) {
		_, _ = conn.Write([]byte("partial"))
	})

	_, err := s.client(2*time.Second).Request(context.Background(), analysisRequest())

	s.ErrorIs(err, domain.ErrTransportDecode)
	s.False(domain.IsRetryable(err))
}

func (s *ClientTestSuite) TestRequest_GarbageResponse() {
	s.serve(func(conn net.Conn, _ domain.Envelope) {
		_, _ = conn.Write([]byte("bm90IHpzdGQ=<END>"))
	})

	_, err := s.client(2*time.Second).Request(context.Background(), analysisRequest())

	s.ErrorIs(err, domain.ErrTransportDecode)
}

func (s *ClientTestSuite) TestRequest_ConcurrentCallsUseOwnConnections() {
	const calls = 4
	for i := 0; i < calls; i++ {
		s.serve(func(conn net.Conn, req domain.Envelope) {
			s.reply(conn, domain.Envelope{Header: map[string]any{"status": "success", "request_id": req.Header["request_id"]}})
		})
	}

	c := s.client(2 * time.Second)
	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env := analysisRequest()
			env.Header["request_id"] = i
			resp, err := c.Request(context.Background(), env)
			if err == nil && resp.Header["request_id"] != json.Number(strconv.Itoa(i)) {
				err = assert.AnError
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
}

func TestRequest_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	codec, err := NewCodec(3)
	require.NoError(t, err)
	defer codec.Close()

	c := NewClient(Config{Addr: addr, ConnectTimeout: time.Second, ReceiveTimeout: time.Second}, codec, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err = c.Request(context.Background(), analysisRequest())

	assert.ErrorIs(t, err, domain.ErrTransportConnect)
	assert.True(t, domain.IsRetryable(err))
}

// shortWriter accepts at most two bytes per call.
type shortWriter struct {
	written []byte
}

func (w *shortWriter) Write(p []byte) (int, error) {
	n := min(2, len(p))
	w.written = append(w.written, p[:n]...)
	return n, nil
}

type stuckWriter struct{}

func (stuckWriter) Write([]byte) (int, error) { return 0, nil }

func TestWriteFull(t *testing.T) {
	w := &shortWriter{}
	require.NoError(t, writeFull(w, []byte("abcdefg<END>")))
	assert.Equal(t, "abcdefg<END>", string(w.written))

	assert.ErrorIs(t, writeFull(stuckWriter{}, []byte("x")), io.ErrShortWrite)
}

type recordedRequest struct {
	outcome string
}

type fakeRequestRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (r *fakeRequestRecorder) ObserveRequest(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recordedRequest{outcome})
}

func TestOutcomeLabel(t *testing.T) {
	ok := &domain.Envelope{Header: map[string]any{"status": "success"}}
	failed := &domain.Envelope{Header: map[string]any{"status": "error"}}

	assert.Equal(t, "success", outcomeLabel(ok, nil))
	assert.Equal(t, "non_success", outcomeLabel(failed, nil))
	assert.Equal(t, "timeout", outcomeLabel(nil, domain.E(domain.KindTransportTimeout, "read", io.EOF)))
	assert.Equal(t, "connect_error", outcomeLabel(nil, domain.E(domain.KindTransportConnect, "dial", io.EOF)))
	assert.Equal(t, "decode_error", outcomeLabel(nil, domain.E(domain.KindTransportDecode, "decode", io.EOF)))

	rec := &fakeRequestRecorder{}
	codec, err := NewCodec(1)
	require.NoError(t, err)
	defer codec.Close()
	c := NewClient(Config{Addr: "127.0.0.1:1", ConnectTimeout: 50 * time.Millisecond, ReceiveTimeout: time.Second},
		codec, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, _ = c.Request(context.Background(), analysisRequest())

	require.Len(t, rec.seen, 1)
	assert.NotEqual(t, "success", rec.seen[0].outcome)
}
