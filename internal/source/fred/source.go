package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"crawling_observer/internal/domain"
)

const (
	crawlingType = "macro"
	country      = "US"
	// observationsLimit bounds the newest observations scanned for a value.
	observationsLimit = 10
)

// Config holds FRED producer configuration.
type Config struct {
	Name           string
	BaseURL        string
	APIKey         string
	Series         map[string]string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source produces the latest value of each configured FRED series as one
// macro batch.
type Source struct {
	httpClient     *http.Client
	name           string
	baseURL        string
	apiKey         string
	series         map[string]string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		name:           cfg.Name,
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		series:         cfg.Series,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		now:            time.Now,
		logger:         logger.With("producer", cfg.Name),
	}
}

func (s *Source) Name() string {
	return s.name
}

// Produce reports HTTP failures as data: when no series could be fetched the
// result is a single fail-log batch. Only context cancellation is returned.
func (s *Source) Produce(ctx context.Context) ([]domain.Batch, error) {
	names := slices.Sorted(maps.Keys(s.series))
	target := s.baseURL

	var (
		rows       []domain.Row
		failures   []string
		lastStatus = http.StatusOK
	)

	for _, name := range names {
		seriesID := s.series[name]

		obs, err := s.latest(ctx, seriesID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var se *statusError
			if errors.As(err, &se) {
				lastStatus = se.code
			}
			s.logger.Warn("failed to fetch series",
				"series", name,
				"series_id", seriesID,
				"error", err,
			)
			failures = append(failures, fmt.Sprintf("%s: %v", seriesID, err))
			continue
		}
		if obs == nil {
			s.logger.Debug("no observation with a value", "series_id", seriesID)
			continue
		}

		rows = append(rows, domain.Row{
			"index_name":  name,
			"country":     country,
			"index_value": obs.Value,
			"posted_at":   obs.Date,
		})
	}

	log := domain.CrawlLog{CrawlingType: crawlingType, TargetURL: &target}
	capturedAt := s.now()

	if len(rows) == 0 {
		msg := "no observations fetched"
		if len(failures) > 0 {
			msg = strings.Join(failures, "; ")
		}
		log.StatusCode = lastStatus
		return []domain.Batch{{
			Tag:        domain.TagMacro,
			Log:        log,
			FailLog:    &domain.FailLog{ErrMessage: msg},
			CapturedAt: capturedAt,
		}}, nil
	}

	log.StatusCode = http.StatusOK
	s.logger.Info("fetched series", "rows", len(rows), "failed", len(failures))

	return []domain.Batch{{
		Tag:        domain.TagMacro,
		Log:        log,
		Payload:    rows,
		CapturedAt: capturedAt,
	}}, nil
}

// latest returns the newest observation with a value, or nil when the
// returned window holds none.
func (s *Source) latest(ctx context.Context, seriesID string) (*Observation, error) {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", s.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", strconv.Itoa(observationsLimit))
	reqURL := s.baseURL + "?" + q.Encode()

	var (
		resp    *ObservationsResponse
		attempt int
	)
	op := func() error {
		attempt++
		r, err := s.doRequest(ctx, reqURL)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("request failed, retrying",
			"series_id", seriesID,
			"attempt", attempt,
			"backoff", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, s.policy(ctx), notify); err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
	}

	for i := range resp.Observations {
		v := resp.Observations[i].Value
		if v != missingValue && v != "" {
			return &resp.Observations[i], nil
		}
	}
	return nil, nil
}

// policy doubles the delay from initialBackoff up to maxBackoff with jitter
// and stops after maxAttempts attempts.
func (s *Source) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff
	b.MaxInterval = s.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	b.MaxElapsedTime = 0

	retries := max(s.maxAttempts-1, 0)
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func (s *Source) doRequest(ctx context.Context, reqURL string) (*ObservationsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", redact(err, s.apiKey)))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CrawlingObserver/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", redact(err, s.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := &statusError{code: resp.StatusCode}
		if retryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var body ObservationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}

	return &body, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.code)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// redact strips the API key from transport errors, which embed the URL.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
