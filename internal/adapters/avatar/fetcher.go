// Package avatar downloads user avatars and packs them as data URIs for the
// card template.
package avatar

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/okian/levelcard/pkg/logger"
	"github.com/okian/levelcard/pkg/metrics"
)

const (
	defaultTimeout = 5 * time.Second
	defaultRetries = 2
	// Discord serves avatars well under this.
	maxAvatarBytes = 8 << 20
)

// Fetcher downloads avatars over a retrying HTTP client.
type Fetcher struct {
	client *retryablehttp.Client
	logger logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.HTTPClient.Timeout = d
		}
	}
}

// WithRetries sets how many times a failed attempt is retried.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.client.RetryMax = n
		}
	}
}

// WithRetryWait sets the backoff bounds between attempts.
func WithRetryWait(lo, hi time.Duration) Option {
	return func(f *Fetcher) {
		f.client.RetryWaitMin = lo
		f.client.RetryWaitMax = hi
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetries
	client.HTTPClient.Timeout = defaultTimeout

	f := &Fetcher{
		client: client,
		logger: logger.Get().Named("avatar"),
	}
	client.Logger = leveledLogger{l: f.logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and returns it as a data URI.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	uri, err := f.fetch(ctx, url)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		metrics.RecordErrorByComponent("avatar", "fetch")
	}
	metrics.RecordAvatarFetch(outcome, time.Since(start))
	return uri, err
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if len(data) > maxAvatarBytes {
		return "", ErrTooLarge
	}
	return Encode(data)
}

// Encode packs image bytes into a data URI, sniffing the mime type.
func Encode(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// leveledLogger routes retryablehttp logs into the service logger.
type leveledLogger struct {
	l logger.Logger
}

func (a leveledLogger) Error(msg string, kv ...any) {
	a.l.Error(context.Background(), msg, fields(kv)...)
}
func (a leveledLogger) Info(msg string, kv ...any) {
	a.l.Debug(context.Background(), msg, fields(kv)...)
}
func (a leveledLogger) Debug(msg string, kv ...any) {
	a.l.Debug(context.Background(), msg, fields(kv)...)
}
func (a leveledLogger) Warn(msg string, kv ...any) {
	a.l.Warn(context.Background(), msg, fields(kv)...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, logger.Any(key, kv[i+1]))
	}
	return out
}
