package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"keywordanalyzer/internal/log"
	"keywordanalyzer/internal/metrics"
	"keywordanalyzer/internal/model"
	"keywordanalyzer/internal/util"
)

const maxRedirects = 10

type Config struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	FollowRedirects    bool
	MaxBodyBytes       int64
	UserAgent          string
	RateLimit          float64
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Truncated   bool
}

// Error describes why a resource could not be fetched.
type Error struct {
	URL string
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var ErrInvalidURL = errors.New("invalid URL")

type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	transport.MaxIdleConnsPerHost = 10

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport:     transport,
			Timeout:       cfg.Timeout,
			CheckRedirect: redirectPolicy(cfg.FollowRedirects),
		},
	}

	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// when redirects are not followed the redirect response itself is returned
func redirectPolicy(follow bool) func(*http.Request, []*http.Request) error {
	if !follow {
		return func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("too many redirects")
		}
		return nil
	}
}

// Fetch issues a GET for targetURL and reads the whole body under the configured deadline.
func (c *Client) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	if !util.IsValidURL(targetURL) {
		return nil, &Error{URL: targetURL, Op: "validate", Err: fmt.Errorf("%w: %q", ErrInvalidURL, targetURL)}
	}

	// queueing for the limiter does not count against the request deadline
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{URL: targetURL, Op: "rate limit", Err: err}
		}
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, &Error{URL: targetURL, Op: "build request", Err: err}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Logger.Debug("failed to fetch URL",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return nil, &Error{URL: targetURL, Op: "request", Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	body, truncated, err := readBody(resp.Body, c.cfg.MaxBodyBytes)
	if err != nil {
		return nil, &Error{URL: targetURL, Op: "read body", Err: err}
	}
	metrics.ObserveFetch(time.Since(start), len(body))
	if truncated {
		body = trimPartialRune(body)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = model.UnknownContentType
	}

	if truncated {
		log.Logger.Warn("response body truncated",
			zap.String("url", targetURL),
			zap.Int64("max_body_bytes", c.cfg.MaxBodyBytes),
		)
	}
	log.Logger.Debug("fetched resource",
		zap.String("url", targetURL),
		zap.Int("status_code", resp.StatusCode),
		zap.String("content_type", contentType),
		zap.Int("content_length", len(body)),
	)

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		Truncated:   truncated,
	}, nil
}

func readBody(r io.Reader, limit int64) ([]byte, bool, error) {
	if limit <= 0 {
		body, err := io.ReadAll(r)
		return body, false, err
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// trimPartialRune drops a trailing UTF-8 sequence cut short by the body cap, so a
// truncated UTF-8 body still decodes strictly.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i]
		}
		return b
	}
	return b
}
