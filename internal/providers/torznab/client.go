package torznab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"torrentstream/streamaddon/internal/domain"
	"torrentstream/streamaddon/internal/metrics"
)

const (
	defaultUserAgent   = "torrent-stream-addon/1.0"
	defaultOpenTimeout = 10 * time.Second
	defaultReadTimeout = 10 * time.Second
	maxErrorBodyBytes  = 2048
	maxPayloadBytes    = 8 * 1024 * 1024

	categoryMovies = "2000"
	categoryTV     = "5000"
)

var errReadIdle = errors.New("read timeout")

type Config struct {
	Host        string
	APIKey      string
	UserAgent   string
	OpenTimeout time.Duration
	ReadTimeout time.Duration
	Client      *http.Client
	Logger      *slog.Logger
}

// Client talks to one Jackett instance: it lists the configured indexers and
// runs Torznab searches against each of them.
type Client struct {
	host        string
	apiKey      string
	userAgent   string
	openTimeout time.Duration
	readTimeout time.Duration
	client      *http.Client
	logger      *slog.Logger
}

func NewClient(cfg Config) *Client {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	client := cfg.Client
	if client == nil {
		client = NewHTTPClient(openTimeout, readTimeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	host := strings.TrimSpace(cfg.Host)
	if host != "" && !strings.HasSuffix(host, "/") {
		host += "/"
	}
	return &Client{
		host:        host,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		userAgent:   userAgent,
		openTimeout: openTimeout,
		readTimeout: readTimeout,
		client:      client,
		logger:      logger,
	}
}

// NewHTTPClient returns a client whose connect phase is bounded by
// openTimeout and whose wait for response headers is bounded by readTimeout.
// Body reads are bounded separately by Client.get.
func NewHTTPClient(openTimeout, readTimeout time.Duration) *http.Client {
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   openTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = openTimeout
	transport.ResponseHeaderTimeout = readTimeout
	return &http.Client{Transport: otelhttp.NewTransport(transport)}
}

// Search queries one indexer and returns its normalized records.
func (c *Client) Search(ctx context.Context, endpoint domain.Endpoint, query domain.Query) ([]domain.Record, error) {
	started := time.Now()
	records, err := c.search(ctx, endpoint, query)
	metrics.IndexerRequestDuration.WithLabelValues(endpoint.ID).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.IndexerRequestsTotal.WithLabelValues(endpoint.ID, "error").Inc()
		return nil, err
	}
	metrics.IndexerRequestsTotal.WithLabelValues(endpoint.ID, "ok").Inc()
	return records, nil
}

func (c *Client) search(ctx context.Context, endpoint domain.Endpoint, query domain.Query) ([]domain.Record, error) {
	values := url.Values{}
	values.Set("t", "search")
	values.Set("cat", Category(query.Kind))
	values.Set("q", SearchText(query))

	payload, err := c.get(ctx, "api/v2.0/indexers/"+url.PathEscape(endpoint.ID)+"/results/torznab/api", values)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceQueryFailed, endpoint.ID, err)
	}
	root, err := ParseTree(payload)
	if err != nil {
		return nil, err
	}
	if root.Child("channel") == nil {
		return nil, fmt.Errorf("%w: %s: missing channel", domain.ErrMalformedResponse, endpoint.ID)
	}

	records := Normalize(root, endpoint.ID, query)
	if dropped := len(channelItems(root)) - len(records); dropped > 0 {
		c.logger.Debug("torznab items dropped",
			slog.String("indexer", endpoint.ID),
			slog.Int("dropped", dropped),
		)
	}
	return records, nil
}

// Category maps the media kind to its Torznab category.
func Category(kind domain.MediaKind) string {
	if kind == domain.MediaKindMovie {
		return categoryMovies
	}
	return categoryTV
}

// SearchText is the query name, suffixed with the episode tag when both
// season and episode are known.
func SearchText(query domain.Query) string {
	text := strings.TrimSpace(query.Name)
	if query.HasEpisode() {
		text += " " + EpisodeTag(query.Season, query.Episode)
	}
	return text
}

func (c *Client) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	values.Set("apikey", c.apiKey)
	uri := c.host + path + "?" + values.Encode()

	ctx, cancelTotal := context.WithTimeout(ctx, c.openTimeout+c.readTimeout)
	defer cancelTotal()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/xml,text/xml,application/rss+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("jackett HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	body := &idleReader{reader: resp.Body, timeout: c.readTimeout, cancel: cancel}
	payload, err := io.ReadAll(io.LimitReader(body, maxPayloadBytes))
	if err != nil {
		if errors.Is(context.Cause(ctx), errReadIdle) {
			return nil, fmt.Errorf("%w: no data for %s", errReadIdle, c.readTimeout)
		}
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("jackett HTTP %d: empty body", resp.StatusCode)
	}
	return payload, nil
}

// idleReader cancels the request when a single Read waits longer than
// timeout, so an indexer that stalls mid-body fails instead of hanging.
type idleReader struct {
	reader  io.Reader
	timeout time.Duration
	cancel  context.CancelCauseFunc
}

func (r *idleReader) Read(p []byte) (int, error) {
	timer := time.AfterFunc(r.timeout, func() { r.cancel(errReadIdle) })
	n, err := r.reader.Read(p)
	timer.Stop()
	return n, err
}
