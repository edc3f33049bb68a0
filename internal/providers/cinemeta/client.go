package cinemeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"torrentstream/streamaddon/internal/domain"
	"torrentstream/streamaddon/internal/metrics"
)

const (
	defaultBaseURL = "https://v3-cinemeta.strem.io"
	redisCacheKey  = "addon:cinemeta:"
)

// Client looks up title metadata on a Cinemeta-compatible service, with an
// optional Redis cache in front of it.
type Client struct {
	baseURL  string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

type Config struct {
	BaseURL  string
	Client   *http.Client
	Redis    *redis.Client
	CacheTTL time.Duration
	Logger   *slog.Logger
}

type metaResponse struct {
	Meta *struct {
		Name        string          `json:"name"`
		Year        json.RawMessage `json:"year"`
		ReleaseInfo string          `json:"releaseInfo"`
	} `json:"meta"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		redis:    cfg.Redis,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Lookup returns the name and year of a title. A title the service does not
// know yields (nil, nil).
func (c *Client) Lookup(ctx context.Context, kind domain.MediaKind, imdbID string) (*domain.Meta, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, nil
	}
	cacheKey := redisCacheKey + string(kind) + ":" + imdbID

	if c.redis != nil {
		data, err := c.redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var meta domain.Meta
			if json.Unmarshal(data, &meta) == nil && meta.Name != "" {
				metrics.MetaCacheHitsTotal.Inc()
				return &meta, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Debug("metadata cache read failed", slog.String("error", err.Error()))
		}
		metrics.MetaCacheMissesTotal.Inc()
	}

	meta, err := c.fetch(ctx, kind, imdbID)
	if err != nil || meta == nil {
		return nil, err
	}

	if c.redis != nil {
		if data, err := json.Marshal(meta); err == nil {
			_ = c.redis.Set(ctx, cacheKey, data, c.cacheTTL).Err()
		}
	}
	return meta, nil
}

func (c *Client) fetch(ctx context.Context, kind domain.MediaKind, imdbID string) (*domain.Meta, error) {
	reqURL := c.baseURL + "/meta/" + url.PathEscape(string(kind)) + "/" + url.PathEscape(imdbID) + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("cinemeta HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	var response metaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}
	if response.Meta == nil || strings.TrimSpace(response.Meta.Name) == "" {
		return nil, nil
	}

	year := parseYear(strings.Trim(string(response.Meta.Year), `"`))
	if year == 0 {
		year = parseYear(response.Meta.ReleaseInfo)
	}
	return &domain.Meta{Name: strings.TrimSpace(response.Meta.Name), Year: year}, nil
}

// parseYear reads the leading four digits of values like "2011", "2011-2019"
// or "2011–".
func parseYear(raw string) int {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return 0
	}
	year := 0
	for _, c := range raw[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}
