package resolve

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const defaultMaxRedirects = 10

type Redirector struct {
	client       *http.Client
	userAgent    string
	maxRedirects int
	logger       *slog.Logger
}

type RedirectorConfig struct {
	Client       *http.Client
	UserAgent    string
	MaxRedirects int
	Logger       *slog.Logger
}

func NewRedirector(cfg RedirectorConfig) *Redirector {
	base := cfg.Client
	if base == nil {
		base = &http.Client{}
	}
	// Hops are followed by hand so a Location pointing at a magnet URI can
	// be returned without the transport trying to fetch it.
	client := *base
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Redirector{
		client:       &client,
		userAgent:    strings.TrimSpace(cfg.UserAgent),
		maxRedirects: maxRedirects,
		logger:       logger,
	}
}

// Resolve follows HTTP redirects from locator and returns the terminal
// locator. Magnet URIs are returned as is. Network failures return the last
// locator reached.
func (r *Redirector) Resolve(ctx context.Context, locator string) string {
	current := strings.TrimSpace(locator)
	if isMagnet(current) {
		return current
	}

	for hop := 0; hop < r.maxRedirects; hop++ {
		next, redirected, err := r.hop(ctx, current)
		if err != nil {
			r.logger.Debug("redirect resolution stopped",
				slog.String("locator", current),
				slog.String("error", err.Error()),
			)
			return current
		}
		if !redirected {
			return current
		}
		current = next
		if isMagnet(current) {
			return current
		}
	}
	return current
}

func (r *Redirector) hop(ctx context.Context, locator string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", false, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", false, err
	}
	resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return "", false, nil
	}
	location := strings.TrimSpace(resp.Header.Get("Location"))
	if location == "" {
		return "", false, nil
	}
	if isMagnet(location) {
		return location, true, nil
	}
	base, err := url.Parse(locator)
	if err != nil {
		return "", false, err
	}
	target, err := url.Parse(location)
	if err != nil {
		return "", false, err
	}
	return base.ResolveReference(target).String(), true, nil
}

func isMagnet(locator string) bool {
	return strings.HasPrefix(strings.ToLower(locator), "magnet:")
}
