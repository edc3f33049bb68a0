package torznab

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"torrentstream/streamaddon/internal/domain"
	"torrentstream/streamaddon/internal/metrics"
)

// ListEndpoints returns the indexers configured on the Jackett instance.
// An empty list is a valid answer.
func (c *Client) ListEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	endpoints, err := c.listEndpoints(ctx)
	if err != nil {
		metrics.DirectoryRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.DirectoryRequestsTotal.WithLabelValues("ok").Inc()
	return endpoints, nil
}

func (c *Client) listEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	values := url.Values{}
	values.Set("t", "indexers")
	values.Set("configured", "true")

	payload, err := c.get(ctx, "api/v2.0/indexers/all/results/torznab/api", values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}
	root, err := ParseTree(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}
	if root.Name == "error" {
		return nil, fmt.Errorf("%w: jackett error %s: %s", domain.ErrDirectoryUnavailable, root.Attr("code"), root.Attr("description"))
	}
	// Only an <indexers> root may be empty; anything else without children
	// is not a directory listing.
	if root.Name != "indexers" && len(root.Children) == 0 {
		return nil, fmt.Errorf("%w: no indexers in <%s> response", domain.ErrDirectoryUnavailable, root.Name)
	}
	return endpointsFromTree(root), nil
}

func endpointsFromTree(root *domain.Node) []domain.Endpoint {
	endpoints := make([]domain.Endpoint, 0, len(root.Children))
	for _, child := range root.Children {
		if child == nil {
			continue
		}
		id := strings.TrimSpace(child.Attr("id"))
		if id == "" {
			continue
		}
		endpoint := domain.Endpoint{ID: id}
		if title := child.Child("title"); title != nil {
			endpoint.Title = strings.TrimSpace(title.Text)
		}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints
}
