package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
	"torrentstream/streamaddon/internal/domain"
)

const maxTorrentBytes = 10 * 1024 * 1024

// TorrentInfo is what a locator resolves to.
type TorrentInfo struct {
	InfoHash string
	Name     string
	Trackers []string
}

// Locator turns a terminal locator into torrent identity: magnet URIs are
// parsed in place, anything else is fetched as a .torrent file.
type Locator struct {
	client    *http.Client
	userAgent string
}

func NewLocator(client *http.Client, userAgent string) *Locator {
	if client == nil {
		client = &http.Client{}
	}
	return &Locator{client: client, userAgent: strings.TrimSpace(userAgent)}
}

func (l *Locator) Resolve(ctx context.Context, locator string) (TorrentInfo, error) {
	if isMagnet(locator) {
		return ParseMagnet(locator)
	}
	return l.fetchTorrent(ctx, locator)
}

func ParseMagnet(uri string) (TorrentInfo, error) {
	magnet, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return TorrentInfo{}, fmt.Errorf("%w: %v", domain.ErrLocatorResolution, err)
	}
	return TorrentInfo{
		InfoHash: strings.ToLower(magnet.InfoHash.HexString()),
		Name:     magnet.DisplayName,
		Trackers: dedupe(magnet.Trackers),
	}, nil
}

// ParseTorrent reads a bencoded .torrent file.
func ParseTorrent(r io.Reader) (TorrentInfo, error) {
	mi, err := metainfo.Load(r)
	if err != nil {
		return TorrentInfo{}, fmt.Errorf("%w: %v", domain.ErrLocatorResolution, err)
	}
	if len(mi.InfoBytes) == 0 {
		return TorrentInfo{}, fmt.Errorf("%w: missing info dictionary", domain.ErrLocatorResolution)
	}

	var trackers []string
	for _, tier := range mi.UpvertedAnnounceList() {
		trackers = append(trackers, tier...)
	}

	info := TorrentInfo{
		InfoHash: strings.ToLower(mi.HashInfoBytes().HexString()),
		Trackers: dedupe(trackers),
	}
	if parsed, err := mi.UnmarshalInfo(); err == nil {
		info.Name = parsed.Name
	}
	return info, nil
}

func (l *Locator) fetchTorrent(ctx context.Context, locator string) (TorrentInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return TorrentInfo{}, fmt.Errorf("%w: %v", domain.ErrLocatorResolution, err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	req.Header.Set("Accept", "application/x-bittorrent,*/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return TorrentInfo{}, fmt.Errorf("%w: %v", domain.ErrLocatorResolution, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return TorrentInfo{}, fmt.Errorf("%w: torrent HTTP %d", domain.ErrLocatorResolution, resp.StatusCode)
	}
	return ParseTorrent(io.LimitReader(resp.Body, maxTorrentBytes))
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
