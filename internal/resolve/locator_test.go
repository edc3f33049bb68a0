package resolve

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"torrentstream/streamaddon/internal/domain"
)

func buildTorrent(t *testing.T) ([]byte, string) {
	t.Helper()
	infoBytes, err := bencode.Marshal(metainfo.Info{
		Name:        "Example.2020.1080p.mkv",
		PieceLength: 16384,
		Pieces:      make([]byte, 20),
		Length:      1000,
	})
	if err != nil {
		t.Fatalf("marshal info: %v", err)
	}
	mi := metainfo.MetaInfo{
		Announce: "udp://a.example:80",
		AnnounceList: [][]string{
			{"udp://a.example:80", "udp://b.example:80"},
			{"udp://c.example:80", "udp://a.example:80"},
		},
		InfoBytes: infoBytes,
	}
	var buf bytes.Buffer
	if err := mi.Write(&buf); err != nil {
		t.Fatalf("write torrent: %v", err)
	}
	return buf.Bytes(), mi.HashInfoBytes().HexString()
}

func TestParseMagnet(t *testing.T) {
	info, err := ParseMagnet(testMagnet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.InfoHash != testHash {
		t.Fatalf("unexpected hash: %q", info.InfoHash)
	}
	if info.Name != "Example" {
		t.Fatalf("unexpected name: %q", info.Name)
	}
	if len(info.Trackers) != 2 {
		t.Fatalf("expected 2 trackers, got %v", info.Trackers)
	}

	if _, err := ParseMagnet("magnet:?dn=nohash"); !errors.Is(err, domain.ErrLocatorResolution) {
		t.Fatalf("expected ErrLocatorResolution, got %v", err)
	}
}

func TestParseTorrentFlattensAnnounceList(t *testing.T) {
	payload, hash := buildTorrent(t)

	info, err := ParseTorrent(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.InfoHash != hash {
		t.Fatalf("expected hash %s, got %s", hash, info.InfoHash)
	}
	if info.Name != "Example.2020.1080p.mkv" {
		t.Fatalf("unexpected name: %q", info.Name)
	}
	assertSources(t, info.Trackers, []string{"udp://a.example:80", "udp://b.example:80", "udp://c.example:80"})
}

func TestLocatorFetchesRemoteTorrent(t *testing.T) {
	payload, hash := buildTorrent(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.torrent":
			w.Header().Set("Content-Type", "application/x-bittorrent")
			_, _ = w.Write(payload)
		case "/garbage.torrent":
			_, _ = w.Write([]byte("<html>not a torrent</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	locator := NewLocator(server.Client(), "")

	info, err := locator.Resolve(context.Background(), server.URL+"/ok.torrent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.InfoHash != hash {
		t.Fatalf("expected hash %s, got %s", hash, info.InfoHash)
	}

	for _, path := range []string{"/garbage.torrent", "/missing.torrent"} {
		if _, err := locator.Resolve(context.Background(), server.URL+path); !errors.Is(err, domain.ErrLocatorResolution) {
			t.Fatalf("%s: expected ErrLocatorResolution, got %v", path, err)
		}
	}
}

func TestLocatorParsesMagnetWithoutFetching(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request for magnet locator")
		return nil, nil
	})}

	info, err := NewLocator(client, "").Resolve(context.Background(), testMagnet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.InfoHash != testHash {
		t.Fatalf("unexpected hash: %q", info.InfoHash)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
