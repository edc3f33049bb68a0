package resolve

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"torrentstream/streamaddon/internal/domain"
)

var byteUnits = []string{"Bytes", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}

// BuildStream renders one resolved record as a playable stream descriptor.
func BuildStream(record domain.Record, info TorrentInfo, kind domain.MediaKind, dhtEnabled bool) domain.Stream {
	title := record.Title
	if title == "" {
		title = info.Name
	}
	title += "\r\n📀 " + FormatBytes(record.SizeOrZero())
	title += "\r\n🛰️ " + strconv.Itoa(record.SeedersOrZero())
	title += "\r\n💎 " + record.ExtraTag

	var sources []string
	for _, tracker := range info.Trackers {
		sources = append(sources, "tracker:"+tracker)
	}
	if len(sources) > 0 && dhtEnabled {
		sources = append(sources, "dht:"+info.InfoHash)
	}

	return domain.Stream{
		Name:     record.Source,
		Type:     string(kind),
		InfoHash: info.InfoHash,
		Title:    title,
		Sources:  sources,
	}
}

// FormatBytes renders a size with binary units and at most two decimals,
// e.g. "1.5 GiB". Zero or negative sizes render as "0 Bytes".
func FormatBytes(size int64) string {
	if size <= 0 {
		return "0 Bytes"
	}
	value := float64(size)
	exp := 0
	for value >= 1024 && exp < len(byteUnits)-1 {
		value /= 1024
		exp++
	}
	return humanize.FtoaWithDigits(math.Round(value*100)/100, 2) + " " + byteUnits[exp]
}
