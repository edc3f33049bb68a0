package domain

import "testing"

func TestRecordLocator(t *testing.T) {
	if got := (Record{Magnet: "magnet:?xt=a", Link: "http://x/t"}).Locator(); got != "magnet:?xt=a" {
		t.Fatalf("expected magnet first, got %q", got)
	}
	if got := (Record{Link: "http://x/t"}).Locator(); got != "http://x/t" {
		t.Fatalf("expected link fallback, got %q", got)
	}
	if got := (Record{}).Locator(); got != "" {
		t.Fatalf("expected empty locator, got %q", got)
	}
}

func TestRecordNumericDefaults(t *testing.T) {
	var r Record
	if r.SeedersOrZero() != 0 || r.SizeOrZero() != 0 {
		t.Fatalf("expected zero defaults")
	}
	seeders, size := 12, int64(4096)
	r.Seeders, r.Size = &seeders, &size
	if r.SeedersOrZero() != 12 || r.SizeOrZero() != 4096 {
		t.Fatalf("unexpected values: %d %d", r.SeedersOrZero(), r.SizeOrZero())
	}
}

func TestNodeLookupsAreNilSafe(t *testing.T) {
	var missing *Node
	if missing.Child("channel") != nil {
		t.Fatalf("expected nil child on nil node")
	}
	if missing.Attr("id") != "" {
		t.Fatalf("expected empty attr on nil node")
	}

	root := &Node{Name: "rss", Children: []*Node{
		{Name: "channel", Attrs: map[string]string{"id": "first"}},
		{Name: "channel", Attrs: map[string]string{"id": "second"}},
	}}
	if got := root.Child("channel").Attr("id"); got != "first" {
		t.Fatalf("expected first matching child, got %q", got)
	}
}
