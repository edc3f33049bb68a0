package domain

import "time"

// Endpoint is one indexer configured on the Jackett instance.
type Endpoint struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Record is the canonical shape of one search hit. Numeric fields are nil
// when the indexer did not report them.
type Record struct {
	Title       string     `json:"title"`
	Magnet      string     `json:"magnet,omitempty"`
	Link        string     `json:"link,omitempty"`
	Seeders     *int       `json:"seeders,omitempty"`
	Peers       *int       `json:"peers,omitempty"`
	Size        *int64     `json:"size,omitempty"`
	Files       *int       `json:"files,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Source      string     `json:"source"`
	ExtraTag    string     `json:"extraTag,omitempty"`
}

// Locator returns the preferred address of the torrent: magnet first, then
// the download link.
func (r Record) Locator() string {
	if r.Magnet != "" {
		return r.Magnet
	}
	return r.Link
}

func (r Record) SeedersOrZero() int {
	if r.Seeders == nil {
		return 0
	}
	return *r.Seeders
}

func (r Record) SizeOrZero() int64 {
	if r.Size == nil {
		return 0
	}
	return *r.Size
}

// Node is an order-preserving XML element tree.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	Text     string
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child != nil && child.Name == name {
			return child
		}
	}
	return nil
}

func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}
