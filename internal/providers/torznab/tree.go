package torznab

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"torrentstream/streamaddon/internal/domain"
)

const torznabNamespace = "http://torznab.com/schemas/2015/feed"

// ParseTree decodes an XML payload into an order-preserving element tree.
// Prefixed names keep their document prefix ("torznab:attr") no matter how
// the namespace was declared.
func ParseTree(payload []byte) (*domain.Node, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty body", domain.ErrMalformedResponse)
	}

	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.Strict = false
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	prefixes := map[string]string{torznabNamespace: "torznab"}
	var root *domain.Node
	var stack []*domain.Node

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &domain.Node{Attrs: make(map[string]string, len(t.Attr))}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" {
					prefixes[attr.Value] = attr.Name.Local
					continue
				}
				if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
					if _, known := prefixes[attr.Value]; !known {
						prefixes[attr.Value] = ""
					}
					continue
				}
				node.Attrs[qualifiedName(attr.Name, prefixes)] = attr.Value
			}
			node.Name = qualifiedName(t.Name, prefixes)
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", domain.ErrMalformedResponse)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			if text := strings.TrimSpace(string(t)); text != "" {
				current := stack[len(stack)-1]
				current.Text += text
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", domain.ErrMalformedResponse)
	}
	return root, nil
}

func qualifiedName(name xml.Name, prefixes map[string]string) string {
	if name.Space == "" {
		return name.Local
	}
	prefix, ok := prefixes[name.Space]
	if !ok {
		// Undeclared prefixes are reported verbatim by encoding/xml.
		prefix = name.Space
	}
	if prefix == "" {
		return name.Local
	}
	return prefix + ":" + name.Local
}
