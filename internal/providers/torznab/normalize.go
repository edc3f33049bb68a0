package torznab

import (
	"strings"

	"torrentstream/streamaddon/internal/domain"
)

const attrElement = "torznab:attr"

// Normalize extracts canonical records from a parsed search response
// (rss → channel → item). A response without a channel yields no records.
func Normalize(root *domain.Node, source string, query domain.Query) []domain.Record {
	items := channelItems(root)
	if len(items) == 0 {
		return nil
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		record, ok := normalizeItem(item)
		if !ok {
			continue
		}
		record.Source = source
		record.ExtraTag = MatchTag(record.Title, query.Name)
		records = append(records, record)
	}
	return records
}

func channelItems(root *domain.Node) []*domain.Node {
	channel := root.Child("channel")
	if channel == nil {
		return nil
	}
	items := make([]*domain.Node, 0, len(channel.Children))
	for _, child := range channel.Children {
		if child == nil || child.Name != "item" || len(child.Children) == 0 {
			continue
		}
		items = append(items, child)
	}
	return items
}

// workingAttributes merges plain child elements and torznab:attr pairs in
// document order; a later key overwrites an earlier one.
func workingAttributes(item *domain.Node) map[string]string {
	attrs := make(map[string]string, len(item.Children))
	for _, child := range item.Children {
		if child == nil {
			continue
		}
		if child.Name == attrElement {
			name := child.Attr("name")
			value := child.Attr("value")
			if name != "" && value != "" {
				attrs[name] = value
			}
			continue
		}
		if text := strings.TrimSpace(child.Text); text != "" {
			attrs[child.Name] = text
		}
	}
	return attrs
}

func normalizeItem(item *domain.Node) (domain.Record, bool) {
	attrs := workingAttributes(item)
	var record domain.Record
	for _, f := range recordFields {
		raw, ok := attrs[f.key]
		if !ok {
			if f.required {
				return domain.Record{}, false
			}
			continue
		}
		if !f.assign(&record, raw) && f.required {
			return domain.Record{}, false
		}
	}
	return record, true
}
