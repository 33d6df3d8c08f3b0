package search

import (
	"context"
	"strings"
)

// Resolution is a chat reference matched to a card.
type Resolution struct {
	Reference string
	Item      Item
}

// Resolve looks up one [[reference]]. It prefers an item whose name equals
// the reference ignoring case and surrounding spaces, then the first item.
// ok is false when nothing matched.
func Resolve(ctx context.Context, b Backend, ref string) (res Resolution, ok bool, err error) {
	res.Reference = ref
	if Blank(ref) {
		return res, false, nil
	}
	result, err := b.Search(ctx, ref, DefaultOrder, 1)
	if err != nil {
		return res, false, err
	}
	if result.Len() == 0 {
		return res, false, nil
	}
	want := strings.TrimSpace(ref)
	for _, it := range result.Items {
		if strings.EqualFold(it.Name, want) {
			res.Item = it
			return res, true, nil
		}
	}
	res.Item = result.Items[0]
	return res, true, nil
}
