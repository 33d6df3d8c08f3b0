// Package search defines the card search contract shared by every backend.
package search

import (
	"context"
	"strings"
)

// PageSize is the fixed number of items a full page holds.
const PageSize = 175

// DefaultOrder sorts by card name.
const DefaultOrder = "name"

// Image variant names, as used by Scryfall's image_uris.
const (
	ImageSmall      = "small"
	ImageNormal     = "normal"
	ImageLarge      = "large"
	ImagePNG        = "png"
	ImageArtCrop    = "art_crop"
	ImageBorderCrop = "border_crop"
)

// Item is one searchable card.
type Item struct {
	// ID is the stable identity of the item. For items without images it is
	// also a Telegram file id.
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`

	DetailURL    string `json:"detail_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// Images maps a variant name (see the Image* constants) to a URL.
	Images map[string]string `json:"images,omitempty"`

	// Description is the primary text, SecondaryText the fallback.
	Description   string `json:"description,omitempty"`
	SecondaryText string `json:"secondary_text,omitempty"`
}

// Image returns the URL of the first variant present, in the given order.
func (it Item) Image(variants ...string) string {
	for _, v := range variants {
		if u := it.Images[v]; u != "" {
			return u
		}
	}
	return ""
}

// HasTag reports whether the item carries tag, ignoring case.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Result is one page of a search.
type Result struct {
	TotalCount *int
	HasMore    *bool
	Items      []Item
}

// Len is the number of items on the page; nil Items count as empty.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

// Empty is the result of a query that matched nothing.
func Empty() *Result {
	zero, more := 0, false
	return &Result{TotalCount: &zero, HasMore: &more}
}

// Backend runs paginated searches. Pages are 1-based; each backend fixes
// its own page size (PageSize for the ones in this module).
//
// Failures are *errs.Error of KindBackend with reason BackendUnavailable,
// BackendRejected or BackendDecode. A blank query is a zero-result search,
// never an error.
type Backend interface {
	Search(ctx context.Context, query, order string, page int) (*Result, error)
}

// Blank reports whether query has nothing to search for.
func Blank(query string) bool {
	return strings.TrimSpace(query) == ""
}

// Offset returns the number of items before page.
func Offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}

// Page builds the Result for the items window [offset, offset+PageSize) of
// matches, for backends that filter in process.
func Page(matches []Item, page int) *Result {
	total := len(matches)
	start := Offset(page)
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}
	more := end < total
	return &Result{
		TotalCount: &total,
		HasMore:    &more,
		Items:      matches[start:end],
	}
}
