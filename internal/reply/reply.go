// Package reply turns search results into Bot API requests.
package reply

import (
	"fmt"
	"html"
	"slices"

	"github.com/google/uuid"

	"github.com/AlexYaroshenko/scryfallbot/internal/search"
	"github.com/AlexYaroshenko/scryfallbot/internal/telegram"
)

// maxResultID is the longest inline result id the Bot API accepts, in bytes.
const maxResultID = 64

// resultNamespace scopes the name-based ids derived from item ids.
var resultNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://scryfall.com/"))

// BuildInlineAnswer answers queryID with the first telegram.MaxInlineResults
// items, one result per item in order. An item repeating an earlier id gets a
// derived id, since result ids must be unique within one answer.
func BuildInlineAnswer(queryID string, items []search.Item) *telegram.AnswerInlineQuery {
	answer := &telegram.AnswerInlineQuery{
		InlineQueryID: queryID,
		Results:       make([]telegram.InlineQueryResult, 0, min(len(items), telegram.MaxInlineResults)),
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if len(answer.Results) == telegram.MaxInlineResults {
			break
		}
		id := resultID(it.ID)
		for n := 1; seen[id]; n++ {
			id = uuid.NewSHA1(resultNamespace, fmt.Appendf(nil, "%s#%d", it.ID, n)).String()
		}
		seen[id] = true
		answer.Results = append(answer.Results, inlineResult(id, it))
	}
	return answer
}

func resultID(id string) string {
	if len(id) <= maxResultID && id != "" {
		return id
	}
	return uuid.NewSHA1(resultNamespace, []byte(id)).String()
}

func inlineResult(id string, it search.Item) telegram.InlineQueryResult {
	r := telegram.InlineQueryResult{
		ID:           id,
		Title:        it.Name,
		Description:  it.Description,
		ThumbnailURL: it.Image(search.ImageArtCrop, search.ImageSmall),
		InputMessageContent: &telegram.InputTextMessageContent{
			MessageText: link(it),
			ParseMode:   telegram.ParseModeHTML,
		},
	}
	if r.Description == "" {
		r.Description = it.SecondaryText
	}
	if r.ThumbnailURL == "" {
		r.ThumbnailURL = it.ThumbnailURL
	}

	if photo := it.Image(search.ImageNormal, search.ImageLarge, search.ImagePNG); photo != "" {
		r.Type = telegram.ResultTypePhoto
		r.PhotoURL = photo
		// Photo results must carry a thumbnail.
		if r.ThumbnailURL == "" {
			r.ThumbnailURL = photo
		}
		return r
	}
	r.Type = telegram.ResultTypeSticker
	r.StickerFileID = it.ID
	return r
}

func link(it search.Item) string {
	name := html.EscapeString(it.Name)
	if it.DetailURL == "" {
		return name
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(it.DetailURL), name)
}

// Outbound is what a chat message gets back: exactly one of Photo and
// MediaGroup is set.
type Outbound struct {
	Photo      *telegram.SendPhoto
	MediaGroup *telegram.SendMediaGroup
}

// BuildChatReply answers resolved references in chatID: one photo for a
// single card, one media group (truncated to telegram.MaxMediaGroup) for
// more. ok is false when there is nothing to send.
func BuildChatReply(chatID int64, resolved []search.Resolution) (out Outbound, ok bool) {
	switch len(resolved) {
	case 0:
		return out, false
	case 1:
		out.Photo = &telegram.SendPhoto{
			ChatID: chatID,
			Photo:  photoRef(resolved[0].Item),
		}
		return out, true
	}

	n := min(len(resolved), telegram.MaxMediaGroup)
	group := &telegram.SendMediaGroup{
		ChatID: chatID,
		Media:  make([]telegram.InputMediaPhoto, 0, n),
	}
	for _, r := range resolved[:n] {
		group.Media = append(group.Media, telegram.InputMediaPhoto{
			Type:  telegram.ResultTypePhoto,
			Media: photoRef(r.Item),
		})
	}
	out.MediaGroup = group
	return out, true
}

// BuildChatReplies answers every resolved reference in chatID, in order, as
// consecutive messages of at most telegram.MaxMediaGroup cards each. A lone
// trailing card goes out as a photo. It returns nil when there is nothing to
// send.
func BuildChatReplies(chatID int64, resolved []search.Resolution) []Outbound {
	var outs []Outbound
	for chunk := range slices.Chunk(resolved, telegram.MaxMediaGroup) {
		if out, ok := BuildChatReply(chatID, chunk); ok {
			outs = append(outs, out)
		}
	}
	return outs
}

// photoRef is a URL when the item has one, else its id as a file id.
func photoRef(it search.Item) string {
	if u := it.Image(search.ImageNormal, search.ImageLarge, search.ImagePNG, search.ImageSmall); u != "" {
		return u
	}
	return it.ID
}
