package telegram

// Update is one inbound webhook event. At most one of Message and
// InlineQuery is expected to be set, but both are honoured when present.
type Update struct {
	UpdateID    int64        `json:"update_id"`
	Message     *Message     `json:"message,omitempty"`
	InlineQuery *InlineQuery `json:"inline_query,omitempty"`
}

// Message is a chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date,omitempty"`
	Text      string `json:"text,omitempty"`

	Entities []MessageEntity `json:"entities,omitempty"`
}

// InlineQuery is a search-as-you-type request.
type InlineQuery struct {
	ID     string `json:"id"`
	From   *User  `json:"from,omitempty"`
	Query  string `json:"query"`
	Offset string `json:"offset,omitempty"`
}

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// EntityType is the kind of a MessageEntity.
type EntityType string

const (
	EntityBotCommand EntityType = "bot_command"
	EntityMention    EntityType = "mention"
	EntityURL        EntityType = "url"
	EntityTextLink   EntityType = "text_link"
)

// MessageEntity annotates a span of Message.Text. Offset and Length count
// UTF-16 code units.
type MessageEntity struct {
	Type   EntityType `json:"type"`
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	URL    string     `json:"url,omitempty"`
}

// ParseMode values.
const (
	ParseModeHTML     = "HTML"
	ParseModeMarkdown = "Markdown"
)

// Inline result types.
const (
	ResultTypePhoto   = "photo"
	ResultTypeSticker = "sticker"
)

// AnswerInlineQuery is the answerInlineQuery request.
type AnswerInlineQuery struct {
	InlineQueryID string              `json:"inline_query_id"`
	Results       []InlineQueryResult `json:"results"`
	CacheTime     *int                `json:"cache_time,omitempty"`
}

// InlineQueryResult covers the photo and cached sticker result shapes. ID is
// the result key; the media is PhotoURL for photos and StickerFileID for
// cached stickers.
type InlineQueryResult struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	PhotoURL      string `json:"photo_url,omitempty"`
	StickerFileID string `json:"sticker_file_id,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`

	InputMessageContent *InputTextMessageContent `json:"input_message_content,omitempty"`
}

// InputTextMessageContent is the message sent when an inline result is
// chosen.
type InputTextMessageContent struct {
	MessageText           string `json:"message_text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// SendMessage is the sendMessage request.
type SendMessage struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// SendPhoto is the sendPhoto request. Photo is a URL or a file id.
type SendPhoto struct {
	ChatID    int64  `json:"chat_id"`
	Photo     string `json:"photo"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMediaGroup is the sendMediaGroup request.
type SendMediaGroup struct {
	ChatID int64             `json:"chat_id"`
	Media  []InputMediaPhoto `json:"media"`
}

type InputMediaPhoto struct {
	Type      string `json:"type"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// MaxMediaGroup is the most items one sendMediaGroup call accepts.
const MaxMediaGroup = 10

// MaxInlineResults is the most results one answerInlineQuery call accepts.
const MaxInlineResults = 50

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}
