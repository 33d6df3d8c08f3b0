package telegram

import (
	"log/slog"
	"strings"
	"unicode/utf16"
)

// EntityText returns the span of text the entity covers. Telegram counts
// offsets in UTF-16 code units, so the text is re-encoded before slicing.
// ok is false when the span does not fit the text.
func EntityText(text string, e MessageEntity) (span string, ok bool) {
	return spanOf(utf16.Encode([]rune(text)), e)
}

func spanOf(u16 []uint16, e MessageEntity) (string, bool) {
	end := e.Offset + e.Length
	if e.Offset < 0 || e.Length < 0 || end > len(u16) || end < e.Offset {
		return "", false
	}
	return string(utf16.Decode(u16[e.Offset:end])), true
}

// Commands returns the literal text of every bot_command entity, in entity
// order. Entities whose span falls outside text are logged and skipped.
func Commands(text string, entities []MessageEntity) []string {
	if text == "" || len(entities) == 0 {
		return nil
	}
	var cmds []string
	var u16 []uint16
	for _, e := range entities {
		if e.Type != EntityBotCommand {
			continue
		}
		if u16 == nil {
			u16 = utf16.Encode([]rune(text))
		}
		span, ok := spanOf(u16, e)
		if !ok {
			slog.Warn(
				"Skipping bot_command entity outside message text",
				"offset", e.Offset,
				"length", e.Length,
				"textUnits", len(u16),
			)
			continue
		}
		cmds = append(cmds, span)
	}
	return cmds
}

// SplitCommand splits "/start@ScryfallBot" into "/start" and "ScryfallBot".
func SplitCommand(literal string) (cmd, username string) {
	cmd, username, _ = strings.Cut(literal, "@")
	return cmd, username
}
