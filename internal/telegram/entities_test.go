package telegram

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCommands(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []MessageEntity
		want     []string
	}{
		{
			name:     "start",
			text:     "/start",
			entities: []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 6}},
			want:     []string{"/start"},
		},
		{
			name: "order preserved and other kinds skipped",
			text: "/help @someone /start",
			entities: []MessageEntity{
				{Type: EntityBotCommand, Offset: 0, Length: 5},
				{Type: EntityMention, Offset: 6, Length: 8},
				{Type: EntityBotCommand, Offset: 15, Length: 6},
			},
			want: []string{"/help", "/start"},
		},
		{
			name: "utf-16 offsets after astral emoji",
			// 🃏 is one rune but two UTF-16 code units.
			text:     "🃏 /start",
			entities: []MessageEntity{{Type: EntityBotCommand, Offset: 3, Length: 6}},
			want:     []string{"/start"},
		},
		{
			name:     "utf-16 offsets after accented text",
			text:     "Jötun /help",
			entities: []MessageEntity{{Type: EntityBotCommand, Offset: 6, Length: 5}},
			want:     []string{"/help"},
		},
		{
			name:     "out of range skipped",
			text:     "/start",
			entities: []MessageEntity{{Type: EntityBotCommand, Offset: 2, Length: 10}},
			want:     nil,
		},
		{
			name:     "negative skipped",
			text:     "/start",
			entities: []MessageEntity{{Type: EntityBotCommand, Offset: -1, Length: 2}},
			want:     nil,
		},
		{
			name: "no entities",
			text: "/start",
			want: nil,
		},
		{
			name:     "no text",
			entities: []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 6}},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Commands(tt.text, tt.entities)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Commands() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEntityText(t *testing.T) {
	text := "see 🂡 https://scryfall.com"
	span, ok := EntityText(text, MessageEntity{Type: EntityURL, Offset: 7, Length: 20})
	if !ok {
		t.Fatal("EntityText() ok = false")
	}
	if want := "https://scryfall.com"; span != want {
		t.Errorf("EntityText() = %q, want %q", span, want)
	}
}

func TestSplitCommand(t *testing.T) {
	for _, c := range []struct {
		literal, cmd, user string
	}{
		{"/start", "/start", ""},
		{"/start@ScryfallBot", "/start", "ScryfallBot"},
		{"/help@", "/help", ""},
	} {
		cmd, user := SplitCommand(c.literal)
		if cmd != c.cmd || user != c.user {
			t.Errorf("SplitCommand(%q) = (%q, %q), want (%q, %q)", c.literal, cmd, user, c.cmd, c.user)
		}
	}
}
