package config

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
)

// Reply is the static message sent for one bot command.
type Reply struct {
	Text                  string `yaml:"text"`
	ParseMode             string `yaml:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `yaml:"disable_web_page_preview,omitempty"`
}

// Commands maps a command literal such as "/start" to its reply.
type Commands map[string]Reply

const welcome = `Welcome to ScryfallBot!

*Usage*
ScryfallBot works in both _inline_ mode and in active mode.
Inline mode means you just tag @ScryfallBot and start typing while the results show up above your keyboard.
Tapping a result will send it in your chat. All Scryfall syntax is supported, for a full overview, see [the Scryfall syntax docs](https://scryfall.com/docs/syntax)
Active mode means you can add ScryfallBot to a chat and look up cards by typing [[ your card here ]] in chat.

*Legal stuff*
ScryfallBot is in no way associated or affiliated with Scryfall, it just uses [their fantastic, public API](https://scryfall.com/docs/api).`

// DefaultCommands answers /start and /help with the usage text.
func DefaultCommands() Commands {
	r := Reply{Text: welcome, ParseMode: "Markdown", DisableWebPagePreview: true}
	return Commands{"/start": r, "/help": r}
}

// LoadCommands returns DefaultCommands with the entries of the YAML file at
// path added or replaced. An empty path returns the defaults.
//
//	/rules:
//	  text: "Be nice."
//	/start:
//	  text: "*Hi!*"
//	  parse_mode: Markdown
func LoadCommands(path string) (Commands, error) {
	cmds := DefaultCommands()
	if path == "" {
		return cmds, nil
	}
	const op = "config.LoadCommands"
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Config(op, err)
	}
	var extra Commands
	if err := yaml.Unmarshal(buf, &extra); err != nil {
		return nil, errs.Config(op, fmt.Errorf("%s: %w", path, err))
	}
	for literal, r := range extra {
		if !strings.HasPrefix(literal, "/") || strings.ContainsAny(literal, " @") {
			return nil, errs.Config(op, fmt.Errorf("%s: %q is not a command", path, literal))
		}
		if strings.TrimSpace(r.Text) == "" {
			return nil, errs.Config(op, fmt.Errorf("%s: %s has no text", path, literal))
		}
	}
	maps.Copy(cmds, extra)
	return cmds, nil
}
