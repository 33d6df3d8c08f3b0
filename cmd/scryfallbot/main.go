// Command scryfallbot runs the Scryfall Telegram bot and its operator tools.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
