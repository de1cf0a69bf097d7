package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly restricts the command to accounts carrying the admin flag,
	// checked at match time.
	AdminOnly bool
	// SkipGate exempts the command from the subscription gate. Used for the
	// initial-contact command so account creation can happen first.
	SkipGate bool
	Hidden   bool
	Aliases  []string
}
