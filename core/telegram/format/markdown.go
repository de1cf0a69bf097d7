// Package format escapes user-supplied text for Telegram markdown parse
// modes, so usernames with underscores or brackets cannot break a message.
package format

import (
	"fmt"
	"strings"
)

const (
	// MarkdownV1 is Telegram's legacy "Markdown" parse mode.
	MarkdownV1 = 1
	// MarkdownV2 is the "MarkdownV2" parse mode.
	MarkdownV2 = 2
)

const (
	mdV1Specials = "_*[`\\"
	mdV2Specials = "_*[]()~`>#+-=|{}.!\\"
)

// EscapeMarkdown backslash-escapes the characters special to the given
// markdown version. The entityType argument is reserved for V2 contexts
// (pre/code, links) that narrow the escape set; empty means plain text.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	var specials string
	switch version {
	case MarkdownV1:
		specials = mdV1Specials
	case MarkdownV2:
		specials = mdV2Specials
	default:
		return "", fmt.Errorf("unsupported markdown version: %d", version)
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}
