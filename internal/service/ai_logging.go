package service

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const maxAILogSnippetRunes = 1024

// logAIExchange records prompts and responses at debug level, truncated.
func logAIExchange(logger zerolog.Logger, kind, phase, content string) {
	trimmed := strings.TrimSpace(content)
	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxAILogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxAILogSnippetRunes]) + "…(truncated)"
	}
	logger.Debug().
		Str("kind", kind).
		Str("phase", phase).
		Int("runes", runeCount).
		Str("content", snippet).
		Msg("ai exchange")
}
