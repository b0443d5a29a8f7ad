package ui

import (
	"io"

	"github.com/alecthomas/chroma/v2/quick"
)

// Highlight writes source to w with terminal colors. lexer is a chroma
// lexer name such as "javascript"; unknown names fall back to plain text.
func Highlight(w io.Writer, source, lexer string) error {
	return quick.Highlight(w, source, lexer, "terminal256", "monokai")
}
