package ui

import "github.com/atotto/clipboard"

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	return clipboardWriteAll(text)
}
