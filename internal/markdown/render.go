// Package markdown renders chat messages to display-ready HTML: GFM
// conversion, sanitization, syntax highlighting, and the table/code-block
// affordances the web client expects.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		// Raw HTML passes through here and is stripped by Sanitize.
		html.WithUnsafe(),
	),
)

// Render converts markdown to sanitized, augmented HTML.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	sanitized, err := Sanitize(buf.String())
	if err != nil {
		return "", err
	}
	return Augment(sanitized)
}
