package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Event-handler attributes stripped from every element.
var blockedAttrs = map[string]struct{}{
	"onclick":     {},
	"onload":      {},
	"onerror":     {},
	"onmouseover": {},
	"onmouseout":  {},
	"onfocus":     {},
	"onblur":      {},
	"onchange":    {},
	"onsubmit":    {},
	"onkeydown":   {},
	"onkeyup":     {},
	"onkeypress":  {},
}

// Sanitize removes script elements, event-handler attributes, and
// javascript: URLs from an HTML fragment. Everything else passes through
// unchanged.
func Sanitize(fragment string) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		clean(n)
		if n != nil {
			if err := html.Render(&buf, n); err != nil {
				return "", fmt.Errorf("render html: %w", err)
			}
		}
	}
	return buf.String(), nil
}

func parseFragment(fragment string) ([]*html.Node, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	return html.ParseFragment(strings.NewReader(fragment), body)
}

// clean strips unsafe content in place, removing script subtrees entirely.
func clean(n *html.Node) {
	var next *html.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		if child.Type == html.ElementNode && child.DataAtom == atom.Script {
			n.RemoveChild(child)
			continue
		}
		clean(child)
	}

	if n.Type != html.ElementNode {
		return
	}

	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if _, blocked := blockedAttrs[key]; blocked {
			continue
		}
		if (key == "href" || key == "src") && hasJavascriptScheme(attr.Val) {
			continue
		}
		// Inline styles on code blocks can smuggle rendered payloads.
		if key == "style" && (n.DataAtom == atom.Pre || n.DataAtom == atom.Code) {
			continue
		}
		kept = append(kept, attr)
	}
	n.Attr = kept
}

func hasJavascriptScheme(val string) bool {
	trimmed := strings.TrimSpace(val)
	return strings.HasPrefix(strings.ToLower(trimmed), "javascript:")
}
