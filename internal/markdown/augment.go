package markdown

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var highlightFormatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// Augment post-processes sanitized HTML: code blocks get syntax
// highlighting, a language label, and a copy button; tables get a
// scrollable wrapper. Running it on already-augmented HTML is a no-op.
func Augment(fragment string) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	// Fragment nodes come back parentless. Reparent them under a scratch
	// root so top-level tables can be wrapped like nested ones.
	root := element(atom.Body, "body")
	for _, n := range nodes {
		root.AppendChild(n)
	}

	var blockSeq int
	walkAugment(root, &blockSeq)

	var buf bytes.Buffer
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

func walkAugment(n *html.Node, blockSeq *int) {
	var next *html.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		walkAugment(child, blockSeq)
	}

	if n.Type != html.ElementNode {
		return
	}
	switch n.DataAtom {
	case atom.Pre:
		augmentCodeBlock(n, blockSeq)
	case atom.Table:
		wrapTable(n, blockSeq)
	}
}

// augmentCodeBlock highlights pre>code and attaches the copy affordance.
func augmentCodeBlock(pre *html.Node, blockSeq *int) {
	code := firstChildElement(pre, atom.Code)
	if code == nil || hasClass(code, "highlighted") {
		return
	}

	*blockSeq++
	id := fmt.Sprintf("code-block-%d", *blockSeq)
	language := languageFromClass(code)
	source := textContent(code)

	if highlighted := highlight(source, language); highlighted != nil {
		for code.FirstChild != nil {
			code.RemoveChild(code.FirstChild)
		}
		for _, hn := range highlighted {
			code.AppendChild(hn)
		}
	}

	setAttr(code, "id", id)
	addClass(code, "hljs")
	addClass(code, "highlighted")

	if language != "" && firstChildWithClass(pre, "code-language") == nil {
		label := element(atom.Div, "div")
		setAttr(label, "class", "code-language")
		label.AppendChild(&html.Node{Type: html.TextNode, Data: language})
		pre.AppendChild(label)
	}
	if firstChildWithClass(pre, "copy-button") == nil {
		button := element(atom.Button, "button")
		setAttr(button, "class", "copy-button")
		setAttr(button, "data-copy-target", id)
		setAttr(button, "title", "Copy code")
		button.AppendChild(&html.Node{Type: html.TextNode, Data: "\U0001F4CB"})
		pre.AppendChild(button)
	}
}

// highlight runs chroma over the source and returns the token markup as a
// node list, or nil when highlighting fails.
func highlight(source, language string) []*html.Node {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil
	}
	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	var buf bytes.Buffer
	if err := highlightFormatter.Format(&buf, style, iterator); err != nil {
		return nil
	}

	parent := element(atom.Code, "code")
	nodes, err := html.ParseFragment(strings.NewReader(buf.String()), parent)
	if err != nil {
		return nil
	}
	return nodes
}

// wrapTable moves a table inside div.table-wrapper with its own copy
// button, unless already wrapped.
func wrapTable(table *html.Node, blockSeq *int) {
	parent := table.Parent
	if parent == nil {
		return
	}
	if parent.Type == html.ElementNode && hasClass(parent, "table-wrapper") {
		return
	}

	*blockSeq++
	id := fmt.Sprintf("table-block-%d", *blockSeq)
	setAttr(table, "id", id)

	wrapper := element(atom.Div, "div")
	setAttr(wrapper, "class", "table-wrapper")
	parent.InsertBefore(wrapper, table)
	parent.RemoveChild(table)
	wrapper.AppendChild(table)

	button := element(atom.Button, "button")
	setAttr(button, "class", "copy-button")
	setAttr(button, "data-copy-target", id)
	setAttr(button, "title", "Copy table")
	button.AppendChild(&html.Node{Type: html.TextNode, Data: "\U0001F4CB"})
	wrapper.AppendChild(button)
}

func element(a atom.Atom, name string) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: name}
}

func firstChildElement(n *html.Node, a atom.Atom) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == a {
			return child
		}
	}
	return nil
}

func firstChildWithClass(n *html.Node, class string) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && hasClass(child, class) {
			return child
		}
	}
	return nil
}

func languageFromClass(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	for i, attr := range n.Attr {
		if attr.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(attr.Val + " " + class)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
