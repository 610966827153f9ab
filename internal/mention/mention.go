// Package mention handles field references embedded in rich-text values:
// HTML elements carrying mention="true" and a mention-field-id attribute that
// defer to another field's submitted value at evaluation time.
package mention

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FieldValue is one submitted answer a mention can resolve against.
type FieldValue struct {
	ID    string
	Value any
}

// Contains reports whether the content carries at least one mention element.
// Malformed HTML never errors; it simply contains no mentions.
func Contains(content string) bool {
	if !strings.Contains(content, "mention") {
		return false
	}

	nodes, err := parseFragment(content)
	if err != nil {
		return false
	}

	found := false
	for _, node := range nodes {
		walk(node, func(n *html.Node) {
			if isMention(n) {
				found = true
			}
		})
	}
	return found
}

// Parser resolves the mentions of one content string against submitted data.
type Parser struct {
	content string
	values  map[string]any
}

func NewParser(content string, data []FieldValue) *Parser {
	values := make(map[string]any, len(data))
	for _, fv := range data {
		values[fv.ID] = fv.Value
	}
	return &Parser{content: content, values: values}
}

// ParseAsText replaces every mention element with the referenced field's
// value (or the mention-fallback attribute when the field is unanswered) and
// returns the plain-text rendering of the content.
func (p *Parser) ParseAsText() string {
	nodes, err := parseFragment(p.content)
	if err != nil {
		return p.content
	}

	var b strings.Builder
	for _, node := range nodes {
		p.renderText(&b, node)
	}
	return b.String()
}

func (p *Parser) renderText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode && isMention(n) {
		b.WriteString(p.resolve(n))
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		p.renderText(b, child)
	}
}

func (p *Parser) resolve(n *html.Node) string {
	fieldID := attr(n, "mention-field-id")
	if value, ok := p.values[fieldID]; ok && value != nil {
		switch v := value.(type) {
		case string:
			return v
		case []any:
			parts := make([]string, 0, len(v))
			for _, entry := range v {
				parts = append(parts, fmt.Sprint(entry))
			}
			return strings.Join(parts, ", ")
		default:
			return fmt.Sprint(v)
		}
	}
	return attr(n, "mention-fallback")
}

var amountPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ResolveAmount parses a raw payment amount that may contain mentions and
// returns the first positive decimal number found after resolution. The
// second return is false when no positive amount can be extracted.
func ResolveAmount(raw string, data []FieldValue) (float64, bool) {
	parsed := NewParser(raw, data).ParseAsText()
	normalized := strings.ReplaceAll(parsed, ",", "")

	match := amountPattern.FindString(normalized)
	if match == "" {
		return 0, false
	}

	var amount float64
	if _, err := fmt.Sscanf(match, "%f", &amount); err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func parseFragment(content string) ([]*html.Node, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(content), container)
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func isMention(n *html.Node) bool {
	return n.Type == html.ElementNode && attr(n, "mention") == "true"
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
