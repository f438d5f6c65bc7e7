package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetText concatenates every text node under node, dropping all
// markup and keeping boundaries as they appear in the source.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// BlockText extracts the text of a node with <br> and block-level
// boundaries rendered as newlines, so a multi-line forum post comes
// out as separable lines rather than one run-on string.
func BlockText(node *html.Node) string {
	var buffer bytes.Buffer
	blockTextRecursive(node, &buffer)
	return buffer.String()
}

var blockTags = map[string]bool{
	"p":          true,
	"div":        true,
	"li":         true,
	"tr":         true,
	"blockquote": true,
}

func blockTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteString("\n")
		return
	}
	child := node.FirstChild
	for child != nil {
		blockTextRecursive(child, buffer)
		child = child.NextSibling
	}
	if node.Type == html.ElementNode && blockTags[node.Data] {
		buffer.WriteString("\n")
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// CollapseSpaces trims a line and squeezes every whitespace run,
// including non-breaking spaces pasted from payment receipts, into
// one plain space.
func CollapseSpaces(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.Trim(s, " ")
}

// Lines splits block text into collapsed, non-empty lines.
func Lines(blockText string) []string {
	var out []string
	for _, raw := range strings.Split(blockText, "\n") {
		line := CollapseSpaces(raw)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
