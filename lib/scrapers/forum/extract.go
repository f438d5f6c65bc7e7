package forum

import (
	"strings"

	"donorbot-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// post-body selectors in order of preference. forum skins differ, so a
// broad fallback follows the precise ones; overlap is resolved by
// skipping any node related by containment to one already taken.
var postBodySelectors = []string{
	"div.post div.inner",
	"div.post_body",
	"td.post",
}

// ExtractDonations pulls every parseable donation line out of one page
// of thread markup. A page with no donations is a normal outcome and
// yields an empty slice.
func ExtractDonations(doc *goquery.Document) []DonationRecord {
	var posts []*html.Node
	for _, selector := range postBodySelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			for _, node := range sel.Nodes {
				if overlapsAny(node, posts) {
					continue
				}
				posts = append(posts, node)
			}
		})
	}

	var records []DonationRecord
	seen := map[string]bool{}
	for _, post := range posts {
		for _, line := range htmlutil.Lines(htmlutil.BlockText(post)) {
			if !candidateLine(line) {
				continue
			}
			if seen[line] {
				continue
			}
			seen[line] = true

			record, ok := ParseDonationLine(line)
			if !ok {
				continue
			}
			records = append(records, record)
		}
	}
	return records
}

// a line is only worth running the full pattern on when it mentions
// both a payment channel and the currency literal
func candidateLine(line string) bool {
	if !strings.Contains(line, Currency) {
		return false
	}
	return strings.Contains(line, MethodERIP) || strings.Contains(line, MethodCard)
}

func overlapsAny(node *html.Node, taken []*html.Node) bool {
	for _, t := range taken {
		if node == t || isAncestor(t, node) || isAncestor(node, t) {
			return true
		}
	}
	return false
}

func isAncestor(ancestor, node *html.Node) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
