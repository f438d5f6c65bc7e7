package forum

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"donorbot-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// anchors rendered by the pagination strip
var pageLinkSelectors = []string{
	"div.pagelinks a.navPages",
	"div.pagesection a.navPages",
	".pagination a",
}

// captions that mention the total reply count of the thread
var replyCaptionSelectors = []string{
	"span.post_count",
	"td.middletext",
	".replies",
}

var replyCountRegex = regexp.MustCompile(`(?:Ответов|Сообщений|Replies)\s*[:\-]?\s*(\d+)`)

// ResolvePageCount infers how many pages the thread has from the first
// page's markup. Three signals are combined by taking the maximum:
// the largest literal page number linked, the largest page implied by
// an offset query parameter, and the reply-count caption divided by the
// page size. A thread with no pagination UI at all resolves to 1.
func ResolvePageCount(doc *goquery.Document, offsetParam string, pageSize int) int {
	pages := 1

	for _, selector := range pageLinkSelectors {
		doc.Find(selector).Each(func(_ int, link *goquery.Selection) {
			if n, err := strconv.Atoi(strings.TrimSpace(link.Text())); err == nil && n > pages {
				pages = n
			}
			if n, ok := pageFromHref(link.AttrOr("href", ""), offsetParam, pageSize); ok && n > pages {
				pages = n
			}
		})
	}

	if n, ok := pagesFromReplyCaption(doc, pageSize); ok && n > pages {
		pages = n
	}

	return pages
}

func pageFromHref(href, offsetParam string, pageSize int) (int, bool) {
	if href == "" {
		return 0, false
	}
	link, err := url.Parse(href)
	if err != nil {
		return 0, false
	}
	raw := link.Query().Get(offsetParam)
	if raw == "" {
		return 0, false
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, false
	}
	return offset/pageSize + 1, true
}

func pagesFromReplyCaption(doc *goquery.Document, pageSize int) (int, bool) {
	for _, selector := range replyCaptionSelectors {
		var total int
		var found bool
		doc.Find(selector).EachWithBreak(func(_ int, caption *goquery.Selection) bool {
			// captions nest the count inside spans and links, so flatten
			// the subtree before matching
			groups := replyCountRegex.FindStringSubmatch(htmlutil.GetText(caption.Nodes[0]))
			if groups == nil {
				return true
			}
			n, err := strconv.Atoi(groups[1])
			if err != nil {
				return true
			}
			total = n
			found = true
			return false
		})
		if found {
			return (total + pageSize - 1) / pageSize, true
		}
	}
	return 0, false
}
