package forum

import (
	"strings"
	"testing"

	_ "embed"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/page1.html
var page1 string

func TestExtractDonations(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page1))
	require.NoError(t, err)

	records := ExtractDonations(doc)
	require.Len(t, records, 4)

	var comments []string
	for _, r := range records {
		comments = append(comments, r.Comment)
	}
	require.Equal(t, []string{
		"К.Ю. (лошади сено)",
		"сено для лошади",
		"на корм коту",
		"",
	}, comments)

	// the td.post donation only the broad selector reaches
	require.Equal(t, 12.50, records[3].GrossAmount)
}

func TestExtractDeduplicatesRepostedLines(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page1))
	require.NoError(t, err)

	records := ExtractDonations(doc)
	var count int
	for _, r := range records {
		if r.Comment == "К.Ю. (лошади сено)" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestExtractEmptyPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><div class="post"><div class="inner">Спасибо!</div></div></body></html>`,
	))
	require.NoError(t, err)

	require.Empty(t, ExtractDonations(doc))
}

func TestExtractSkipsContainedBroadMatches(t *testing.T) {
	// td.post wraps div.post div.inner here: the narrow selector wins and
	// the containing broad match must not re-count the same line
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><table><tr><td class="post">
			<div class="post"><div class="inner">ЕРИП 13.01.2025 13:46:08 сено 30.00 0.06 29.94 BYN</div></div>
		</td></tr></table></body></html>`,
	))
	require.NoError(t, err)

	records := ExtractDonations(doc)
	require.Len(t, records, 1)
}
