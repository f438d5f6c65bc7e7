package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetTextFlattensMarkup(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<table><tr><td class="caption">Ответов: <b>64</b>, Просмотров: <a href="#">901</a></td></tr></table>`,
	))
	require.NoError(t, err)

	text := GetText(doc.Find("td.caption").Nodes[0])
	require.Equal(t, "Ответов: 64, Просмотров: 901", text)
}

func TestBlockText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="post">ЕРИП 13.01.2025 13:46:08 сено 30.00 0.06 29.94 BYN<br>` +
			`Карта 14.01.2025 09:00:00 корм 10.00 0.02 9.98 BYN<br/>спасибо всем</div>`,
	))
	require.NoError(t, err)

	text := BlockText(doc.Find("div.post").Nodes[0])
	lines := Lines(text)
	require.Equal(t, []string{
		"ЕРИП 13.01.2025 13:46:08 сено 30.00 0.06 29.94 BYN",
		"Карта 14.01.2025 09:00:00 корм 10.00 0.02 9.98 BYN",
		"спасибо всем",
	}, lines)
}

func TestBlockTextNestedTags(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="b"><p>first <b>bold</b> line</p><p>second line</p></div>`,
	))
	require.NoError(t, err)

	lines := Lines(BlockText(doc.Find("#b").Nodes[0]))
	require.Equal(t, []string{"first bold line", "second line"}, lines)
}

func TestCollapseSpaces(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"  a   b\tc ", "a b c"},
		{" x  y", "x y"},
		{"", ""},
		{" \t\n ", ""},
	} {
		require.Equal(t, tc.want, CollapseSpaces(tc.in), "input %q", tc.in)
	}
}
