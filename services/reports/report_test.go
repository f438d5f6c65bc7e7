package reports

import (
	"testing"
	"time"

	"donorbot-backend/lib/scrapers/forum"
	"donorbot-backend/lib/timezone"
	"donorbot-backend/services/donations"

	"github.com/stretchr/testify/require"
)

func sampleRecords() []forum.DonationRecord {
	a, _ := forum.ParseDonationLine("ЕРИП 13.01.2025 13:46:08 К.Ю. (лошади сено) 30.00 0.06 29.94 BYN")
	b, _ := forum.ParseDonationLine("Карта 01.02.2025 08:30:15 20.00 0.04 19.96 BYN")
	return []forum.DonationRecord{a, b}
}

func TestBuildWorkbook(t *testing.T) {
	f, err := BuildWorkbook(sampleRecords())
	require.NoError(t, err)

	header, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Payment Method", "Date", "Time", "Comment",
		"Gross Amount", "Tax", "Net Amount", "Currency",
	}, header[0])

	require.Equal(t, []string{
		"ЕРИП", "13.01.2025", "13:46:08", "К.Ю. (лошади сено)",
		"30", "0.06", "29.94", "BYN",
	}, header[1])

	// absent comment renders as a blank cell
	comment, err := f.GetCellValue(SheetName, "D3")
	require.NoError(t, err)
	require.Equal(t, "", comment)
}

func TestBuildWorkbookEmpty(t *testing.T) {
	f, err := BuildWorkbook(nil)
	require.NoError(t, err)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestSummary(t *testing.T) {
	records := sampleRecords()
	totals := donations.ComputeTotals(records[:1])
	latest, ok := donations.LatestDate(records)
	require.True(t, ok)

	got := Summary([]string{"сено", "лошадь"}, 1, latest, ok, totals)
	require.Equal(t,
		"Ключевые слова: сено, лошадь\n"+
			"Найдено записей: 1\n"+
			// the latest date reflects the whole dataset even though only
			// one record matched the filter
			"Последняя известная дата: 01.02.2025\n"+
			"Приход: 30.00 BYN\n"+
			"Налог: 0.06 BYN\n"+
			"Итого: 29.94 BYN",
		got)
}

func TestSummaryNoFilterNoData(t *testing.T) {
	got := Summary(nil, 0, time.Time{}, false, donations.Totals{})
	require.Equal(t,
		"Ключевые слова: без фильтра\n"+
			"Найдено записей: 0\n"+
			"Последняя известная дата: нет данных\n"+
			"Приход: 0.00 BYN\n"+
			"Налог: 0.00 BYN\n"+
			"Итого: 0.00 BYN",
		got)
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 2, 1, 10, 30, 0, 0, timezone.Location)

	require.Equal(t, "сено_лошадь.xlsx", Filename("сено, лошадь", now))
	require.Equal(t, "seno.xlsx", Filename("  seno!  ", now))
	require.Equal(t, "donations_20250201_103000.xlsx", Filename("", now))
	require.Equal(t, "donations_20250201_103000.xlsx", Filename("?!, .", now))
}
