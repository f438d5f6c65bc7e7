package reports

import (
	"fmt"
	"strings"
	"time"

	"donorbot-backend/lib/scrapers/forum"
	"donorbot-backend/services/donations"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Donations"

var columns = []interface{}{
	"Payment Method",
	"Date",
	"Time",
	"Comment",
	"Gross Amount",
	"Tax",
	"Net Amount",
	"Currency",
}

// BuildWorkbook renders the record set into a single-sheet xlsx
// document. Numeric columns carry the full float64 values; only the
// summary text rounds for display.
func BuildWorkbook(records []forum.DonationRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SheetName, "A1", &columns); err != nil {
		return nil, err
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			record.PaymentMethod,
			record.Date,
			record.Time,
			record.Comment,
			record.GrossAmount,
			record.Tax,
			record.NetAmount,
			record.Currency,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

const summaryDateLayout = "02.01.2006"

// Summary renders the fixed report message. The latest date comes from
// the entire known dataset, not the filtered subset.
func Summary(terms []string, matched int, latest time.Time, haveLatest bool, totals donations.Totals) string {
	keywords := "без фильтра"
	if len(terms) > 0 {
		keywords = strings.Join(terms, ", ")
	}

	latestText := "нет данных"
	if haveLatest {
		latestText = latest.Format(summaryDateLayout)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ключевые слова: %s\n", keywords)
	fmt.Fprintf(&b, "Найдено записей: %d\n", matched)
	fmt.Fprintf(&b, "Последняя известная дата: %s\n", latestText)
	fmt.Fprintf(&b, "Приход: %.2f %s\n", totals.Gross, forum.Currency)
	fmt.Fprintf(&b, "Налог: %.2f %s\n", totals.Tax, forum.Currency)
	fmt.Fprintf(&b, "Итого: %.2f %s", totals.Net, forum.Currency)
	return b.String()
}
