package reports

import (
	"regexp"
	"strings"
	"time"
)

var unsafeRunes = regexp.MustCompile(`[^\p{L}\p{N}]+`)

const fallbackTimeLayout = "20060102_150405"

// Filename derives a filesystem-safe xlsx name from the raw keyword
// string. When the keywords sanitize away entirely it falls back to a
// timestamped name.
func Filename(rawKeywords string, now time.Time) string {
	token := unsafeRunes.ReplaceAllString(rawKeywords, "_")
	token = strings.Trim(token, "_")
	if token == "" {
		token = "donations_" + now.Format(fallbackTimeLayout)
	}
	return token + ".xlsx"
}
