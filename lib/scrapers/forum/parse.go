package forum

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"donorbot-backend/lib/timezone"
)

// Currency is the only currency the forum posts donations in.
const Currency = "BYN"

// the two payment channels donors paste receipts from
const (
	MethodERIP = "ЕРИП"
	MethodCard = "Карта"
)

// DonationRecord is one parsed donation line. Immutable once built.
type DonationRecord struct {
	PaymentMethod string
	// Date and Time keep the source's textual form (DD.MM.YYYY, HH:MM:SS)
	Date string
	Time string
	// DateTime is the calendar value of Date+Time in Minsk local time.
	// Sorting always goes through DateTime, never the raw strings:
	// "01.02.2025" < "15.01.2025" lexically but not chronologically.
	DateTime time.Time
	// Comment is the donor's free text, "" when absent
	Comment     string
	GrossAmount float64
	Tax         float64
	NetAmount   float64
	Currency    string
}

// <method> <DD.MM.YYYY> <HH:MM:SS> <free text> <gross> <tax> <net> BYN
//
// the free-text group is lazy so it cannot swallow leading digits of
// the gross amount
var donationLineRegex = regexp.MustCompile(
	`^(ЕРИП|Карта) (\d{2}\.\d{2}\.\d{4}) (\d{2}:\d{2}:\d{2}) ?(.*?) ?(\d+(?:\.\d+)?) (\d+(?:\.\d+)?) (\d+(?:\.\d+)?) BYN$`,
)

var numericToken = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

const dateTimeLayout = "02.01.2006 15:04:05"

// ParseDonationLine matches one whitespace-collapsed line against the
// fixed receipt shape. Lines of any other shape are rejected with
// ok=false, partial records are never produced.
func ParseDonationLine(line string) (DonationRecord, bool) {
	groups := donationLineRegex.FindStringSubmatch(line)
	if groups == nil {
		return DonationRecord{}, false
	}

	dateTime, err := time.ParseInLocation(
		dateTimeLayout,
		groups[2]+" "+groups[3],
		timezone.Location,
	)
	if err != nil {
		// shape matched but the calendar value is nonsense (e.g. month 13)
		return DonationRecord{}, false
	}

	gross, err := strconv.ParseFloat(groups[5], 64)
	if err != nil {
		return DonationRecord{}, false
	}
	tax, err := strconv.ParseFloat(groups[6], 64)
	if err != nil {
		return DonationRecord{}, false
	}
	net, err := strconv.ParseFloat(groups[7], 64)
	if err != nil {
		return DonationRecord{}, false
	}

	return DonationRecord{
		PaymentMethod: groups[1],
		Date:          groups[2],
		Time:          groups[3],
		DateTime:      dateTime,
		Comment:       stripTrailingNumbers(groups[4]),
		GrossAmount:   gross,
		Tax:           tax,
		NetAmount:     net,
		Currency:      Currency,
	}, true
}

// drops amount-like tokens off the end of a captured comment, leaving
// "" when nothing but numeric residue was there
func stripTrailingNumbers(comment string) string {
	tokens := strings.Split(comment, " ")
	end := len(tokens)
	for end > 0 && numericToken.MatchString(tokens[end-1]) {
		end--
	}
	return strings.Join(tokens[:end], " ")
}
