package feed

import (
	"math"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// actionDateLayouts in order of attempt: fractional-second ISO-8601,
// whole-second ISO-8601, space-separated without zone marker. A trailing
// zone marker is stripped before parsing; values are naive local time.
var actionDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseActionDate normalizes a textual date. A blank value means "no dated
// event" and yields (nil, nil), not an error.
func ParseActionDate(value string) (*time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return nil, nil
	}
	cleaned = strings.TrimRight(cleaned, "Zz")

	for _, layout := range actionDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return &t, nil
		}
	}

	return nil, goerr.New("unrecognized date format", goerr.V("value", value))
}

// excelEpoch is day zero of the spreadsheet serial date system
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// serialToTime converts a spreadsheet date serial: whole part is days since
// the 1899-12-30 epoch, fractional part is time of day.
func serialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	seconds := math.Floor((serial - days) * 86400)
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second)
}
