package feed

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func TestParseActionDate_Cascade(t *testing.T) {
	// All spellings of the same wall-clock instant normalize identically
	// (fractional seconds aside).
	want := time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"fractional with zone marker", "2024-01-05T10:00:00.500Z", want.Add(500 * time.Millisecond)},
		{"whole second ISO", "2024-01-05T10:00:00", want},
		{"whole second with zone marker", "2024-01-05T10:00:00Z", want},
		{"space separated", "2024-01-05 10:00:00", want},
		{"padded", "  2024-01-05T10:00:00  ", want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseActionDate(tt.value)
			gt.NoError(t, err).Required()
			gt.Value(t, got).NotNil()
			gt.Bool(t, got.Equal(tt.want)).True()
		})
	}
}

func TestParseActionDate_Blank(t *testing.T) {
	for _, value := range []string{"", "   "} {
		got, err := ParseActionDate(value)
		gt.NoError(t, err)
		gt.Value(t, got).Nil()
	}
}

func TestParseActionDate_Garbage(t *testing.T) {
	_, err := ParseActionDate("05/01/2024")
	gt.Error(t, err)
}

func TestSerialToTime(t *testing.T) {
	// 45000 days past 1899-12-30 plus half a day
	got := serialToTime(45000.5)
	gt.Value(t, got).Equal(time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC))

	// epoch itself
	gt.Value(t, serialToTime(0)).Equal(time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC))
}
