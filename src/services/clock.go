package services

import (
	"time"

	"github.com/username/pulabus/backend/src/models"
)

// Clock supplies the current time. Services take one so lifecycle
// timestamps are deterministic under test; production wiring passes nil and
// gets time.Now.
type Clock func() time.Time

func orSystemClock(now Clock) Clock {
	if now == nil {
		return time.Now
	}
	return now
}

const dateLayout = "2006-01-02"

// Times are stored as RFC3339 UTC strings so lexical comparison in SQL
// matches chronological order.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := parseTime(s)
	return &t
}

// dayBounds returns the inclusive [00:00:00, 23:59:59] window of the
// calendar day containing t, in UTC.
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Second)
	return start, end
}

// periodBounds widens [startDate, endDate] to whole days.
func periodBounds(startDate, endDate time.Time) (time.Time, time.Time) {
	start, _ := dayBounds(startDate)
	_, end := dayBounds(endDate)
	return start, end
}

func newPeriod(startDate, endDate time.Time) models.Period {
	return models.Period{
		StartDate: startDate.UTC().Format(dateLayout),
		EndDate:   endDate.UTC().Format(dateLayout),
	}
}
