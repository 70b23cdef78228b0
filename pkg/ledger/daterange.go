package ledger

import (
	"fmt"
	"time"
)

// ParseDateRange parses inclusive calendar bounds in YYYY-MM-DD form into
// the timestamp window [start 00:00:00, end 23:59:59.999999999] UTC.
//
// Fails with ErrBadDateRange on unparsable dates or when end precedes
// start.
func ParseDateRange(startDate, endDate string) (start, end time.Time, err error) {
	start, err = time.Parse(time.DateOnly, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q: %v", ErrBadDateRange, startDate, err)
	}

	end, err = time.Parse(time.DateOnly, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q: %v", ErrBadDateRange, endDate, err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s before start %s", ErrBadDateRange, endDate, startDate)
	}

	// The end bound covers the whole closing day.
	end = end.Add(24*time.Hour - time.Nanosecond)

	return start, end, nil
}
