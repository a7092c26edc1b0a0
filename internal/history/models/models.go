// Package models holds the history and export bookkeeping types.
package models

import (
	"time"

	dErrors "radar/pkg/domain-errors"
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// Kind tells whether an export covered one day or a range.
type Kind string

const (
	KindDay   Kind = "day"
	KindRange Kind = "range"
)

// Filter is an inclusive range of query days. From and To are Day values
// (midnight UTC of the calendar date).
type Filter struct {
	From time.Time
	To   time.Time
}

// Kind reports whether the filter spans a single day.
func (f Filter) Kind() Kind {
	if f.From.Equal(f.To) {
		return KindDay
	}
	return KindRange
}

// ParseFilter accepts either date, or from and to. Anything else is a
// validation error.
func ParseFilter(date, from, to string) (Filter, error) {
	if date != "" {
		day, err := ParseDay(date)
		if err != nil {
			return Filter{}, err
		}
		return Filter{From: day, To: day}, nil
	}
	if from == "" || to == "" {
		return Filter{}, dErrors.New(dErrors.CodeValidation, "provide date=YYYY-MM-DD or from=YYYY-MM-DD&to=YYYY-MM-DD")
	}
	start, err := ParseDay(from)
	if err != nil {
		return Filter{}, err
	}
	end, err := ParseDay(to)
	if err != nil {
		return Filter{}, err
	}
	if end.Before(start) {
		return Filter{}, dErrors.New(dErrors.CodeValidation, "from must not be after to")
	}
	return Filter{From: start, To: end}, nil
}

// ParseDay parses YYYY-MM-DD into midnight UTC.
func ParseDay(raw string) (time.Time, error) {
	day, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "dates must use YYYY-MM-DD")
	}
	return day, nil
}

// DayCount is the number of records stored for one query day.
type DayCount struct {
	Day   time.Time
	Total int
}

// ExportBatch records one export: who ran it, the filter and the row count.
type ExportBatch struct {
	ID        int64
	UserID    int64
	UserName  string
	Kind      Kind
	From      time.Time
	To        time.Time
	FileName  string
	Total     int
	CreatedAt time.Time
}

// DefaultFileName is used when the export was created without one.
func (b *ExportBatch) DefaultFileName() string {
	if b.FileName != "" {
		return b.FileName
	}
	return "historico_" + b.From.Format("20060102") + "_" + b.To.Format("20060102")
}
