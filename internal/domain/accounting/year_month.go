package accounting

import (
	"cmp"
	"fmt"
	"time"
)

// YearMonth is the (year, month) dimension shared by credit and budget snapshots
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewYearMonth validates the month and year ranges
func NewYearMonth(year int, month time.Month) (YearMonth, error) {
	if month < time.January || month > time.December {
		return YearMonth{}, ValidationError{Field: "month", Reason: fmt.Sprintf("%d is not between 1 and 12", month)}
	}
	if year < 1 || year > 9999 {
		return YearMonth{}, ValidationError{Field: "year", Reason: fmt.Sprintf("%d is out of range", year)}
	}
	return YearMonth{Year: year, Month: month}, nil
}

// YearMonthOf returns the month containing t
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the "2006-01" form
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, ValidationError{Field: "year_month", Reason: fmt.Sprintf("%q is not in YYYY-MM form", s)}
	}
	return YearMonthOf(t), nil
}

func (ym YearMonth) ordinal() int {
	return ym.Year*12 + int(ym.Month) - 1
}

// Before reports whether ym is strictly earlier than other
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.ordinal() < other.ordinal()
}

// After reports whether ym is strictly later than other
func (ym YearMonth) After(other YearMonth) bool {
	return ym.ordinal() > other.ordinal()
}

// Compare returns -1, 0 or +1 ordering ym against other
func (ym YearMonth) Compare(other YearMonth) int {
	return cmp.Compare(ym.ordinal(), other.ordinal())
}

// Next returns the following month
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// MonthsUntil counts months from ym to other, negative when other is earlier.
func (ym YearMonth) MonthsUntil(other YearMonth) int {
	return other.ordinal() - ym.ordinal()
}

// FirstDay returns midnight UTC of the first day of the month
func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether ym is the zero value
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
