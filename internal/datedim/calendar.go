// Package datedim generates the calendar join dimension: one row per day in
// the observed date range with calendar and fiscal attributes.
package datedim

import (
	"fmt"
	"time"
)

// FiscalYearStartMonth is the first month of the fiscal year (April).
const FiscalYearStartMonth = 4

// Row is one calendar day with its calendar and fiscal attributes.
type Row struct {
	Date       time.Time
	Year       int
	Quarter    int
	Month      int
	MonthName  string
	Day        int
	DayOfWeek  int
	DayName    string

	// ISOYear pairs with WeekOfYear: ISO 8601 assigns the days around a year
	// boundary to a week of the adjacent year, so Dec 29-31 can fall in week
	// 1 of ISOYear = Year+1 and Jan 1-3 in week 52/53 of ISOYear = Year-1.
	ISOYear    int
	WeekOfYear int

	IsWeekend  bool
	MonthStart time.Time

	FiscalYear    int
	FiscalQuarter int
	FiscalMonth   int
}

// Generate produces one row per day from first to last inclusive, both
// truncated to midnight UTC.
func Generate(first, last time.Time) ([]Row, error) {
	start := dayStart(first)
	end := dayStart(last)
	if end.Before(start) {
		return nil, fmt.Errorf("generate date dimension: range end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var rows []Row
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		month := int(d.Month())
		weekday := int(d.Weekday())
		isoYear, week := d.ISOWeek()
		fiscalMonth := ((month - FiscalYearStartMonth + 12) % 12) + 1

		rows = append(rows, Row{
			Date:       d,
			Year:       d.Year(),
			Quarter:    (month-1)/3 + 1,
			Month:      month,
			MonthName:  d.Month().String(),
			Day:        d.Day(),
			DayOfWeek:  weekday,
			DayName:    d.Weekday().String(),
			ISOYear:    isoYear,
			WeekOfYear: week,
			IsWeekend:  weekday == 0 || weekday == 6,
			MonthStart: time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC),

			FiscalYear:    fiscalYear(d),
			FiscalQuarter: (fiscalMonth-1)/3 + 1,
			FiscalMonth:   fiscalMonth,
		})
	}

	return rows, nil
}

// fiscalYear returns the fiscal year a date belongs to; the fiscal year is
// labelled by its starting calendar year.
func fiscalYear(d time.Time) int {
	if int(d.Month()) >= FiscalYearStartMonth {
		return d.Year()
	}
	return d.Year() - 1
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
