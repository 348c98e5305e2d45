package datedim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestGenerateInclusiveRange(t *testing.T) {
	rows, err := Generate(date("2023-01-30"), date("2023-02-02"))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, date("2023-01-30"), rows[0].Date)
	assert.Equal(t, date("2023-02-02"), rows[3].Date)
}

func TestGenerateTruncatesToMidnight(t *testing.T) {
	first := time.Date(2023, 3, 10, 14, 22, 5, 0, time.UTC)
	rows, err := Generate(first, first)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, date("2023-03-10"), rows[0].Date)
}

func TestGenerateCalendarAttributes(t *testing.T) {
	// 2023-06-17 is a Saturday in calendar Q2.
	rows, err := Generate(date("2023-06-17"), date("2023-06-18"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	sat := rows[0]
	assert.Equal(t, 2023, sat.Year)
	assert.Equal(t, 2, sat.Quarter)
	assert.Equal(t, 6, sat.Month)
	assert.Equal(t, "June", sat.MonthName)
	assert.Equal(t, 17, sat.Day)
	assert.Equal(t, "Saturday", sat.DayName)
	assert.True(t, sat.IsWeekend)
	assert.Equal(t, date("2023-06-01"), sat.MonthStart)

	sun := rows[1]
	assert.True(t, sun.IsWeekend)
	assert.Equal(t, 0, sun.DayOfWeek)
}

func TestGenerateFiscalAttributes(t *testing.T) {
	tests := []struct {
		name          string
		day           string
		fiscalYear    int
		fiscalQuarter int
		fiscalMonth   int
	}{
		{name: "fiscal year start", day: "2023-04-01", fiscalYear: 2023, fiscalQuarter: 1, fiscalMonth: 1},
		{name: "before fiscal start", day: "2023-03-31", fiscalYear: 2022, fiscalQuarter: 4, fiscalMonth: 12},
		{name: "calendar year end", day: "2023-12-25", fiscalYear: 2023, fiscalQuarter: 3, fiscalMonth: 9},
		{name: "january", day: "2024-01-15", fiscalYear: 2023, fiscalQuarter: 4, fiscalMonth: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Generate(date(tt.day), date(tt.day))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.fiscalYear, rows[0].FiscalYear)
			assert.Equal(t, tt.fiscalQuarter, rows[0].FiscalQuarter)
			assert.Equal(t, tt.fiscalMonth, rows[0].FiscalMonth)
		})
	}
}

func TestGenerateISOWeekAtYearBoundary(t *testing.T) {
	tests := []struct {
		name    string
		day     string
		year    int
		isoYear int
		week    int
	}{
		{name: "late december in next iso year", day: "2024-12-31", year: 2024, isoYear: 2025, week: 1},
		{name: "early january in previous iso year", day: "2021-01-01", year: 2021, isoYear: 2020, week: 53},
		{name: "mid year agrees", day: "2023-06-17", year: 2023, isoYear: 2023, week: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Generate(date(tt.day), date(tt.day))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.year, rows[0].Year)
			assert.Equal(t, tt.isoYear, rows[0].ISOYear)
			assert.Equal(t, tt.week, rows[0].WeekOfYear)
		})
	}
}

func TestGenerateRejectsReversedRange(t *testing.T) {
	_, err := Generate(date("2023-05-01"), date("2023-04-01"))
	assert.Error(t, err)
}
