package exporter

import (
	"strconv"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// formatFloat renders a float with a fixed number of decimal places.
func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// formatNullableFloat renders a nullable float, empty when absent. Null and
// zero are distinct in several columns (review score, retention rate, order
// gaps), so absence must not render as "0".
func formatNullableFloat(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v, decimals)
}

func formatNullableInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTimestamp(ts time.Time) string {
	return ts.Format(timestampLayout)
}

func formatNullableTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(timestampLayout)
}

func formatDate(ts time.Time) string {
	return ts.Format(dateLayout)
}

func formatMonth(ts time.Time) string {
	return ts.Format("2006-01")
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
