package cohort

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// RetentionRow is one (cohort month, month index) cell of the retention
// table, optionally sliced by segment (SegmentName empty for the overall
// table). RetentionRate is nil when the cohort size is zero; the division is
// guarded, never coerced to 0.
type RetentionRow struct {
	CohortMonth       time.Time
	MonthIndex        int
	SegmentName       string
	CohortSize        int
	RetainedCustomers int
	RetentionRate     *float64
}

// Retention computes the overall retention table from assigned customer
// months, sorted by cohort month then month index.
func (e *Engine) Retention(ctx context.Context, months []CustomerMonth) ([]RetentionRow, error) {
	if len(months) == 0 {
		return nil, fmt.Errorf("compute retention: no customer months")
	}
	rows := retentionRows(months, func(CustomerMonth) string { return "" })
	e.logger.InfoContext(ctx, "computed cohort retention", "rows", len(rows))
	return rows, nil
}

// RetentionBySegment computes the per-segment retention table. The segmented
// cohort size counts only customers present at month index 0 within the
// segment; a customer whose segment never appears at month 0 is excluded
// from that segment's base.
func (e *Engine) RetentionBySegment(ctx context.Context, months []CustomerMonth) ([]RetentionRow, error) {
	if len(months) == 0 {
		return nil, fmt.Errorf("compute segmented retention: no customer months")
	}
	rows := retentionRows(months, func(m CustomerMonth) string { return m.SegmentName })
	e.logger.InfoContext(ctx, "computed segmented cohort retention", "rows", len(rows))
	return rows, nil
}

type retentionKey struct {
	cohort  time.Time
	index   int
	segment string
}

type baseKey struct {
	cohort  time.Time
	segment string
}

// retentionRows builds the retention table for one slicing function. The
// cohort base is the distinct customer count at month index 0 per (cohort,
// slice); retained counts are distinct customers per (cohort, index, slice).
func retentionRows(months []CustomerMonth, slice func(CustomerMonth) string) []RetentionRow {
	type memberKey struct {
		cohort   time.Time
		index    int
		segment  string
		customer string
	}
	seen := make(map[memberKey]struct{})

	bases := make(map[baseKey]int)
	retained := make(map[retentionKey]int)

	for _, m := range months {
		segment := slice(m)
		member := memberKey{cohort: m.CohortMonth, index: m.MonthIndex, segment: segment, customer: m.CustomerUniqueID}
		if _, dup := seen[member]; dup {
			continue
		}
		seen[member] = struct{}{}

		key := retentionKey{cohort: m.CohortMonth, index: m.MonthIndex, segment: segment}
		retained[key]++
		if m.MonthIndex == 0 {
			bases[baseKey{cohort: m.CohortMonth, segment: segment}]++
		}
	}

	rows := make([]RetentionRow, 0, len(retained))
	for key, count := range retained {
		row := RetentionRow{
			CohortMonth:       key.cohort,
			MonthIndex:        key.index,
			SegmentName:       key.segment,
			CohortSize:        bases[baseKey{cohort: key.cohort, segment: key.segment}],
			RetainedCustomers: count,
		}
		if row.CohortSize > 0 {
			rate := round4(float64(row.RetainedCustomers) / float64(row.CohortSize))
			row.RetentionRate = &rate
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CohortMonth.Equal(rows[j].CohortMonth) {
			return rows[i].CohortMonth.Before(rows[j].CohortMonth)
		}
		if rows[i].SegmentName != rows[j].SegmentName {
			return rows[i].SegmentName < rows[j].SegmentName
		}
		return rows[i].MonthIndex < rows[j].MonthIndex
	})

	return rows
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
