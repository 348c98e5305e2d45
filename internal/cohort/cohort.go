// Package cohort assigns customers to first-purchase-month cohorts and
// computes month-indexed retention rates, overall and per behavioural
// segment. Retention counts are never additive across month indices.
package cohort

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ecomcli/internal/orderfact"
)

// CustomerMonth is one (customer, active month) row. MonthIndex is the whole
// number of months between the activity month and the customer's cohort
// month; a customer's minimum month index is always exactly 0.
type CustomerMonth struct {
	CustomerUniqueID string
	CohortMonth      time.Time
	OrderMonth       time.Time
	MonthIndex       int
	SegmentName      string
}

// Engine computes cohort assignment and retention tables.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a cohort engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Assign produces one row per distinct (customer, activity month) over the
// delivered order facts, sorted by customer then order month.
func (e *Engine) Assign(ctx context.Context, facts []orderfact.Fact) ([]CustomerMonth, error) {
	if len(facts) == 0 {
		return nil, fmt.Errorf("assign cohorts: no order facts")
	}

	cohorts := make(map[string]time.Time)
	segments := make(map[string]string)
	for _, f := range facts {
		month := monthStart(f.PurchaseTS)
		if current, ok := cohorts[f.CustomerUniqueID]; !ok || month.Before(current) {
			cohorts[f.CustomerUniqueID] = month
		}
		segments[f.CustomerUniqueID] = f.SegmentName
	}

	type activityKey struct {
		customer string
		month    time.Time
	}
	seen := make(map[activityKey]struct{})

	var rows []CustomerMonth
	for _, f := range facts {
		month := monthStart(f.PurchaseTS)
		key := activityKey{customer: f.CustomerUniqueID, month: month}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		cohortMonth := cohorts[f.CustomerUniqueID]
		rows = append(rows, CustomerMonth{
			CustomerUniqueID: f.CustomerUniqueID,
			CohortMonth:      cohortMonth,
			OrderMonth:       month,
			MonthIndex:       monthsBetween(cohortMonth, month),
			SegmentName:      segments[f.CustomerUniqueID],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CustomerUniqueID != rows[j].CustomerUniqueID {
			return rows[i].CustomerUniqueID < rows[j].CustomerUniqueID
		}
		return rows[i].OrderMonth.Before(rows[j].OrderMonth)
	})

	e.logger.InfoContext(ctx, "assigned customer cohorts",
		"customers", len(cohorts),
		"customer_months", len(rows),
	)

	return rows, nil
}

// monthStart truncates a timestamp to the first day of its month in UTC.
func monthStart(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthsBetween returns the whole months elapsed from one month start to
// another.
func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
