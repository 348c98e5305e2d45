// Package rfm collapses the order fact table to one recency/frequency/
// monetary row per customer, relative to the shared dataset horizon.
package rfm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"ecomcli/internal/orderfact"
)

// CustomerRFM is the customer-grain behavioural summary. Recency is measured
// against the dataset horizon, not the wall clock, so a frozen extract always
// reproduces the same table. AvgDaysBetweenOrders is nil for single-order
// customers: one order implies no observed cadence.
type CustomerRFM struct {
	CustomerUniqueID string

	RecencyDays int
	Frequency   int
	Monetary    float64

	AvgOrderValue        float64
	AvgItemsPerOrder     float64
	AvgCategoryDiversity float64

	TenureDays           int
	AvgDaysBetweenOrders *float64

	FirstPurchaseTS time.Time
	LastPurchaseTS  time.Time
}

// Aggregator computes the RFM table.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an RFM aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// customerAccumulator is the first-pass grouped state for one customer.
type customerAccumulator struct {
	purchases  []time.Time
	monetary   float64
	items      int
	categories int
	orders     int
}

// Aggregate groups order facts by customer and derives the RFM row for each,
// sorted by customer unique ID. The horizon must be the single shared dataset
// horizon computed from the same fact table.
func (a *Aggregator) Aggregate(ctx context.Context, facts []orderfact.Fact, horizon time.Time) ([]CustomerRFM, error) {
	if len(facts) == 0 {
		return nil, fmt.Errorf("aggregate rfm: no order facts")
	}

	grouped := make(map[string]*customerAccumulator)
	for _, f := range facts {
		acc, ok := grouped[f.CustomerUniqueID]
		if !ok {
			acc = &customerAccumulator{}
			grouped[f.CustomerUniqueID] = acc
		}
		acc.purchases = append(acc.purchases, f.PurchaseTS)
		acc.monetary += f.GrossOrderValue
		acc.items += f.ItemCount
		acc.categories += f.DistinctCategories
		acc.orders++
	}

	result := make([]CustomerRFM, 0, len(grouped))
	for uniqueID, acc := range grouped {
		sort.Slice(acc.purchases, func(i, j int) bool {
			return acc.purchases[i].Before(acc.purchases[j])
		})

		first := acc.purchases[0]
		last := acc.purchases[len(acc.purchases)-1]
		n := float64(acc.orders)

		row := CustomerRFM{
			CustomerUniqueID:     uniqueID,
			RecencyDays:          wholeDays(last, horizon),
			Frequency:            acc.orders,
			Monetary:             round2(acc.monetary),
			AvgOrderValue:        round2(acc.monetary / n),
			AvgItemsPerOrder:     round4(float64(acc.items) / n),
			AvgCategoryDiversity: round4(float64(acc.categories) / n),
			TenureDays:           wholeDays(first, last),
			FirstPurchaseTS:      first,
			LastPurchaseTS:       last,
		}

		if gap, ok := averageGapDays(acc.purchases); ok {
			row.AvgDaysBetweenOrders = &gap
		}

		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerUniqueID < result[j].CustomerUniqueID
	})

	a.logger.InfoContext(ctx, "aggregated customer rfm",
		"customers", len(result),
		"horizon", horizon.Format("2006-01-02"),
	)

	return result, nil
}

// averageGapDays returns the mean of consecutive purchase gaps in fractional
// days, rounded to 4 decimals. The second return is false for customers with
// fewer than two purchases.
func averageGapDays(sorted []time.Time) (float64, bool) {
	if len(sorted) < 2 {
		return 0, false
	}
	total := 0.0
	for i := 1; i < len(sorted); i++ {
		total += sorted[i].Sub(sorted[i-1]).Hours() / 24
	}
	return round4(total / float64(len(sorted)-1)), true
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
