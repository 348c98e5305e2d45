// Package features computes rolling 30/90/180-day spend and order-count
// features per customer, relative to the shared dataset horizon.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"ecomcli/internal/orderfact"
)

// Window sizes in days. The 180-day window also drives the derived ratios
// consumed by the churn model.
const (
	Window30  = 30
	Window90  = 90
	Window180 = 180
)

// CustomerTimeFeatures is the customer-grain windowed activity row. The
// derived ratios are true zeros when the denominator is zero: absence of
// recent activity is signal, not a missing value.
type CustomerTimeFeatures struct {
	CustomerUniqueID string

	Spend30  float64
	Spend90  float64
	Spend180 float64

	Orders30  int
	Orders90  int
	Orders180 int

	LifetimeOrders int
	LifetimeSpend  float64

	AvgOrderValue180 float64
	RecentOrderRatio float64
	RecentSpendRatio float64
}

// Engine computes time-window features.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a time-window feature engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// windowAccumulator is the first-pass grouped state for one customer.
type windowAccumulator struct {
	spend  [3]float64
	orders [3]int

	lifetimeOrders int
	lifetimeSpend  float64
}

// Compute groups order facts by customer and derives windowed features,
// sorted by customer unique ID. The horizon must be the identical value the
// RFM aggregation used; the two tables feed the same model and must not see
// different reference points.
func (e *Engine) Compute(ctx context.Context, facts []orderfact.Fact, horizon time.Time) ([]CustomerTimeFeatures, error) {
	if len(facts) == 0 {
		return nil, fmt.Errorf("compute time features: no order facts")
	}

	windows := [3]int{Window30, Window90, Window180}

	grouped := make(map[string]*windowAccumulator)
	for _, f := range facts {
		acc, ok := grouped[f.CustomerUniqueID]
		if !ok {
			acc = &windowAccumulator{}
			grouped[f.CustomerUniqueID] = acc
		}
		acc.lifetimeOrders++
		acc.lifetimeSpend += f.GrossOrderValue

		age := horizon.Sub(f.PurchaseTS)
		for i, w := range windows {
			// An order exactly W days before the horizon is inside the window.
			if age >= 0 && age <= time.Duration(w)*24*time.Hour {
				acc.spend[i] += f.GrossOrderValue
				acc.orders[i]++
			}
		}
	}

	result := make([]CustomerTimeFeatures, 0, len(grouped))
	for uniqueID, acc := range grouped {
		row := CustomerTimeFeatures{
			CustomerUniqueID: uniqueID,
			Spend30:          round2(acc.spend[0]),
			Spend90:          round2(acc.spend[1]),
			Spend180:         round2(acc.spend[2]),
			Orders30:         acc.orders[0],
			Orders90:         acc.orders[1],
			Orders180:        acc.orders[2],
			LifetimeOrders:   acc.lifetimeOrders,
			LifetimeSpend:    round2(acc.lifetimeSpend),
		}

		if row.Orders180 > 0 {
			row.AvgOrderValue180 = round2(row.Spend180 / float64(row.Orders180))
		}
		if row.LifetimeOrders > 0 {
			row.RecentOrderRatio = round4(float64(row.Orders180) / float64(row.LifetimeOrders))
		}
		if row.LifetimeSpend > 0 {
			row.RecentSpendRatio = round4(row.Spend180 / row.LifetimeSpend)
		}

		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerUniqueID < result[j].CustomerUniqueID
	})

	e.logger.InfoContext(ctx, "computed time-window features",
		"customers", len(result),
		"horizon", horizon.Format("2006-01-02"),
	)

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
