// Package prioritize combines externally supplied churn probabilities with
// RFM monetary value to rank customers into risk and value bands and a
// recommended retention action.
package prioritize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"ecomcli/internal/dataset"
	"ecomcli/internal/rfm"
)

// Priority band labels.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// PrioritizedCustomer is one ranked customer. Band 1 is the top tertile
// (highest risk or highest value); RiskDecile runs 0..9 with 9 the highest
// churn risk.
type PrioritizedCustomer struct {
	CustomerUniqueID string
	ChurnRisk        float64
	Monetary         float64
	ValueAtRisk      float64

	ChurnBand  int
	ValueBand  int
	RiskDecile int

	PriorityBand      string
	RecommendedAction string
}

// Engine ranks customers for retention targeting.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a prioritization engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Rank joins churn scores onto RFM rows and assigns bands, sorted by
// descending value at risk then customer ID. Customers without a churn score
// are excluded and logged: score coverage is owned by the external scoring
// step, and a fabricated risk would distort every band boundary.
func (e *Engine) Rank(ctx context.Context, rfms []rfm.CustomerRFM, scores []dataset.ChurnScore) ([]PrioritizedCustomer, error) {
	if len(rfms) == 0 {
		return nil, fmt.Errorf("prioritize customers: no rfm rows")
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("prioritize customers: no churn scores: %w", dataset.ErrEmptyTable)
	}

	riskByCustomer := make(map[string]float64, len(scores))
	for _, s := range scores {
		riskByCustomer[s.CustomerUniqueID] = s.ChurnRisk
	}

	customers := make([]PrioritizedCustomer, 0, len(rfms))
	unscored := 0
	for _, r := range rfms {
		risk, ok := riskByCustomer[r.CustomerUniqueID]
		if !ok {
			unscored++
			continue
		}
		customers = append(customers, PrioritizedCustomer{
			CustomerUniqueID: r.CustomerUniqueID,
			ChurnRisk:        round4(risk),
			Monetary:         r.Monetary,
			ValueAtRisk:      round2(risk * r.Monetary),
		})
	}
	if unscored > 0 {
		e.logger.WarnContext(ctx, "customers without churn score excluded from prioritization",
			"excluded", unscored)
	}
	if len(customers) == 0 {
		return nil, fmt.Errorf("prioritize customers: no customer has a churn score")
	}

	assignTertiles(customers, func(c *PrioritizedCustomer) float64 { return c.ChurnRisk },
		func(c *PrioritizedCustomer, band int) { c.ChurnBand = band })
	assignTertiles(customers, func(c *PrioritizedCustomer) float64 { return c.Monetary },
		func(c *PrioritizedCustomer, band int) { c.ValueBand = band })
	assignRiskDeciles(customers)

	for i := range customers {
		customers[i].PriorityBand = priorityBand(customers[i].ChurnBand, customers[i].ValueBand)
		customers[i].RecommendedAction = recommendedAction(customers[i].ChurnBand, customers[i].ValueBand)
	}

	sort.Slice(customers, func(i, j int) bool {
		if customers[i].ValueAtRisk != customers[j].ValueAtRisk {
			return customers[i].ValueAtRisk > customers[j].ValueAtRisk
		}
		return customers[i].CustomerUniqueID < customers[j].CustomerUniqueID
	})

	e.logger.InfoContext(ctx, "prioritized customers",
		"customers", len(customers),
		"unscored_excluded", unscored,
	)

	return customers, nil
}

// assignTertiles splits the customers into three nearly-equal contiguous
// partitions by descending key and assigns partition index 1..3. Partition
// boundaries fall at multiples of ceil(n/3), so the remainder shrinks the
// last partition. Ties at a boundary keep the stable pre-sort input order;
// the ranking is positional, not value-bucketed.
func assignTertiles(customers []PrioritizedCustomer, key func(*PrioritizedCustomer) float64, set func(*PrioritizedCustomer, int)) {
	order := make([]int, len(customers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return key(&customers[order[a]]) > key(&customers[order[b]])
	})

	chunk := (len(customers) + 2) / 3
	for pos, idx := range order {
		band := pos/chunk + 1
		if band > 3 {
			band = 3
		}
		set(&customers[idx], band)
	}
}

// assignRiskDeciles assigns 0..9 by ascending churn risk position, so the
// top-risk partition lands in decile 9, matching the scoring step's
// validation column.
func assignRiskDeciles(customers []PrioritizedCustomer) {
	order := make([]int, len(customers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return customers[order[a]].ChurnRisk > customers[order[b]].ChurnRisk
	})

	chunk := (len(customers) + 9) / 10
	for pos, idx := range order {
		decile := 9 - pos/chunk
		if decile < 0 {
			decile = 0
		}
		customers[idx].RiskDecile = decile
	}
}

// priorityBand maps the band pair to HIGH/MEDIUM/LOW. The asymmetry is
// deliberate: top risk with second-tier value, or top value with second-tier
// risk, still earns MEDIUM.
func priorityBand(churnBand, valueBand int) string {
	switch {
	case churnBand == 1 && valueBand == 1:
		return PriorityHigh
	case churnBand == 1 && valueBand == 2:
		return PriorityMedium
	case churnBand == 2 && valueBand == 1:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
