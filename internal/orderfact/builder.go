// Package orderfact builds the order-grain fact table: one row per delivered
// order, with line items, payments and reviews pre-aggregated to order grain
// before the join so no order row is ever duplicated.
package orderfact

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"ecomcli/internal/dataset"
)

// Fact is one delivered order with its child aggregates and the customer and
// segment join already applied. Financial and count fields default to zero
// when an order has no matching child rows; ReviewScore stays nil because a
// missing review is meaningful, not a zero rating.
type Fact struct {
	OrderID          string
	CustomerID       string
	CustomerUniqueID string
	PurchaseTS       time.Time
	DeliveredTS      *time.Time

	ItemsRevenue    float64
	FreightValue    float64
	GrossOrderValue float64

	ItemCount          int
	DistinctProducts   int
	DistinctCategories int

	PaymentTotal    float64
	PaymentMethods  int
	MaxInstallments int

	ReviewScore *float64

	SegmentName string
}

// Builder assembles order facts from a raw extract.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates an order fact builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// itemAggregate holds order-grain aggregates of the line item table.
type itemAggregate struct {
	revenue    float64
	freight    float64
	count      int
	products   map[string]struct{}
	categories map[string]struct{}
}

// paymentAggregate holds order-grain aggregates of the payment table.
type paymentAggregate struct {
	total           float64
	methods         map[string]struct{}
	maxInstallments int
}

// reviewAggregate holds order-grain aggregates of the review table.
type reviewAggregate struct {
	scoreSum float64
	count    int
}

// Build produces exactly one fact per delivered order, sorted by order ID.
// Orders whose customer record is missing are dropped with a warning: they
// cannot be attributed to a unique customer and would corrupt every
// customer-grain table downstream.
func (b *Builder) Build(ctx context.Context, extract *dataset.Extract) ([]Fact, error) {
	delivered := extract.DeliveredOrders()
	if len(delivered) == 0 {
		return nil, fmt.Errorf("build order facts: no delivered orders: %w", dataset.ErrEmptyTable)
	}

	categoryByProduct := make(map[string]string, len(extract.Products))
	for _, p := range extract.Products {
		categoryByProduct[p.ProductID] = p.CategoryName
	}

	items := b.aggregateItems(extract.Items, categoryByProduct)
	payments := b.aggregatePayments(extract.Payments)
	reviews := b.aggregateReviews(extract.Reviews)

	uniqueByCustomer := extract.UniqueIDByCustomerID()
	segmentByUnique := extract.SegmentByUniqueID()

	facts := make([]Fact, 0, len(delivered))
	unattributed := 0
	for _, o := range delivered {
		uniqueID, ok := uniqueByCustomer[o.CustomerID]
		if !ok {
			unattributed++
			b.logger.WarnContext(ctx, "order has no customer record, dropping",
				"order_id", o.OrderID,
				"customer_id", o.CustomerID,
			)
			continue
		}

		fact := Fact{
			OrderID:          o.OrderID,
			CustomerID:       o.CustomerID,
			CustomerUniqueID: uniqueID,
			PurchaseTS:       *o.PurchaseTS,
			DeliveredTS:      o.DeliveredTS,
			SegmentName:      segmentName(segmentByUnique, uniqueID),
		}

		if agg, ok := items[o.OrderID]; ok {
			fact.ItemsRevenue = round2(agg.revenue)
			fact.FreightValue = round2(agg.freight)
			fact.ItemCount = agg.count
			fact.DistinctProducts = len(agg.products)
			fact.DistinctCategories = len(agg.categories)
		}
		fact.GrossOrderValue = round2(fact.ItemsRevenue + fact.FreightValue)

		if agg, ok := payments[o.OrderID]; ok {
			fact.PaymentTotal = round2(agg.total)
			fact.PaymentMethods = len(agg.methods)
			fact.MaxInstallments = agg.maxInstallments
		}

		if agg, ok := reviews[o.OrderID]; ok && agg.count > 0 {
			score := round2(agg.scoreSum / float64(agg.count))
			fact.ReviewScore = &score
		}

		facts = append(facts, fact)
	}

	if len(facts) == 0 {
		return nil, fmt.Errorf("build order facts: no attributable delivered orders")
	}

	sort.Slice(facts, func(i, j int) bool {
		return facts[i].OrderID < facts[j].OrderID
	})

	b.logger.InfoContext(ctx, "built order fact table",
		"delivered_orders", len(delivered),
		"facts", len(facts),
		"unattributed_orders", unattributed,
	)

	return facts, nil
}

func (b *Builder) aggregateItems(items []dataset.RawOrderItem, categoryByProduct map[string]string) map[string]*itemAggregate {
	result := make(map[string]*itemAggregate)
	for _, item := range items {
		agg, ok := result[item.OrderID]
		if !ok {
			agg = &itemAggregate{
				products:   make(map[string]struct{}),
				categories: make(map[string]struct{}),
			}
			result[item.OrderID] = agg
		}
		agg.revenue += item.Price
		agg.freight += item.FreightValue
		agg.count++
		agg.products[item.ProductID] = struct{}{}
		// Products without a known category contribute no distinct category.
		if category := categoryByProduct[item.ProductID]; category != "" {
			agg.categories[category] = struct{}{}
		}
	}
	return result
}

func (b *Builder) aggregatePayments(payments []dataset.RawPayment) map[string]*paymentAggregate {
	result := make(map[string]*paymentAggregate)
	for _, p := range payments {
		agg, ok := result[p.OrderID]
		if !ok {
			agg = &paymentAggregate{methods: make(map[string]struct{})}
			result[p.OrderID] = agg
		}
		agg.total += p.PaymentValue
		agg.methods[p.PaymentType] = struct{}{}
		if p.Installments > agg.maxInstallments {
			agg.maxInstallments = p.Installments
		}
	}
	return result
}

func (b *Builder) aggregateReviews(reviews []dataset.RawReview) map[string]*reviewAggregate {
	result := make(map[string]*reviewAggregate)
	for _, r := range reviews {
		agg, ok := result[r.OrderID]
		if !ok {
			agg = &reviewAggregate{}
			result[r.OrderID] = agg
		}
		agg.scoreSum += float64(r.ReviewScore)
		agg.count++
	}
	return result
}

func segmentName(segments map[string]string, uniqueID string) string {
	if name, ok := segments[uniqueID]; ok {
		return name
	}
	return dataset.SegmentUnknown
}

// Horizon returns the dataset horizon: the maximum purchase timestamp across
// all order facts. Every recency and window computation shares this single
// value; recomputing it per stage is a correctness defect.
func Horizon(facts []Fact) (time.Time, error) {
	if len(facts) == 0 {
		return time.Time{}, fmt.Errorf("dataset horizon: no order facts")
	}
	horizon := facts[0].PurchaseTS
	for _, f := range facts[1:] {
		if f.PurchaseTS.After(horizon) {
			horizon = f.PurchaseTS
		}
	}
	return horizon, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
