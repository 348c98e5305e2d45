// Package identity collapses raw customer records into one canonical row per
// unique customer, resolving conflicting location attributes by majority vote.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ecomcli/internal/dataset"
)

// CanonicalCustomer is the deduplicated identity and location record for one
// unique customer. Order-derived fields are nil for customers that never had
// a delivered order; such customers still resolve a location.
type CanonicalCustomer struct {
	UniqueID  string
	City      string
	State     string
	ZipPrefix string

	FirstOrderTS *time.Time
	LastOrderTS  *time.Time
	OrderCount   int
	TenureDays   *int
}

// Resolver builds canonical customers from raw records.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates an identity resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// location is one observed (city, state, zip) combination.
type location struct {
	City      string
	State     string
	ZipPrefix string
}

// Resolve emits exactly one canonical row per unique ID present in the raw
// customer records, sorted by unique ID. Results are independent of input
// row order: ties in the location vote break on ascending city, then state,
// then zip prefix.
func (r *Resolver) Resolve(ctx context.Context, customers []dataset.RawCustomer, orders []dataset.RawOrder) ([]CanonicalCustomer, error) {
	if len(customers) == 0 {
		return nil, fmt.Errorf("resolve identities: %w", dataset.ErrEmptyTable)
	}

	votes := make(map[string]map[location]int)
	for _, c := range customers {
		loc := location{City: c.City, State: c.State, ZipPrefix: c.ZipPrefix}
		if votes[c.UniqueID] == nil {
			votes[c.UniqueID] = make(map[location]int)
		}
		votes[c.UniqueID][loc]++
	}

	orderSpans := r.deliveredSpans(customers, orders)

	result := make([]CanonicalCustomer, 0, len(votes))
	ties := 0
	for uniqueID, counts := range votes {
		loc, tied := resolveLocation(counts)
		if tied {
			ties++
			r.logger.WarnContext(ctx, "location vote tied, resolved lexically",
				"customer_unique_id", uniqueID,
				"city", loc.City,
				"state", loc.State,
			)
		}

		row := CanonicalCustomer{
			UniqueID:  uniqueID,
			City:      loc.City,
			State:     loc.State,
			ZipPrefix: loc.ZipPrefix,
		}
		if span, ok := orderSpans[uniqueID]; ok {
			first, last := span.first, span.last
			row.FirstOrderTS = &first
			row.LastOrderTS = &last
			row.OrderCount = span.count
			tenure := wholeDays(span.first, span.last)
			row.TenureDays = &tenure
		}
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UniqueID < result[j].UniqueID
	})

	r.logger.InfoContext(ctx, "resolved customer identities",
		"raw_records", len(customers),
		"unique_customers", len(result),
		"location_ties", ties,
	)

	return result, nil
}

// resolveLocation picks the most frequent location; ties break on ascending
// city, then state, then zip prefix. The second return reports whether the
// winning count was shared, as a data-quality signal.
func resolveLocation(counts map[location]int) (location, bool) {
	var best location
	bestCount := -1
	tied := false

	locs := make([]location, 0, len(counts))
	for loc := range counts {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].City != locs[j].City {
			return locs[i].City < locs[j].City
		}
		if locs[i].State != locs[j].State {
			return locs[i].State < locs[j].State
		}
		return locs[i].ZipPrefix < locs[j].ZipPrefix
	})

	for _, loc := range locs {
		switch {
		case counts[loc] > bestCount:
			best = loc
			bestCount = counts[loc]
			tied = false
		case counts[loc] == bestCount:
			// best already sorts before loc, keep it.
			tied = true
		}
	}

	return best, tied
}

type orderSpan struct {
	first time.Time
	last  time.Time
	count int
}

// deliveredSpans aggregates delivered orders to unique-customer grain.
func (r *Resolver) deliveredSpans(customers []dataset.RawCustomer, orders []dataset.RawOrder) map[string]orderSpan {
	uniqueByCustomer := make(map[string]string, len(customers))
	for _, c := range customers {
		uniqueByCustomer[c.CustomerID] = c.UniqueID
	}

	spans := make(map[string]orderSpan)
	for _, o := range orders {
		if !o.IsDelivered() {
			continue
		}
		uniqueID, ok := uniqueByCustomer[o.CustomerID]
		if !ok {
			continue
		}
		ts := *o.PurchaseTS
		span, seen := spans[uniqueID]
		if !seen {
			spans[uniqueID] = orderSpan{first: ts, last: ts, count: 1}
			continue
		}
		if ts.Before(span.first) {
			span.first = ts
		}
		if ts.After(span.last) {
			span.last = ts
		}
		span.count++
		spans[uniqueID] = span
	}
	return spans
}

// wholeDays returns the integer number of days between two timestamps.
func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
