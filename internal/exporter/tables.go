package exporter

import (
	"strconv"

	"ecomcli/internal/cohort"
	"ecomcli/internal/datedim"
	"ecomcli/internal/features"
	"ecomcli/internal/identity"
	"ecomcli/internal/orderfact"
	"ecomcli/internal/prioritize"
	"ecomcli/internal/rfm"
)

// Published table names. These are the file stems of the CSV outputs and the
// sheet names of the workbook export.
const (
	TableCanonicalCustomers = "canonical_customers"
	TableOrderFacts         = "order_facts"
	TableCustomerRFM        = "customer_rfm"
	TableTimeFeatures       = "customer_time_features"
	TableCustomerCohorts    = "customer_cohorts"
	TableRetention          = "cohort_retention"
	TableSegmentRetention   = "cohort_retention_by_segment"
	TablePrioritized        = "prioritized_customers"
	TableDateDimension      = "date_dimension"
)

// Table is one flat output table ready for writing.
type Table struct {
	Name    string
	Headers []string
	Records [][]string
}

// CanonicalCustomerTable flattens canonical customers.
func CanonicalCustomerTable(rows []identity.CanonicalCustomer) Table {
	t := Table{
		Name: TableCanonicalCustomers,
		Headers: []string{
			"customer_unique_id", "city", "state", "zip_prefix",
			"first_order_ts", "last_order_ts", "order_count", "tenure_days",
		},
	}
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			r.UniqueID, r.City, r.State, r.ZipPrefix,
			formatNullableTimestamp(r.FirstOrderTS),
			formatNullableTimestamp(r.LastOrderTS),
			strconv.Itoa(r.OrderCount),
			formatNullableInt(r.TenureDays),
		})
	}
	return t
}

// OrderFactTable flattens order facts.
func OrderFactTable(rows []orderfact.Fact) Table {
	t := Table{
		Name: TableOrderFacts,
		Headers: []string{
			"order_id", "customer_id", "customer_unique_id", "purchase_ts", "delivered_ts",
			"items_revenue", "freight_value", "gross_order_value",
			"item_count", "distinct_products", "distinct_categories",
			"payment_total", "payment_methods", "max_installments",
			"review_score", "segment_name",
		},
	}
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			r.OrderID, r.CustomerID, r.CustomerUniqueID,
			formatTimestamp(r.PurchaseTS),
			formatNullableTimestamp(r.DeliveredTS),
			formatFloat(r.ItemsRevenue, 2),
			formatFloat(r.FreightValue, 2),
			formatFloat(r.GrossOrderValue, 2),
			strconv.Itoa(r.ItemCount),
			strconv.Itoa(r.DistinctProducts),
			strconv.Itoa(r.DistinctCategories),
			formatFloat(r.PaymentTotal, 2),
			strconv.Itoa(r.PaymentMethods),
			strconv.Itoa(r.MaxInstallments),
			formatNullableFloat(r.ReviewScore, 2),
			r.SegmentName,
		})
	}
	return t
}

// CustomerRFMTable flattens the RFM table.
func CustomerRFMTable(rows []rfm.CustomerRFM) Table {
	t := Table{
		Name: TableCustomerRFM,
		Headers: []string{
			"customer_unique_id", "recency_days", "frequency", "monetary",
			"avg_order_value", "avg_items_per_order", "avg_category_diversity",
			"tenure_days", "avg_days_between_orders",
			"first_purchase_ts", "last_purchase_ts",
		},
	}
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			r.CustomerUniqueID,
			strconv.Itoa(r.RecencyDays),
			strconv.Itoa(r.Frequency),
			formatFloat(r.Monetary, 2),
			formatFloat(r.AvgOrderValue, 2),
			formatFloat(r.AvgItemsPerOrder, 4),
			formatFloat(r.AvgCategoryDiversity, 4),
			strconv.Itoa(r.TenureDays),
			formatNullableFloat(r.AvgDaysBetweenOrders, 4),
			formatTimestamp(r.FirstPurchaseTS),
			formatTimestamp(r.LastPurchaseTS),
		})
	}
	return t
}

// TimeFeatureTable flattens windowed features.
func TimeFeatureTable(rows []features.CustomerTimeFeatures) Table {
	t := Table{
		Name: TableTimeFeatures,
		Headers: []string{
			"customer_unique_id",
			"spend_30d", "spend_90d", "spend_180d",
			"orders_30d", "orders_90d", "orders_180d",
			"lifetime_orders", "lifetime_spend",
			"avg_order_value_180d", "recent_order_ratio", "recent_spend_ratio",
		},
	}
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			r.CustomerUniqueID,
			formatFloat(r.Spend30, 2),
			formatFloat(r.Spend90, 2),
			formatFloat(r.Spend180, 2),
			strconv.Itoa(r.Orders30),
			strconv.Itoa(r.Orders90),
			strconv.Itoa(r.Orders180),
			strconv.Itoa(r.LifetimeOrders),
			formatFloat(r.LifetimeSpend, 2),
			formatFloat(r.AvgOrderValue180, 2),
			formatFloat(r.RecentOrderRatio, 4),
			formatFloat(r.RecentSpendRatio, 4),
		})
	}
	return t
}

// CustomerCohortTable flattens customer month assignments.
func CustomerCohortTable(rows []cohort.CustomerMonth) Table {
	t := Table{
		Name: TableCustomerCohorts,
		Headers: []string{
			"customer_unique_id", "cohort_month", "order_month", "month_index", "segment_name",
		},
	}
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			r.CustomerUniqueID,
			formatMonth(r.CohortMonth),
			formatMonth(r.OrderMonth),
			strconv.Itoa(r.MonthIndex),
			r.SegmentName,
		})
	}
	return t
}

// RetentionTable flattens a retention table; segmented reports carry the
// segment column, the overall table leaves it out.
func RetentionTable(name string, rows []cohort.RetentionRow, segmented bool) Table {
	headers := []string{"cohort_month", "month_index", "cohort_size", "retained_customers", "retention_rate"}
	if segmented {
		headers = append([]string{"segment_name"}, headers...)
	}
	t := Table{Name: name, Headers: headers}
	for _, r := range rows {
		record := []string{
			formatMonth(r.CohortMonth),
			strconv.Itoa(r.MonthIndex),
			strconv.Itoa(r.CohortSize),
			strconv.Itoa(r.RetainedCustomers),
			formatNullableFloat(r.RetentionRate, 4),
		}
		if segmented {
			record = append([]string{r.SegmentName}, record...)
		}
		t.Records = append(t.Records, record)
	}
	return t
}

// PrioritizedTable flattens the prioritized target list.
func PrioritizedTable(rows []prioritize.PrioritizedCustomer) Table {
	t := Table{
		Name: TablePrioritized,
		Headers: []string{
			"customer_unique_id", "churn_risk", "monetary", "value_at_risk",
			"churn_band", "value_band", "risk_decile",
			"priority_band", "recommended_action",
		},
	}
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			r.CustomerUniqueID,
			formatFloat(r.ChurnRisk, 4),
			formatFloat(r.Monetary, 2),
			formatFloat(r.ValueAtRisk, 2),
			strconv.Itoa(r.ChurnBand),
			strconv.Itoa(r.ValueBand),
			strconv.Itoa(r.RiskDecile),
			r.PriorityBand,
			r.RecommendedAction,
		})
	}
	return t
}

// DateDimensionTable flattens the calendar dimension.
func DateDimensionTable(rows []datedim.Row) Table {
	t := Table{
		Name: TableDateDimension,
		Headers: []string{
			"date", "year", "quarter", "month", "month_name", "day",
			"day_of_week", "day_name", "iso_year", "week_of_year", "is_weekend", "month_start",
			"fiscal_year", "fiscal_quarter", "fiscal_month",
		},
	}
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			formatDate(r.Date),
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Quarter),
			strconv.Itoa(r.Month),
			r.MonthName,
			strconv.Itoa(r.Day),
			strconv.Itoa(r.DayOfWeek),
			r.DayName,
			strconv.Itoa(r.ISOYear),
			strconv.Itoa(r.WeekOfYear),
			formatBool(r.IsWeekend),
			formatDate(r.MonthStart),
			strconv.Itoa(r.FiscalYear),
			strconv.Itoa(r.FiscalQuarter),
			strconv.Itoa(r.FiscalMonth),
		})
	}
	return t
}
