package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File names of the raw extract as produced by the upstream export. External
// collaborator outputs (churn scores, segments) are optional files in the
// same directory.
const (
	customersFile = "olist_customers_dataset.csv"
	ordersFile    = "olist_orders_dataset.csv"
	itemsFile     = "olist_order_items_dataset.csv"
	paymentsFile  = "olist_order_payments_dataset.csv"
	reviewsFile   = "olist_order_reviews_dataset.csv"
	productsFile  = "olist_products_dataset.csv"
	churnFile     = "customer_churn_scores.csv"
	segmentsFile  = "customer_segments.csv"
)

const timestampLayout = "2006-01-02 15:04:05"

// CSVSource loads a raw extract from a directory of CSV files.
type CSVSource struct {
	dir    string
	logger *slog.Logger
}

// NewCSVSource creates a source reading the raw CSV files under dir.
func NewCSVSource(dir string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{dir: dir, logger: logger}
}

// Load reads every raw table from the source directory.
func (s *CSVSource) Load(ctx context.Context) (*Extract, error) {
	start := time.Now()
	extract := &Extract{}

	loaders := []struct {
		file     string
		optional bool
		parse    func(*csvTable) error
	}{
		{customersFile, false, func(t *csvTable) error { return s.parseCustomers(t, extract) }},
		{ordersFile, false, func(t *csvTable) error { return s.parseOrders(t, extract) }},
		{itemsFile, false, func(t *csvTable) error { return s.parseItems(t, extract) }},
		{paymentsFile, false, func(t *csvTable) error { return s.parsePayments(t, extract) }},
		{reviewsFile, false, func(t *csvTable) error { return s.parseReviews(t, extract) }},
		{productsFile, false, func(t *csvTable) error { return s.parseProducts(t, extract) }},
		{churnFile, true, func(t *csvTable) error { return s.parseChurnScores(t, extract) }},
		{segmentsFile, true, func(t *csvTable) error { return s.parseSegments(t, extract) }},
	}

	for _, l := range loaders {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		table, err := readCSVTable(filepath.Join(s.dir, l.file))
		if err != nil {
			if os.IsNotExist(err) && l.optional {
				s.logger.WarnContext(ctx, "optional input file not found, skipping",
					"file", l.file)
				continue
			}
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%s: %w", l.file, ErrMissingTable)
			}
			return nil, fmt.Errorf("read %s: %w", l.file, err)
		}
		if err := l.parse(table); err != nil {
			return nil, fmt.Errorf("parse %s: %w", l.file, err)
		}
	}

	if err := extract.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "loaded raw extract from CSV",
		"dir", s.dir,
		"customers", len(extract.Customers),
		"orders", len(extract.Orders),
		"items", len(extract.Items),
		"payments", len(extract.Payments),
		"reviews", len(extract.Reviews),
		"products", len(extract.Products),
		"churn_scores", len(extract.ChurnScores),
		"segments", len(extract.Segments),
		"duration", time.Since(start),
	)

	return extract, nil
}

// csvTable is a parsed CSV file with column access by header name.
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

func readCSVTable(path string) (*csvTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		// Strip a UTF-8 BOM if the export added one.
		columns[strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF")] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return &csvTable{columns: columns, rows: rows}, nil
}

// get returns the named column of a row, empty when the column is absent or
// the row is short.
func (t *csvTable) get(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *csvTable) require(columns ...string) error {
	for _, c := range columns {
		if _, ok := t.columns[c]; !ok {
			return fmt.Errorf("missing column %q", c)
		}
	}
	return nil
}

func (s *CSVSource) parseCustomers(t *csvTable, extract *Extract) error {
	if err := t.require("customer_id", "customer_unique_id"); err != nil {
		return err
	}
	extract.Customers = make([]RawCustomer, 0, len(t.rows))
	for _, row := range t.rows {
		extract.Customers = append(extract.Customers, RawCustomer{
			CustomerID: t.get(row, "customer_id"),
			UniqueID:   t.get(row, "customer_unique_id"),
			City:       t.get(row, "customer_city"),
			State:      t.get(row, "customer_state"),
			ZipPrefix:  t.get(row, "customer_zip_code_prefix"),
		})
	}
	return nil
}

func (s *CSVSource) parseOrders(t *csvTable, extract *Extract) error {
	if err := t.require("order_id", "customer_id", "order_status"); err != nil {
		return err
	}
	extract.Orders = make([]RawOrder, 0, len(t.rows))
	for _, row := range t.rows {
		extract.Orders = append(extract.Orders, RawOrder{
			OrderID:     t.get(row, "order_id"),
			CustomerID:  t.get(row, "customer_id"),
			Status:      t.get(row, "order_status"),
			PurchaseTS:  parseTimestamp(t.get(row, "order_purchase_timestamp")),
			DeliveredTS: parseTimestamp(t.get(row, "order_delivered_customer_date")),
		})
	}
	return nil
}

func (s *CSVSource) parseItems(t *csvTable, extract *Extract) error {
	if err := t.require("order_id", "product_id", "price", "freight_value"); err != nil {
		return err
	}
	extract.Items = make([]RawOrderItem, 0, len(t.rows))
	for _, row := range t.rows {
		extract.Items = append(extract.Items, RawOrderItem{
			OrderID:      t.get(row, "order_id"),
			ProductID:    t.get(row, "product_id"),
			Price:        parseFloat(t.get(row, "price")),
			FreightValue: parseFloat(t.get(row, "freight_value")),
		})
	}
	return nil
}

func (s *CSVSource) parsePayments(t *csvTable, extract *Extract) error {
	if err := t.require("order_id", "payment_type", "payment_value"); err != nil {
		return err
	}
	extract.Payments = make([]RawPayment, 0, len(t.rows))
	for _, row := range t.rows {
		extract.Payments = append(extract.Payments, RawPayment{
			OrderID:      t.get(row, "order_id"),
			PaymentType:  t.get(row, "payment_type"),
			Installments: parseInt(t.get(row, "payment_installments")),
			PaymentValue: parseFloat(t.get(row, "payment_value")),
		})
	}
	return nil
}

func (s *CSVSource) parseReviews(t *csvTable, extract *Extract) error {
	if err := t.require("order_id", "review_score"); err != nil {
		return err
	}
	extract.Reviews = make([]RawReview, 0, len(t.rows))
	for _, row := range t.rows {
		extract.Reviews = append(extract.Reviews, RawReview{
			OrderID:     t.get(row, "order_id"),
			ReviewScore: parseInt(t.get(row, "review_score")),
		})
	}
	return nil
}

func (s *CSVSource) parseProducts(t *csvTable, extract *Extract) error {
	if err := t.require("product_id"); err != nil {
		return err
	}
	extract.Products = make([]RawProduct, 0, len(t.rows))
	for _, row := range t.rows {
		extract.Products = append(extract.Products, RawProduct{
			ProductID:    t.get(row, "product_id"),
			CategoryName: t.get(row, "product_category_name"),
		})
	}
	return nil
}

func (s *CSVSource) parseChurnScores(t *csvTable, extract *Extract) error {
	if err := t.require("customer_unique_id", "churn_risk"); err != nil {
		return err
	}
	extract.ChurnScores = make([]ChurnScore, 0, len(t.rows))
	for _, row := range t.rows {
		extract.ChurnScores = append(extract.ChurnScores, ChurnScore{
			CustomerUniqueID: t.get(row, "customer_unique_id"),
			ChurnRisk:        parseFloat(t.get(row, "churn_risk")),
		})
	}
	return nil
}

func (s *CSVSource) parseSegments(t *csvTable, extract *Extract) error {
	if err := t.require("customer_unique_id"); err != nil {
		return err
	}
	extract.Segments = make([]SegmentAssignment, 0, len(t.rows))
	for _, row := range t.rows {
		extract.Segments = append(extract.Segments, SegmentAssignment{
			CustomerUniqueID: t.get(row, "customer_unique_id"),
			SegmentCode:      t.get(row, "segment"),
			SegmentName:      t.get(row, "segment_name"),
		})
	}
	return nil
}

func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	ts, err := time.Parse(timestampLayout, value)
	if err != nil {
		// Some exports use date-only values.
		ts, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil
		}
	}
	return &ts
}

func parseFloat(value string) float64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(value string) int {
	if value == "" {
		return 0
	}
	// Installment and score columns sometimes arrive as "1.0".
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int(f)
	}
	return 0
}
