// Package store provides the Postgres raw-data source: it reads the raw
// extract tables the upstream loader materializes, plus the external churn
// score and segment tables.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ecomcli/internal/dataset"
)

// PostgresSource loads a raw extract from the warehouse.
type PostgresSource struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresSource connects a source to the warehouse at connString.
func NewPostgresSource(ctx context.Context, connString string, logger *slog.Logger) (*PostgresSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresSource{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Load reads every raw table in one snapshot. The external churn score and
// segment tables may not exist yet on a fresh warehouse; those are loaded
// best-effort and validated by the stages that consume them.
func (s *PostgresSource) Load(ctx context.Context) (*dataset.Extract, error) {
	start := time.Now()
	extract := &dataset.Extract{}

	var err error
	if extract.Customers, err = s.loadCustomers(ctx); err != nil {
		return nil, fmt.Errorf("load raw customers: %w", err)
	}
	if extract.Orders, err = s.loadOrders(ctx); err != nil {
		return nil, fmt.Errorf("load raw orders: %w", err)
	}
	if extract.Items, err = s.loadItems(ctx); err != nil {
		return nil, fmt.Errorf("load raw order items: %w", err)
	}
	if extract.Payments, err = s.loadPayments(ctx); err != nil {
		return nil, fmt.Errorf("load raw payments: %w", err)
	}
	if extract.Reviews, err = s.loadReviews(ctx); err != nil {
		return nil, fmt.Errorf("load raw reviews: %w", err)
	}
	if extract.Products, err = s.loadProducts(ctx); err != nil {
		return nil, fmt.Errorf("load raw products: %w", err)
	}

	if extract.ChurnScores, err = s.loadChurnScores(ctx); err != nil {
		s.logger.WarnContext(ctx, "churn scores unavailable", "error", err)
		extract.ChurnScores = nil
	}
	if extract.Segments, err = s.loadSegments(ctx); err != nil {
		s.logger.WarnContext(ctx, "segment assignments unavailable", "error", err)
		extract.Segments = nil
	}

	if err := extract.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "loaded raw extract from postgres",
		"customers", len(extract.Customers),
		"orders", len(extract.Orders),
		"items", len(extract.Items),
		"duration", time.Since(start),
	)

	return extract, nil
}

func (s *PostgresSource) loadCustomers(ctx context.Context) ([]dataset.RawCustomer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT customer_id,
		       customer_unique_id,
		       COALESCE(customer_city, ''),
		       COALESCE(customer_state, ''),
		       COALESCE(customer_zip_code_prefix::text, '')
		FROM raw.olist_customers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.RawCustomer
	for rows.Next() {
		var c dataset.RawCustomer
		if err := rows.Scan(&c.CustomerID, &c.UniqueID, &c.City, &c.State, &c.ZipPrefix); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *PostgresSource) loadOrders(ctx context.Context) ([]dataset.RawOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id,
		       customer_id,
		       COALESCE(order_status, ''),
		       order_purchase_timestamp,
		       order_delivered_customer_date
		FROM raw.olist_orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.RawOrder
	for rows.Next() {
		var o dataset.RawOrder
		if err := rows.Scan(&o.OrderID, &o.CustomerID, &o.Status, &o.PurchaseTS, &o.DeliveredTS); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *PostgresSource) loadItems(ctx context.Context) ([]dataset.RawOrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, product_id,
		       COALESCE(price, 0),
		       COALESCE(freight_value, 0)
		FROM raw.olist_order_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.RawOrderItem
	for rows.Next() {
		var i dataset.RawOrderItem
		if err := rows.Scan(&i.OrderID, &i.ProductID, &i.Price, &i.FreightValue); err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	return result, rows.Err()
}

func (s *PostgresSource) loadPayments(ctx context.Context) ([]dataset.RawPayment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id,
		       COALESCE(payment_type, ''),
		       COALESCE(payment_installments, 0),
		       COALESCE(payment_value, 0)
		FROM raw.olist_order_payments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.RawPayment
	for rows.Next() {
		var p dataset.RawPayment
		if err := rows.Scan(&p.OrderID, &p.PaymentType, &p.Installments, &p.PaymentValue); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *PostgresSource) loadReviews(ctx context.Context) ([]dataset.RawReview, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, COALESCE(review_score, 0)
		FROM raw.olist_order_reviews`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.RawReview
	for rows.Next() {
		var r dataset.RawReview
		if err := rows.Scan(&r.OrderID, &r.ReviewScore); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *PostgresSource) loadProducts(ctx context.Context) ([]dataset.RawProduct, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, COALESCE(product_category_name, '')
		FROM raw.olist_products`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.RawProduct
	for rows.Next() {
		var p dataset.RawProduct
		if err := rows.Scan(&p.ProductID, &p.CategoryName); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *PostgresSource) loadChurnScores(ctx context.Context) ([]dataset.ChurnScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT customer_unique_id, churn_risk
		FROM analytics.customer_churn_scores`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.ChurnScore
	for rows.Next() {
		var c dataset.ChurnScore
		if err := rows.Scan(&c.CustomerUniqueID, &c.ChurnRisk); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *PostgresSource) loadSegments(ctx context.Context) ([]dataset.SegmentAssignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT customer_unique_id,
		       COALESCE(segment::text, ''),
		       COALESCE(segment_name, '')
		FROM analytics.customer_segments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dataset.SegmentAssignment
	for rows.Next() {
		var a dataset.SegmentAssignment
		if err := rows.Scan(&a.CustomerUniqueID, &a.SegmentCode, &a.SegmentName); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
