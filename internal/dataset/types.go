package dataset

import (
	"time"
)

// OrderStatusDelivered is the only order status in scope for analytics.
const OrderStatusDelivered = "delivered"

// RawCustomer is one raw customer record. Several customer IDs may map to the
// same unique ID, and the location fields may conflict across those records.
type RawCustomer struct {
	CustomerID string
	UniqueID   string
	City       string
	State      string
	ZipPrefix  string
}

// RawOrder is one raw order header record.
type RawOrder struct {
	OrderID     string
	CustomerID  string
	Status      string
	PurchaseTS  *time.Time
	DeliveredTS *time.Time
}

// IsDelivered reports whether the order belongs to the delivered subset:
// delivered status with a known purchase timestamp.
func (o RawOrder) IsDelivered() bool {
	return o.Status == OrderStatusDelivered && o.PurchaseTS != nil
}

// RawOrderItem is one order line. An order may have many lines.
type RawOrderItem struct {
	OrderID      string
	ProductID    string
	Price        float64
	FreightValue float64
}

// RawPayment is one payment record. An order may have many payments.
type RawPayment struct {
	OrderID      string
	PaymentType  string
	Installments int
	PaymentValue float64
}

// RawReview is one review record for an order.
type RawReview struct {
	OrderID     string
	ReviewScore int
}

// RawProduct is the product catalogue lookup row.
type RawProduct struct {
	ProductID    string
	CategoryName string
}

// ChurnScore is the externally produced churn probability for a customer.
// The pipeline treats it as an opaque input and never trains or re-scores.
type ChurnScore struct {
	CustomerUniqueID string
	ChurnRisk        float64
}

// SegmentAssignment is the externally produced behavioural segment for a
// customer, precomputed from RFM by the segmentation step.
type SegmentAssignment struct {
	CustomerUniqueID string
	SegmentCode      string
	SegmentName      string
}

// SegmentUnknown is assigned to customers the external segmentation did not
// cover, matching the label the scoring step uses for the same gap.
const SegmentUnknown = "Unknown"

// Extract is one frozen snapshot of all raw inputs. Every pipeline run
// recomputes all output tables from a single Extract; nothing is mutated
// in place between runs.
type Extract struct {
	Customers   []RawCustomer
	Orders      []RawOrder
	Items       []RawOrderItem
	Payments    []RawPayment
	Reviews     []RawReview
	Products    []RawProduct
	ChurnScores []ChurnScore
	Segments    []SegmentAssignment
}

// DeliveredOrders returns the delivered subset of the extract's orders.
func (e *Extract) DeliveredOrders() []RawOrder {
	delivered := make([]RawOrder, 0, len(e.Orders))
	for _, o := range e.Orders {
		if o.IsDelivered() {
			delivered = append(delivered, o)
		}
	}
	return delivered
}

// UniqueIDByCustomerID builds the customer_id to customer_unique_id mapping
// used to lift order-grain rows to customer grain.
func (e *Extract) UniqueIDByCustomerID() map[string]string {
	m := make(map[string]string, len(e.Customers))
	for _, c := range e.Customers {
		m[c.CustomerID] = c.UniqueID
	}
	return m
}

// SegmentByUniqueID returns the segment name per customer, defaulting to
// SegmentUnknown for customers without an assignment.
func (e *Extract) SegmentByUniqueID() map[string]string {
	m := make(map[string]string, len(e.Segments))
	for _, s := range e.Segments {
		name := s.SegmentName
		if name == "" {
			name = SegmentUnknown
		}
		m[s.CustomerUniqueID] = name
	}
	return m
}
