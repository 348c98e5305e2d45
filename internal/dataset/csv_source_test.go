package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, dir, customersFile,
		"customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\n"+
			"c1,u1,01310,sao paulo,SP\n"+
			"c2,u1,01310,sao paulo,SP\n"+
			"c3,u2,20000,rio de janeiro,RJ\n")
	writeFixture(t, dir, ordersFile,
		"order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date\n"+
			"o1,c1,delivered,2023-01-10 08:00:00,2023-01-15 12:00:00\n"+
			"o2,c3,delivered,2023-02-01 09:30:00,\n"+
			"o3,c2,canceled,2023-02-05 10:00:00,\n")
	writeFixture(t, dir, itemsFile,
		"order_id,order_item_id,product_id,price,freight_value\n"+
			"o1,1,p1,100.00,10.00\n"+
			"o1,2,p2,50.00,5.00\n"+
			"o2,1,p1,30.00,3.00\n")
	writeFixture(t, dir, paymentsFile,
		"order_id,payment_sequential,payment_type,payment_installments,payment_value\n"+
			"o1,1,credit_card,3,165.00\n"+
			"o2,1,boleto,1.0,33.00\n")
	writeFixture(t, dir, reviewsFile,
		"review_id,order_id,review_score\n"+
			"r1,o1,5\n")
	writeFixture(t, dir, productsFile,
		"product_id,product_category_name\n"+
			"p1,electronics\n"+
			"p2,\n")

	return dir
}

func TestCSVSourceLoad(t *testing.T) {
	dir := fixtureDir(t)

	source := NewCSVSource(dir, nil)
	extract, err := source.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, extract.Customers, 3)
	assert.Equal(t, RawCustomer{
		CustomerID: "c1",
		UniqueID:   "u1",
		City:       "sao paulo",
		State:      "SP",
		ZipPrefix:  "01310",
	}, extract.Customers[0])

	require.Len(t, extract.Orders, 3)
	first := extract.Orders[0]
	assert.Equal(t, "o1", first.OrderID)
	require.NotNil(t, first.PurchaseTS)
	assert.Equal(t, time.Date(2023, 1, 10, 8, 0, 0, 0, time.UTC), *first.PurchaseTS)
	require.NotNil(t, first.DeliveredTS)

	// A blank delivery timestamp stays nil rather than turning into a zero
	// time.
	assert.Nil(t, extract.Orders[1].DeliveredTS)

	require.Len(t, extract.Items, 3)
	assert.Equal(t, 100.0, extract.Items[0].Price)

	require.Len(t, extract.Payments, 2)
	assert.Equal(t, 3, extract.Payments[0].Installments)
	assert.Equal(t, 1, extract.Payments[1].Installments)

	require.Len(t, extract.Reviews, 1)
	assert.Equal(t, 5, extract.Reviews[0].ReviewScore)

	require.Len(t, extract.Products, 2)
	assert.Equal(t, "", extract.Products[1].CategoryName)

	// Optional collaborator files were absent.
	assert.Empty(t, extract.ChurnScores)
	assert.Empty(t, extract.Segments)
}

func TestCSVSourceLoadsOptionalFiles(t *testing.T) {
	dir := fixtureDir(t)
	writeFixture(t, dir, churnFile,
		"customer_unique_id,churn_risk\n"+
			"u1,0.82\n")
	writeFixture(t, dir, segmentsFile,
		"customer_unique_id,segment,segment_name\n"+
			"u1,0,Champions\n")

	source := NewCSVSource(dir, nil)
	extract, err := source.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, extract.ChurnScores, 1)
	assert.Equal(t, 0.82, extract.ChurnScores[0].ChurnRisk)
	require.Len(t, extract.Segments, 1)
	assert.Equal(t, "Champions", extract.Segments[0].SegmentName)
}

func TestCSVSourceStripsByteOrderMark(t *testing.T) {
	dir := fixtureDir(t)
	writeFixture(t, dir, customersFile,
		"\uFEFFcustomer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\n"+
			"c1,u1,01310,sao paulo,SP\n")

	source := NewCSVSource(dir, nil)
	extract, err := source.Load(context.Background())
	require.NoError(t, err)

	// The BOM must not leak into the first header name.
	require.Len(t, extract.Customers, 1)
	assert.Equal(t, "c1", extract.Customers[0].CustomerID)
}

func TestCSVSourceMissingRequiredFile(t *testing.T) {
	dir := fixtureDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, ordersFile)))

	source := NewCSVSource(dir, nil)
	_, err := source.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestCSVSourceMissingColumn(t *testing.T) {
	dir := fixtureDir(t)
	writeFixture(t, dir, ordersFile, "order_id,order_status\no1,delivered\n")

	source := NewCSVSource(dir, nil)
	_, err := source.Load(context.Background())
	assert.Error(t, err)
}

func TestIsDelivered(t *testing.T) {
	purchase := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		order RawOrder
		want  bool
	}{
		{name: "delivered with purchase", order: RawOrder{Status: OrderStatusDelivered, PurchaseTS: &purchase}, want: true},
		{name: "delivered without purchase", order: RawOrder{Status: OrderStatusDelivered}, want: false},
		{name: "canceled", order: RawOrder{Status: "canceled", PurchaseTS: &purchase}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.order.IsDelivered())
		})
	}
}

func TestSegmentByUniqueIDDefaultsUnknown(t *testing.T) {
	extract := &Extract{Segments: []SegmentAssignment{
		{CustomerUniqueID: "u1", SegmentName: "Champions"},
		{CustomerUniqueID: "u2"},
	}}

	segments := extract.SegmentByUniqueID()
	assert.Equal(t, "Champions", segments["u1"])
	assert.Equal(t, SegmentUnknown, segments["u2"])
}
