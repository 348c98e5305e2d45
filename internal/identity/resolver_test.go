package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomcli/internal/dataset"
)

func ts(value string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestResolveLocationMajorityVote(t *testing.T) {
	customers := []dataset.RawCustomer{
		{CustomerID: "c1", UniqueID: "u1", City: "NY", State: "NY", ZipPrefix: "100"},
		{CustomerID: "c1", UniqueID: "u1", City: "NY", State: "NY", ZipPrefix: "100"},
		{CustomerID: "c2", UniqueID: "u1", City: "LA", State: "CA", ZipPrefix: "200"},
	}

	resolver := NewResolver(nil)
	result, err := resolver.Resolve(context.Background(), customers, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, "u1", result[0].UniqueID)
	assert.Equal(t, "NY", result[0].City)
	assert.Equal(t, "NY", result[0].State)
	assert.Equal(t, "100", result[0].ZipPrefix)
}

func TestResolveLocationTieBreak(t *testing.T) {
	// Equal counts: the lexically smallest city wins, regardless of order.
	base := []dataset.RawCustomer{
		{CustomerID: "c1", UniqueID: "u1", City: "Rio", State: "RJ", ZipPrefix: "200"},
		{CustomerID: "c2", UniqueID: "u1", City: "Belo", State: "MG", ZipPrefix: "300"},
	}
	reversed := []dataset.RawCustomer{base[1], base[0]}

	resolver := NewResolver(nil)
	for name, input := range map[string][]dataset.RawCustomer{"forward": base, "reversed": reversed} {
		t.Run(name, func(t *testing.T) {
			result, err := resolver.Resolve(context.Background(), input, nil)
			require.NoError(t, err)
			require.Len(t, result, 1)
			assert.Equal(t, "Belo", result[0].City)
			assert.Equal(t, "MG", result[0].State)
		})
	}
}

func TestResolveTieBreakWithinCity(t *testing.T) {
	// Same city, different state/zip at equal counts: state then zip decide.
	customers := []dataset.RawCustomer{
		{CustomerID: "c1", UniqueID: "u1", City: "Springfield", State: "MO", ZipPrefix: "650"},
		{CustomerID: "c2", UniqueID: "u1", City: "Springfield", State: "IL", ZipPrefix: "627"},
	}

	resolver := NewResolver(nil)
	result, err := resolver.Resolve(context.Background(), customers, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "IL", result[0].State)
}

func TestResolveOrderDerivedFields(t *testing.T) {
	customers := []dataset.RawCustomer{
		{CustomerID: "c1", UniqueID: "u1", City: "NY", State: "NY", ZipPrefix: "100"},
		{CustomerID: "c2", UniqueID: "u1", City: "NY", State: "NY", ZipPrefix: "100"},
		{CustomerID: "c3", UniqueID: "u2", City: "LA", State: "CA", ZipPrefix: "200"},
	}
	orders := []dataset.RawOrder{
		{OrderID: "o1", CustomerID: "c1", Status: "delivered", PurchaseTS: ts("2023-01-10 08:00:00")},
		{OrderID: "o2", CustomerID: "c2", Status: "delivered", PurchaseTS: ts("2023-04-15 08:00:00")},
		{OrderID: "o3", CustomerID: "c1", Status: "canceled", PurchaseTS: ts("2023-05-01 08:00:00")},
	}

	resolver := NewResolver(nil)
	result, err := resolver.Resolve(context.Background(), customers, orders)
	require.NoError(t, err)
	require.Len(t, result, 2)

	u1 := result[0]
	assert.Equal(t, "u1", u1.UniqueID)
	assert.Equal(t, 2, u1.OrderCount)
	require.NotNil(t, u1.TenureDays)
	assert.Equal(t, 95, *u1.TenureDays)
	require.NotNil(t, u1.FirstOrderTS)
	assert.Equal(t, *ts("2023-01-10 08:00:00"), *u1.FirstOrderTS)

	// u2 never had a delivered order but still resolves a location.
	u2 := result[1]
	assert.Equal(t, "u2", u2.UniqueID)
	assert.Equal(t, 0, u2.OrderCount)
	assert.Nil(t, u2.TenureDays)
	assert.Nil(t, u2.FirstOrderTS)
	assert.Equal(t, "LA", u2.City)
}

func TestResolveSingleOrderTenureZero(t *testing.T) {
	customers := []dataset.RawCustomer{
		{CustomerID: "c1", UniqueID: "u1", City: "NY", State: "NY", ZipPrefix: "100"},
	}
	orders := []dataset.RawOrder{
		{OrderID: "o1", CustomerID: "c1", Status: "delivered", PurchaseTS: ts("2023-01-10 08:00:00")},
	}

	resolver := NewResolver(nil)
	result, err := resolver.Resolve(context.Background(), customers, orders)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].TenureDays)
	assert.Equal(t, 0, *result[0].TenureDays)
}

func TestResolveEmptyInput(t *testing.T) {
	resolver := NewResolver(nil)
	_, err := resolver.Resolve(context.Background(), nil, nil)
	assert.ErrorIs(t, err, dataset.ErrEmptyTable)
}
