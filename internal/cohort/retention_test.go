package cohort

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureMonths() []CustomerMonth {
	jan := month("2023-01")
	feb := month("2023-02")
	mar := month("2023-03")
	return []CustomerMonth{
		{CustomerUniqueID: "u1", CohortMonth: jan, OrderMonth: jan, MonthIndex: 0, SegmentName: "Champions"},
		{CustomerUniqueID: "u2", CohortMonth: jan, OrderMonth: jan, MonthIndex: 0, SegmentName: "Champions"},
		{CustomerUniqueID: "u3", CohortMonth: jan, OrderMonth: jan, MonthIndex: 0, SegmentName: "Unknown"},
		{CustomerUniqueID: "u1", CohortMonth: jan, OrderMonth: feb, MonthIndex: 1, SegmentName: "Champions"},
		{CustomerUniqueID: "u1", CohortMonth: jan, OrderMonth: mar, MonthIndex: 2, SegmentName: "Champions"},
		{CustomerUniqueID: "u4", CohortMonth: feb, OrderMonth: feb, MonthIndex: 0, SegmentName: "Unknown"},
	}
}

func TestRetentionSelfRetentionIsOne(t *testing.T) {
	engine := NewEngine(nil)
	rows, err := engine.Retention(context.Background(), fixtureMonths())
	require.NoError(t, err)

	for _, r := range rows {
		if r.MonthIndex == 0 {
			require.NotNil(t, r.RetentionRate, "cohort %s", r.CohortMonth)
			assert.Equal(t, 1.0, *r.RetentionRate, "cohort %s", r.CohortMonth)
		}
	}
}

func TestRetentionRates(t *testing.T) {
	engine := NewEngine(nil)
	rows, err := engine.Retention(context.Background(), fixtureMonths())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	jan := month("2023-01")

	// January cohort: 3 customers at index 0, 1 retained at index 1 and 2.
	assert.Equal(t, jan, rows[0].CohortMonth)
	assert.Equal(t, 0, rows[0].MonthIndex)
	assert.Equal(t, 3, rows[0].CohortSize)
	assert.Equal(t, 3, rows[0].RetainedCustomers)

	assert.Equal(t, 1, rows[1].MonthIndex)
	assert.Equal(t, 1, rows[1].RetainedCustomers)
	require.NotNil(t, rows[1].RetentionRate)
	assert.Equal(t, 0.3333, *rows[1].RetentionRate)

	assert.Equal(t, 2, rows[2].MonthIndex)
	require.NotNil(t, rows[2].RetentionRate)
	assert.Equal(t, 0.3333, *rows[2].RetentionRate)
}

func TestRetentionBySegmentSlicesBase(t *testing.T) {
	engine := NewEngine(nil)
	rows, err := engine.RetentionBySegment(context.Background(), fixtureMonths())
	require.NoError(t, err)

	jan := month("2023-01")

	var champions0, champions1, unknown0 *RetentionRow
	for i := range rows {
		r := &rows[i]
		if !r.CohortMonth.Equal(jan) {
			continue
		}
		switch {
		case r.SegmentName == "Champions" && r.MonthIndex == 0:
			champions0 = r
		case r.SegmentName == "Champions" && r.MonthIndex == 1:
			champions1 = r
		case r.SegmentName == "Unknown" && r.MonthIndex == 0:
			unknown0 = r
		}
	}

	// The segmented base counts only the month-index-0 slice of the segment.
	require.NotNil(t, champions0)
	assert.Equal(t, 2, champions0.CohortSize)
	require.NotNil(t, champions0.RetentionRate)
	assert.Equal(t, 1.0, *champions0.RetentionRate)

	require.NotNil(t, champions1)
	assert.Equal(t, 1, champions1.RetainedCustomers)
	require.NotNil(t, champions1.RetentionRate)
	assert.Equal(t, 0.5, *champions1.RetentionRate)

	require.NotNil(t, unknown0)
	assert.Equal(t, 1, unknown0.CohortSize)
}

func TestRetentionDeduplicatesCustomers(t *testing.T) {
	jan := month("2023-01")
	months := []CustomerMonth{
		{CustomerUniqueID: "u1", CohortMonth: jan, OrderMonth: jan, MonthIndex: 0},
		{CustomerUniqueID: "u1", CohortMonth: jan, OrderMonth: jan, MonthIndex: 0},
	}

	engine := NewEngine(nil)
	rows, err := engine.Retention(context.Background(), months)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].CohortSize)
	assert.Equal(t, 1, rows[0].RetainedCustomers)
}

func TestRetentionEmptyInput(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.Retention(context.Background(), nil)
	assert.Error(t, err)
}
