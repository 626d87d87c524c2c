package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/payments-engine/plan"
)

func item(qty, price string) plan.LineItem {
	return plan.LineItem{Quantity: pct(qty), UnitPrice: amt(price)}
}

func TestComputeTotal_ItemsFreightDiscount(t *testing.T) {
	// 2 x 10.50 + 3 x 5.00 + 12.00 freight - 8.00 discount = 40.00
	items := []plan.LineItem{item("2", "10.50"), item("3", "5.00")}

	total, err := plan.ComputeTotal(items, amt("12"), amt("8"))
	require.NoError(t, err)
	assert.Equal(t, "40.00", total.String())
}

func TestComputeTotal_FractionalQuantityRounds(t *testing.T) {
	// 2.5 kg x 3.333 = 8.3325 -> 8.33 after rounding at the cent
	total, err := plan.ComputeTotal([]plan.LineItem{item("2.5", "3.333")}, plan.Zero(), plan.Zero())
	require.NoError(t, err)
	assert.Equal(t, "8.33", total.String())
}

func TestComputeTotal_NoItems_FreightMinusDiscount(t *testing.T) {
	total, err := plan.ComputeTotal(nil, amt("15"), amt("5"))
	require.NoError(t, err)
	assert.Equal(t, "10.00", total.String())
}

func TestComputeTotal_OversizedDiscount_NegativeNotClamped(t *testing.T) {
	// GIVEN: A discount larger than items plus freight
	// WHEN: Computing the total
	// THEN: The result is negative - NOT clamped to zero. Generate() treats
	//       a non-positive total as "no plan", so the oversized discount
	//       stays visible instead of disappearing.

	total, err := plan.ComputeTotal([]plan.LineItem{item("1", "10")}, plan.Zero(), amt("25"))
	require.NoError(t, err)
	assert.Equal(t, "-15.00", total.String())
	assert.True(t, total.IsNegative())
}

func TestComputeTotal_InvalidInputs(t *testing.T) {
	cases := []struct {
		name     string
		items    []plan.LineItem
		freight  plan.Amount
		discount plan.Amount
	}{
		{"zero quantity", []plan.LineItem{item("0", "10")}, plan.Zero(), plan.Zero()},
		{"negative quantity", []plan.LineItem{item("-1", "10")}, plan.Zero(), plan.Zero()},
		{"negative unit price", []plan.LineItem{item("1", "-10")}, plan.Zero(), plan.Zero()},
		{"negative freight", nil, amt("-1"), plan.Zero()},
		{"negative discount", nil, plan.Zero(), amt("-1")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := plan.ComputeTotal(tc.items, tc.freight, tc.discount)
			require.Error(t, err)
			assert.True(t, plan.IsClientError(err))

			var invalid *plan.InvalidInputError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}
