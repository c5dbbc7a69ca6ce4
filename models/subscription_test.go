package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPrice(t *testing.T) {
	amount, err := PlanPrice(PlanSupporter, CycleYearly)
	require.NoError(t, err)
	assert.Equal(t, int64(7499), amount)

	amount, err = PlanPrice(PlanFree, CycleMonthly)
	require.NoError(t, err)
	assert.Zero(t, amount)

	_, err = PlanPrice("platinum", CycleYearly)
	assert.Error(t, err)

	_, err = PlanPrice(PlanAllAccess, "weekly")
	assert.Error(t, err)
}

func TestPlansMirrorPriceTable(t *testing.T) {
	plans := Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, PlanFree, plans[0].Type)
	assert.Equal(t, PlanAllAccess, plans[2].Type)

	for _, plan := range plans {
		for _, cycle := range BillingCycles() {
			want, err := PlanPrice(plan.Type, cycle)
			require.NoError(t, err)
			assert.Equal(t, want, plan.Prices[cycle])
		}
	}
}

func TestInvoiceFileName(t *testing.T) {
	assert.Equal(t, "invoice-INV-42.pdf", InvoiceFileName("INV-42"))
}
