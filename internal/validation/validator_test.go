package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

func TestMonthRule(t *testing.T) {
	v := New()

	ok := models.ProjectionTarget{Zone: "North", Month: "2025-01", TargetAmount: 10}
	assert.NoError(t, v.Struct(ok))

	bad := ok
	bad.Month = "2025-13"
	err := v.Struct(bad)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"Month": "month"}, Details(v.ValidationErrors(err)))
}

func TestPhoneRule(t *testing.T) {
	assert.True(t, IsPhone("9876543210"))
	assert.True(t, IsPhone("+91 98765-43210"))
	assert.False(t, IsPhone("call me"))
	assert.False(t, IsPhone("12"))

	v := New()
	phone := "abc"
	err := v.Struct(models.LeadUpdate{Phone: &phone})
	require.Error(t, err)
	assert.Contains(t, Details(v.ValidationErrors(err)), "Phone")
}

func TestOrderRequestDive(t *testing.T) {
	v := New()
	req := models.CreateOrderRequest{
		ClientName: "Acme",
		Items:      []models.CreateOrderItemRequest{{InventoryItemID: "i1", Quantity: 0}},
	}
	err := v.Struct(req)
	require.Error(t, err)
	assert.Equal(t, "required", Details(v.ValidationErrors(err))["Quantity"])

	assert.Nil(t, v.ValidationErrors(nil))
}
