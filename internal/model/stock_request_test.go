package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		allowed  bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)

	p, err = ParsePriority(" URGENT ")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	_, err = ParsePriority("critical")
	assert.Error(t, err)
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	s, err := ParseStatus("Approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("cancelled")
	assert.Error(t, err)
}

func TestStockRequestToResponseUsesJoinedNames(t *testing.T) {
	approver := &User{FirstName: "Ada", LastName: "Admin"}
	req := &StockRequest{
		Product:     &Product{Name: "Cable", Brand: "Acme"},
		RequestedBy: &User{FirstName: "Eve", LastName: "Employee"},
		ApprovedBy:  approver,
		Quantity:    3,
		Priority:    PriorityHigh,
		Status:      StatusApproved,
	}

	resp := req.ToResponse()
	assert.Equal(t, "Cable", resp.ProductName)
	assert.Equal(t, "Eve Employee", resp.RequestedByName)
	require.NotNil(t, resp.ApprovedByName)
	assert.Equal(t, "Ada Admin", *resp.ApprovedByName)
}

func TestProductIsLowStock(t *testing.T) {
	assert.True(t, (&Product{StockQuantity: 10, MinimumStockLevel: 10}).IsLowStock())
	assert.False(t, (&Product{StockQuantity: 11, MinimumStockLevel: 10}).IsLowStock())
}

func TestStockDeltaSign(t *testing.T) {
	assert.Equal(t, 5, (&StockTransaction{Type: TxIn, Quantity: 5}).StockDelta())
	assert.Equal(t, -5, (&StockTransaction{Type: TxOut, Quantity: 5}).StockDelta())
}
