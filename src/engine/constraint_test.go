package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAccountShape(t *testing.T) {
	individual := &IndividualProfile{FirstName: "Ada", LastName: "Lovelace"}
	business := &BusinessProfile{LegalName: "Analytical Engines Ltd"}

	tests := []struct {
		name       string
		individual *IndividualProfile
		business   *BusinessProfile
		wantErr    bool
	}{
		{"individual only", individual, nil, false},
		{"business only", nil, business, false},
		{"both populated", individual, business, true},
		{"neither populated", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountShape(tt.individual, tt.business)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidShape)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDeleteRulesArePopulated(t *testing.T) {
	parents := []EntityKind{KindAccount, KindSupplier, KindSeller, KindProduct, KindPaymentMethod, KindOrder}
	for _, kind := range parents {
		rules := deleteRules[kind]
		require.NotEmpty(t, rules, "no delete rules for %s", kind)
		for _, rule := range rules {
			require.NotNil(t, rule.deps, "%s/%s has no dependent lookup", kind, rule.Dependent)
			switch rule.Policy {
			case DeleteCascade:
				require.NotNil(t, rule.drop, "%s/%s cascades without a drop", kind, rule.Dependent)
			case DeleteSetNull:
				require.NotNil(t, rule.clear, "%s/%s set-nulls without a clear", kind, rule.Dependent)
			}
		}
	}
}

func TestComputeSubtotal(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice float64
		quantity  int
		discount  float64
		want      float64
	}{
		{"no discount", 10.0, 3, 0, 30.0},
		{"with discount", 150.0, 2, 10.0, 290.0},
		{"discount equals total", 20.0, 1, 20.0, 0},
		{"discount exceeds total", 5.0, 1, 10.0, -5.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeSubtotal(tt.unitPrice, tt.quantity, tt.discount))
		})
	}
}

func TestValidateOrderItemAmounts(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice float64
		quantity  int
		discount  float64
		wantErr   bool
	}{
		{"all valid", 9.99, 2, 1.0, false},
		{"zero price is valid", 0, 1, 0, false},
		{"negative price", -1.0, 1, 0, true},
		{"zero quantity", 10.0, 0, 0, true},
		{"negative quantity", 10.0, -2, 0, true},
		{"negative discount", 10.0, 1, -0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOrderItemAmounts(tt.unitPrice, tt.quantity, tt.discount)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConstraintViolated)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateOrderItemAmountsAggregatesViolations(t *testing.T) {
	// Every violated bound shows up in one error, not just the first.
	err := validateOrderItemAmounts(-1.0, 0, -2.0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unit_price")
	require.Contains(t, err.Error(), "quantity")
	require.Contains(t, err.Error(), "discount")
}

func TestStatusValidation(t *testing.T) {
	t.Run("order statuses", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled} {
			require.NoError(t, validateOrderStatus(status))
		}
		require.ErrorIs(t, validateOrderStatus("SHIPPED_MAYBE"), ErrInvalidShape)
		require.ErrorIs(t, validateOrderStatus(""), ErrInvalidShape)
	})

	t.Run("delivery statuses", func(t *testing.T) {
		for _, status := range []DeliveryStatus{DeliveryAwaiting, DeliveryInTransit, DeliveryDelivered, DeliveryLost} {
			require.NoError(t, validateDeliveryStatus(status))
		}
		require.ErrorIs(t, validateDeliveryStatus("TELEPORTED"), ErrInvalidShape)
	})

	t.Run("payment statuses", func(t *testing.T) {
		for _, status := range []PaymentStatus{PaymentPending, PaymentApproved, PaymentDeclined, PaymentRefunded} {
			require.NoError(t, validatePaymentStatus(status))
		}
		require.ErrorIs(t, validatePaymentStatus("MAYBE"), ErrInvalidShape)
	})
}
