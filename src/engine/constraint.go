package engine

import (
	"fmt"

	"go.uber.org/multierr"
)

// DeletePolicy is the per-relationship rule consulted when a parent record
// is deleted.
type DeletePolicy string

const (
	// DeleteCascade removes dependents depth-first before the parent.
	DeleteCascade DeletePolicy = "CASCADE"
	// DeleteRestrict refuses the delete while dependents exist.
	DeleteRestrict DeletePolicy = "RESTRICT"
	// DeleteSetNull clears the referencing field on each dependent.
	DeleteSetNull DeletePolicy = "SET_NULL"
)

// relationRule declares how one dependent relationship behaves when its
// parent is deleted. deps lists dependent ids, drop cascades one dependent,
// clear nulls the reference on one dependent.
type relationRule struct {
	Dependent string
	Policy    DeletePolicy
	deps      func(s *Store, parentID int64) []int64
	drop      func(s *Store, parentID, depID int64)
	clear     func(s *Store, parentID, depID int64)
}

// deleteRules is the full delete-propagation policy, keyed by the parent
// entity kind. The generic walk in applyDeleteRules is the only consumer.
// Populated in init: the rule closures call the locked remove helpers, which
// in turn consult this map, so a literal initializer would cycle.
var deleteRules map[EntityKind][]relationRule

func init() {
	deleteRules = map[EntityKind][]relationRule{
		KindAccount: {
			{Dependent: "orders", Policy: DeleteRestrict,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.accountOrders, id) }},
			{Dependent: "addresses", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.accountAddresses, id) },
				drop: func(s *Store, _, depID int64) { s.removeAddressLocked(depID) }},
			{Dependent: "payment methods", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.accountPaymentMethods, id) },
				drop: func(s *Store, _, depID int64) { s.removePaymentMethodLocked(depID) }},
		},
		KindSupplier: {
			{Dependent: "products (principal)", Policy: DeleteSetNull,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.supplierProducts, id) },
				clear: func(s *Store, _, depID int64) {
					if p, ok := s.products[depID]; ok {
						p.SupplierID = nil
					}
				}},
			{Dependent: "product links", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.supplierLinkedProducts, id) },
				drop: func(s *Store, parentID, depID int64) { s.removeProductSupplierLocked(depID, parentID) }},
			{Dependent: "seller links", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.supplierSellers, id) },
				drop: func(s *Store, parentID, depID int64) { s.removeSupplierSellerLocked(parentID, depID) }},
		},
		KindSeller: {
			{Dependent: "orders", Policy: DeleteSetNull,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.sellerOrders, id) },
				clear: func(s *Store, parentID, depID int64) {
					if o, ok := s.orders[depID]; ok {
						o.SellerID = nil
						s.index.removeRef(s.index.sellerOrders, parentID, depID)
					}
				}},
			{Dependent: "supplier links", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.sellerSuppliers, id) },
				drop: func(s *Store, parentID, depID int64) { s.removeSupplierSellerLocked(depID, parentID) }},
		},
		KindProduct: {
			{Dependent: "order items", Policy: DeleteRestrict,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.productItems, id) }},
			{Dependent: "stock", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 {
					if _, ok := s.stock[id]; ok {
						return []int64{id}
					}
					return nil
				},
				drop: func(s *Store, _, depID int64) { delete(s.stock, depID) }},
			{Dependent: "supplier links", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.productSuppliers, id) },
				drop: func(s *Store, parentID, depID int64) { s.removeProductSupplierLocked(parentID, depID) }},
		},
		KindPaymentMethod: {
			{Dependent: "orders", Policy: DeleteSetNull,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.paymentMethodOrders, id) },
				clear: func(s *Store, parentID, depID int64) {
					if o, ok := s.orders[depID]; ok {
						o.PaymentMethodID = nil
						s.index.removeRef(s.index.paymentMethodOrders, parentID, depID)
					}
				}},
		},
		KindOrder: {
			{Dependent: "order items", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.orderItems, id) },
				drop: func(s *Store, _, depID int64) { s.removeOrderItemLocked(depID) }},
			{Dependent: "delivery", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 {
					if did, ok := s.index.orderDelivery[id]; ok {
						return []int64{did}
					}
					return nil
				},
				drop: func(s *Store, _, depID int64) { s.removeDeliveryLocked(depID) }},
			{Dependent: "payments", Policy: DeleteCascade,
				deps: func(s *Store, id int64) []int64 { return s.index.refs(s.index.orderPayments, id) },
				drop: func(s *Store, _, depID int64) { s.removePaymentLocked(depID) }},
		},
	}
}

// applyDeleteRules runs the declared policy for every dependent relationship
// of the given parent. Restrict rules are checked before anything is touched
// so a blocked delete leaves the store unchanged.
func (s *Store) applyDeleteRules(kind EntityKind, parentID int64) error {
	rules := deleteRules[kind]
	for _, rule := range rules {
		if rule.Policy != DeleteRestrict {
			continue
		}
		if n := len(rule.deps(s, parentID)); n > 0 {
			return fmt.Errorf("%w: %s %d has %d dependent %s", ErrReferencedByDependents, kind, parentID, n, rule.Dependent)
		}
	}
	for _, rule := range rules {
		switch rule.Policy {
		case DeleteCascade:
			for _, depID := range rule.deps(s, parentID) {
				rule.drop(s, parentID, depID)
			}
		case DeleteSetNull:
			for _, depID := range rule.deps(s, parentID) {
				rule.clear(s, parentID, depID)
			}
		}
	}
	return nil
}

// ---------------------------------------- pure validation ----------------------------------------

// ValidateAccountShape enforces the mutual-exclusivity rule: exactly one of
// the two profile variants must be populated.
func ValidateAccountShape(individual *IndividualProfile, business *BusinessProfile) error {
	if individual != nil && business != nil {
		return fmt.Errorf("%w: account populates both individual and business fields", ErrInvalidShape)
	}
	if individual == nil && business == nil {
		return fmt.Errorf("%w: account populates neither individual nor business fields", ErrInvalidShape)
	}
	return nil
}

// checkNonNegative reports a constraint violation naming the field when the
// value is below zero.
func checkNonNegative(field string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %v", ErrConstraintViolated, field, value)
	}
	return nil
}

func checkPositive(field string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %d", ErrConstraintViolated, field, value)
	}
	return nil
}

func checkNonEmpty(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrConstraintViolated, field)
	}
	return nil
}

// ComputeSubtotal is the generated-value function for order items. The
// stored subtotal is always this, never caller input.
func ComputeSubtotal(unitPrice float64, quantity int, discount float64) float64 {
	return unitPrice*float64(quantity) - discount
}

// validateOrderItemAmounts aggregates every violated bound on an item's
// numeric fields.
func validateOrderItemAmounts(unitPrice float64, quantity int, discount float64) error {
	var errs error
	errs = multierr.Append(errs, checkNonNegative("unit_price", unitPrice))
	errs = multierr.Append(errs, checkPositive("quantity", quantity))
	errs = multierr.Append(errs, checkNonNegative("discount", discount))
	return errs
}

var orderStatuses = map[OrderStatus]bool{
	OrderPending:   true,
	OrderConfirmed: true,
	OrderShipped:   true,
	OrderDelivered: true,
	OrderCancelled: true,
}

var deliveryStatuses = map[DeliveryStatus]bool{
	DeliveryAwaiting:  true,
	DeliveryInTransit: true,
	DeliveryDelivered: true,
	DeliveryLost:      true,
}

var paymentStatuses = map[PaymentStatus]bool{
	PaymentPending:  true,
	PaymentApproved: true,
	PaymentDeclined: true,
	PaymentRefunded: true,
}

func validateOrderStatus(status OrderStatus) error {
	if !orderStatuses[status] {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidShape, status)
	}
	return nil
}

func validateDeliveryStatus(status DeliveryStatus) error {
	if !deliveryStatuses[status] {
		return fmt.Errorf("%w: unknown delivery status %q", ErrInvalidShape, status)
	}
	return nil
}

func validatePaymentStatus(status PaymentStatus) error {
	if !paymentStatuses[status] {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidShape, status)
	}
	return nil
}
