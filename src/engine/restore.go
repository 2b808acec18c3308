package engine

import "fmt"

// RestoreKind replaces one kind's container with records from a snapshot or
// a bulk load, then rebuilds the uniqueness and relationship indexes and the
// derived order totals. Record sets are trusted the way ExportKind produced
// them; cross-kind references are expected to resolve once every kind has
// been restored.
func (s *Store) RestoreKind(kind EntityKind, records interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if got, ok := recordsKind(records); ok && got != kind {
		return fmt.Errorf("%w: records of kind %s cannot be restored into kind %s", ErrInvalidShape, got, kind)
	}

	switch recs := records.(type) {
	case []Account:
		s.accounts = make(map[int64]*Account, len(recs))
		for i := range recs {
			r := recs[i]
			s.accounts[r.AccountID] = &r
			s.bumpID(KindAccount, r.AccountID)
		}
	case []Address:
		s.addresses = make(map[int64]*Address, len(recs))
		for i := range recs {
			r := recs[i]
			s.addresses[r.AddressID] = &r
			s.bumpID(KindAddress, r.AddressID)
		}
	case []Supplier:
		s.suppliers = make(map[int64]*Supplier, len(recs))
		for i := range recs {
			r := recs[i]
			s.suppliers[r.SupplierID] = &r
			s.bumpID(KindSupplier, r.SupplierID)
		}
	case []Seller:
		s.sellers = make(map[int64]*Seller, len(recs))
		for i := range recs {
			r := recs[i]
			s.sellers[r.SellerID] = &r
			s.bumpID(KindSeller, r.SellerID)
		}
	case []Product:
		s.products = make(map[int64]*Product, len(recs))
		for i := range recs {
			r := recs[i]
			s.products[r.ProductID] = &r
			s.bumpID(KindProduct, r.ProductID)
		}
	case []Stock:
		s.stock = make(map[int64]*Stock, len(recs))
		for i := range recs {
			r := recs[i]
			s.stock[r.ProductID] = &r
		}
	case []PaymentMethod:
		s.paymentMethods = make(map[int64]*PaymentMethod, len(recs))
		for i := range recs {
			r := recs[i]
			s.paymentMethods[r.PaymentMethodID] = &r
			s.bumpID(KindPaymentMethod, r.PaymentMethodID)
		}
	case []Order:
		s.orders = make(map[int64]*Order, len(recs))
		for i := range recs {
			r := recs[i]
			s.orders[r.OrderID] = &r
			s.bumpID(KindOrder, r.OrderID)
		}
	case []OrderItem:
		s.orderItems = make(map[int64]*OrderItem, len(recs))
		for i := range recs {
			r := recs[i]
			s.orderItems[r.OrderItemID] = &r
			s.bumpID(KindOrderItem, r.OrderItemID)
		}
	case []Delivery:
		s.deliveries = make(map[int64]*Delivery, len(recs))
		for i := range recs {
			r := recs[i]
			s.deliveries[r.DeliveryID] = &r
			s.bumpID(KindDelivery, r.DeliveryID)
		}
	case []Payment:
		s.payments = make(map[int64]*Payment, len(recs))
		for i := range recs {
			r := recs[i]
			s.payments[r.PaymentID] = &r
			s.bumpID(KindPayment, r.PaymentID)
		}
	case []ProductSupplier:
		s.productSuppliers = make(map[linkKey]*ProductSupplier, len(recs))
		for i := range recs {
			r := recs[i]
			s.productSuppliers[linkKey{Left: r.ProductID, Right: r.SupplierID}] = &r
		}
	case []SupplierSeller:
		s.supplierSellers = make(map[linkKey]*SupplierSeller, len(recs))
		for i := range recs {
			r := recs[i]
			s.supplierSellers[linkKey{Left: r.SupplierID, Right: r.SellerID}] = &r
		}
	default:
		return fmt.Errorf("%w: cannot restore records of type %T into kind %s", ErrInvalidShape, records, kind)
	}

	s.rebuildDerivedState()
	return nil
}

// recordsKind maps a record slice's dynamic type to the kind it holds.
func recordsKind(records interface{}) (EntityKind, bool) {
	switch records.(type) {
	case []Account:
		return KindAccount, true
	case []Address:
		return KindAddress, true
	case []Supplier:
		return KindSupplier, true
	case []Seller:
		return KindSeller, true
	case []Product:
		return KindProduct, true
	case []Stock:
		return KindStock, true
	case []PaymentMethod:
		return KindPaymentMethod, true
	case []Order:
		return KindOrder, true
	case []OrderItem:
		return KindOrderItem, true
	case []Delivery:
		return KindDelivery, true
	case []Payment:
		return KindPayment, true
	case []ProductSupplier:
		return KindProductSupplier, true
	case []SupplierSeller:
		return KindSupplierSeller, true
	}
	return "", false
}

// rebuildDerivedState recreates every uniqueness index, the relationship
// index and the derived order totals from the raw containers.
func (s *Store) rebuildDerivedState() {
	s.accountEmails = make(map[string]int64, len(s.accounts))
	for _, id := range sortedKeys(s.accounts) {
		s.accountEmails[s.accounts[id].Email] = id
	}
	s.sellerEmails = make(map[string]int64, len(s.sellers))
	for _, id := range sortedKeys(s.sellers) {
		s.sellerEmails[s.sellers[id].Email] = id
	}
	s.productSKUs = make(map[string]int64, len(s.products))
	for _, id := range sortedKeys(s.products) {
		s.productSKUs[s.products[id].SKU] = id
	}

	s.index = NewRelationshipIndex()
	for _, id := range sortedKeys(s.products) {
		if supplierID := s.products[id].SupplierID; supplierID != nil {
			s.index.addRef(s.index.supplierProducts, *supplierID, id)
		}
	}
	for _, id := range sortedKeys(s.addresses) {
		s.index.addRef(s.index.accountAddresses, s.addresses[id].AccountID, id)
	}
	for _, id := range sortedKeys(s.paymentMethods) {
		s.index.addRef(s.index.accountPaymentMethods, s.paymentMethods[id].AccountID, id)
	}
	for _, id := range sortedKeys(s.orders) {
		order := s.orders[id]
		s.index.addRef(s.index.accountOrders, order.AccountID, id)
		if order.SellerID != nil {
			s.index.addRef(s.index.sellerOrders, *order.SellerID, id)
		}
		if order.PaymentMethodID != nil {
			s.index.addRef(s.index.paymentMethodOrders, *order.PaymentMethodID, id)
		}
	}
	for _, id := range sortedKeys(s.orderItems) {
		item := s.orderItems[id]
		s.index.addRef(s.index.orderItems, item.OrderID, id)
		s.index.addRef(s.index.productItems, item.ProductID, id)
	}
	for _, id := range sortedKeys(s.deliveries) {
		s.index.orderDelivery[s.deliveries[id].OrderID] = id
	}
	for _, id := range sortedKeys(s.payments) {
		s.index.addRef(s.index.orderPayments, s.payments[id].OrderID, id)
	}
	for _, key := range sortedLinkKeys(s.productSuppliers) {
		s.index.addRef(s.index.productSuppliers, key.Left, key.Right)
		s.index.addRef(s.index.supplierLinkedProducts, key.Right, key.Left)
	}
	for _, key := range sortedLinkKeys(s.supplierSellers) {
		s.index.addRef(s.index.supplierSellers, key.Left, key.Right)
		s.index.addRef(s.index.sellerSuppliers, key.Right, key.Left)
	}

	for id := range s.orders {
		s.recomputeOrderTotalLocked(id)
	}
}
