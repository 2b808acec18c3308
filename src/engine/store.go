package engine

import (
	"fmt"
	"sort"
	"sync"
)

// linkKey is the composite key for the many-to-many link tables.
type linkKey struct {
	Left  int64
	Right int64
}

// Store holds every typed entity container plus the uniqueness and
// relationship indexes. All mutations go through the per-kind operations,
// which validate against the constraint engine before touching any map, so a
// failed call never leaves a partial write behind. One RWMutex serializes
// writers; queries take the read side and see a single committed snapshot.
type Store struct {
	mu sync.RWMutex

	accounts       map[int64]*Account
	addresses      map[int64]*Address
	suppliers      map[int64]*Supplier
	sellers        map[int64]*Seller
	products       map[int64]*Product
	stock          map[int64]*Stock // keyed by product id, one-to-one
	paymentMethods map[int64]*PaymentMethod
	orders         map[int64]*Order
	orderItems     map[int64]*OrderItem
	deliveries     map[int64]*Delivery
	payments       map[int64]*Payment

	productSuppliers map[linkKey]*ProductSupplier // (product, supplier)
	supplierSellers  map[linkKey]*SupplierSeller  // (supplier, seller)

	// Uniqueness indexes
	accountEmails map[string]int64
	sellerEmails  map[string]int64
	productSKUs   map[string]int64

	// Identifiers are monotonic per kind and never reused.
	nextID map[EntityKind]int64

	index *RelationshipIndex
}

// NewStore creates an empty store. Multiple independent stores can coexist;
// nothing in the engine is process-global.
func NewStore() *Store {
	return &Store{
		accounts:         make(map[int64]*Account),
		addresses:        make(map[int64]*Address),
		suppliers:        make(map[int64]*Supplier),
		sellers:          make(map[int64]*Seller),
		products:         make(map[int64]*Product),
		stock:            make(map[int64]*Stock),
		paymentMethods:   make(map[int64]*PaymentMethod),
		orders:           make(map[int64]*Order),
		orderItems:       make(map[int64]*OrderItem),
		deliveries:       make(map[int64]*Delivery),
		payments:         make(map[int64]*Payment),
		productSuppliers: make(map[linkKey]*ProductSupplier),
		supplierSellers:  make(map[linkKey]*SupplierSeller),
		accountEmails:    make(map[string]int64),
		sellerEmails:     make(map[string]int64),
		productSKUs:      make(map[string]int64),
		nextID:           make(map[EntityKind]int64),
		index:            NewRelationshipIndex(),
	}
}

// allocID hands out the next identifier for a kind. Identifiers start at 1
// and are never reused, even after deletes.
func (s *Store) allocID(kind EntityKind) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

// bumpID advances the counter past an externally supplied id (snapshot
// restore path).
func (s *Store) bumpID(kind EntityKind, id int64) {
	if id > s.nextID[kind] {
		s.nextID[kind] = id
	}
}

// RefCount exposes the relationship index size, used to verify that deletes
// leave no trace behind.
func (s *Store) RefCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.RefCount()
}

// ---------------------------------------- snapshot export / restore ----------------------------------------

// ExportKind returns the full committed record set for one kind, sorted by
// id. The persistence collaborator receives this after every successful
// mutation touching the kind.
func (s *Store) ExportKind(kind EntityKind) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case KindAccount:
		return exportMap(s.accounts, func(a *Account) int64 { return a.AccountID }), nil
	case KindAddress:
		return exportMap(s.addresses, func(a *Address) int64 { return a.AddressID }), nil
	case KindSupplier:
		return exportMap(s.suppliers, func(v *Supplier) int64 { return v.SupplierID }), nil
	case KindSeller:
		return exportMap(s.sellers, func(v *Seller) int64 { return v.SellerID }), nil
	case KindProduct:
		return exportMap(s.products, func(v *Product) int64 { return v.ProductID }), nil
	case KindStock:
		return exportMap(s.stock, func(v *Stock) int64 { return v.ProductID }), nil
	case KindPaymentMethod:
		return exportMap(s.paymentMethods, func(v *PaymentMethod) int64 { return v.PaymentMethodID }), nil
	case KindOrder:
		return exportMap(s.orders, func(v *Order) int64 { return v.OrderID }), nil
	case KindOrderItem:
		return exportMap(s.orderItems, func(v *OrderItem) int64 { return v.OrderItemID }), nil
	case KindDelivery:
		return exportMap(s.deliveries, func(v *Delivery) int64 { return v.DeliveryID }), nil
	case KindPayment:
		return exportMap(s.payments, func(v *Payment) int64 { return v.PaymentID }), nil
	case KindProductSupplier:
		return exportLinks(s.productSuppliers), nil
	case KindSupplierSeller:
		return exportLinks(s.supplierSellers), nil
	}
	return nil, fmt.Errorf("%w: unknown entity kind %q", ErrNotFound, kind)
}

func exportMap[T any](m map[int64]*T, id func(*T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return id(&out[i]) < id(&out[j]) })
	return out
}

func exportLinks[T any](m map[linkKey]*T) []T {
	out := make([]T, 0, len(m))
	for _, k := range sortedLinkKeys(m) {
		out = append(out, *m[k])
	}
	return out
}

func sortedLinkKeys[T any](m map[linkKey]*T) []linkKey {
	keys := make([]linkKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Left != keys[j].Left {
			return keys[i].Left < keys[j].Left
		}
		return keys[i].Right < keys[j].Right
	})
	return keys
}
