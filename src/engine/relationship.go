package engine

// RelationshipIndex keeps, per association kind, the ordered set of related
// ids for one side's id. It is updated inside the same mutation that changes
// the store, never rebuilt lazily by scanning, so traversal cost tracks the
// result size rather than the store size.
type RelationshipIndex struct {
	accountAddresses      map[int64][]int64
	accountPaymentMethods map[int64][]int64
	accountOrders         map[int64][]int64

	sellerOrders        map[int64][]int64
	paymentMethodOrders map[int64][]int64

	orderItems    map[int64][]int64
	orderPayments map[int64][]int64
	// orderDelivery is one-to-one: order id to delivery id.
	orderDelivery map[int64]int64

	// productItems tracks which order items reference a product.
	productItems map[int64][]int64

	// supplierProducts lists products whose principal supplier is the key.
	supplierProducts map[int64][]int64

	// productSuppliers / supplierLinkedProducts are the two directions of
	// the product<->supplier link table.
	productSuppliers       map[int64][]int64
	supplierLinkedProducts map[int64][]int64

	supplierSellers map[int64][]int64
	sellerSuppliers map[int64][]int64
}

func NewRelationshipIndex() *RelationshipIndex {
	return &RelationshipIndex{
		accountAddresses:       make(map[int64][]int64),
		accountPaymentMethods:  make(map[int64][]int64),
		accountOrders:          make(map[int64][]int64),
		sellerOrders:           make(map[int64][]int64),
		paymentMethodOrders:    make(map[int64][]int64),
		orderItems:             make(map[int64][]int64),
		orderPayments:          make(map[int64][]int64),
		orderDelivery:          make(map[int64]int64),
		productItems:           make(map[int64][]int64),
		supplierProducts:       make(map[int64][]int64),
		productSuppliers:       make(map[int64][]int64),
		supplierLinkedProducts: make(map[int64][]int64),
		supplierSellers:        make(map[int64][]int64),
		sellerSuppliers:        make(map[int64][]int64),
	}
}

// addRef appends the related id to the ordered set for key.
func (ri *RelationshipIndex) addRef(m map[int64][]int64, key, related int64) {
	m[key] = append(m[key], related)
}

// removeRef removes the related id, preserving the order of the rest.
func (ri *RelationshipIndex) removeRef(m map[int64][]int64, key, related int64) {
	refs := m[key]
	for i, r := range refs {
		if r == related {
			m[key] = append(refs[:i], refs[i+1:]...)
			break
		}
	}
	if len(m[key]) == 0 {
		delete(m, key)
	}
}

// refs returns a copy of the ordered related ids for key. Callers may delete
// entries while iterating the copy.
func (ri *RelationshipIndex) refs(m map[int64][]int64, key int64) []int64 {
	refs := m[key]
	if len(refs) == 0 {
		return nil
	}
	out := make([]int64, len(refs))
	copy(out, refs)
	return out
}

// RefCount reports the total number of indexed references. Zero on a store
// whose every entity has been removed.
func (ri *RelationshipIndex) RefCount() int {
	n := len(ri.orderDelivery)
	for _, m := range []map[int64][]int64{
		ri.accountAddresses, ri.accountPaymentMethods, ri.accountOrders,
		ri.sellerOrders, ri.paymentMethodOrders,
		ri.orderItems, ri.orderPayments, ri.productItems,
		ri.supplierProducts, ri.productSuppliers, ri.supplierLinkedProducts,
		ri.supplierSellers, ri.sellerSuppliers,
	} {
		for _, refs := range m {
			n += len(refs)
		}
	}
	return n
}
