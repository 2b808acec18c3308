package engine

import (
	"fmt"
	"time"
)

type OrderCommand struct {
	AccountID       int64
	SellerID        *int64
	OrderDate       time.Time
	Status          OrderStatus
	PaymentMethodID *int64
}

// OrderPatch updates an order. ClearSeller / ClearPaymentMethod drop the
// nullable references and win over the corresponding id fields. TotalAmount
// is not patchable; it is always derived from the order's items.
type OrderPatch struct {
	SellerID           *int64
	ClearSeller        bool
	Status             *OrderStatus
	PaymentMethodID    *int64
	ClearPaymentMethod bool
	OrderDate          *time.Time
}

type OrderItemCommand struct {
	OrderID   int64
	ProductID int64
	UnitPrice float64
	Quantity  int
	Discount  float64
}

type OrderItemPatch struct {
	UnitPrice *float64
	Quantity  *int
	Discount  *float64
}

type DeliveryCommand struct {
	OrderID       int64
	Carrier       string
	TrackingCode  string
	Status        DeliveryStatus
	EstimatedDate time.Time
}

type DeliveryPatch struct {
	Carrier       *string
	TrackingCode  *string
	Status        *DeliveryStatus
	EstimatedDate *time.Time
	ShippedAt     *time.Time
}

type PaymentCommand struct {
	OrderID int64
	PaidAt  time.Time
	Amount  float64
	Status  PaymentStatus
}

type PaymentPatch struct {
	PaidAt *time.Time
	Amount *float64
	Status *PaymentStatus
}

// ---------------------------------------- orders ----------------------------------------

func (s *Store) AddOrder(cmd OrderCommand) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[cmd.AccountID]; !exists {
		return nil, fmt.Errorf("%w: order references missing account %d", ErrDanglingReference, cmd.AccountID)
	}
	if cmd.SellerID != nil {
		if _, exists := s.sellers[*cmd.SellerID]; !exists {
			return nil, fmt.Errorf("%w: order references missing seller %d", ErrDanglingReference, *cmd.SellerID)
		}
	}
	if cmd.PaymentMethodID != nil {
		if _, exists := s.paymentMethods[*cmd.PaymentMethodID]; !exists {
			return nil, fmt.Errorf("%w: order references missing payment method %d", ErrDanglingReference, *cmd.PaymentMethodID)
		}
	}
	status := cmd.Status
	if status == "" {
		status = OrderPending
	}
	if err := validateOrderStatus(status); err != nil {
		return nil, err
	}
	orderDate := cmd.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	order := &Order{
		OrderID:         s.allocID(KindOrder),
		AccountID:       cmd.AccountID,
		SellerID:        cloneID(cmd.SellerID),
		OrderDate:       orderDate,
		Status:          status,
		PaymentMethodID: cloneID(cmd.PaymentMethodID),
	}
	s.orders[order.OrderID] = order
	s.index.addRef(s.index.accountOrders, order.AccountID, order.OrderID)
	if order.SellerID != nil {
		s.index.addRef(s.index.sellerOrders, *order.SellerID, order.OrderID)
	}
	if order.PaymentMethodID != nil {
		s.index.addRef(s.index.paymentMethodOrders, *order.PaymentMethodID, order.OrderID)
	}

	return copyOrder(order), nil
}

func (s *Store) UpdateOrder(id int64, patch OrderPatch) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}

	candidate := *order
	candidate.SellerID = cloneID(order.SellerID)
	candidate.PaymentMethodID = cloneID(order.PaymentMethodID)
	if patch.ClearSeller {
		candidate.SellerID = nil
	} else if patch.SellerID != nil {
		candidate.SellerID = cloneID(patch.SellerID)
	}
	if patch.ClearPaymentMethod {
		candidate.PaymentMethodID = nil
	} else if patch.PaymentMethodID != nil {
		candidate.PaymentMethodID = cloneID(patch.PaymentMethodID)
	}
	if patch.Status != nil {
		candidate.Status = *patch.Status
	}
	if patch.OrderDate != nil {
		candidate.OrderDate = *patch.OrderDate
	}

	if err := validateOrderStatus(candidate.Status); err != nil {
		return nil, err
	}
	if candidate.SellerID != nil {
		if _, exists := s.sellers[*candidate.SellerID]; !exists {
			return nil, fmt.Errorf("%w: order references missing seller %d", ErrDanglingReference, *candidate.SellerID)
		}
	}
	if candidate.PaymentMethodID != nil {
		if _, exists := s.paymentMethods[*candidate.PaymentMethodID]; !exists {
			return nil, fmt.Errorf("%w: order references missing payment method %d", ErrDanglingReference, *candidate.PaymentMethodID)
		}
	}

	if !idEqual(order.SellerID, candidate.SellerID) {
		if order.SellerID != nil {
			s.index.removeRef(s.index.sellerOrders, *order.SellerID, id)
		}
		if candidate.SellerID != nil {
			s.index.addRef(s.index.sellerOrders, *candidate.SellerID, id)
		}
	}
	if !idEqual(order.PaymentMethodID, candidate.PaymentMethodID) {
		if order.PaymentMethodID != nil {
			s.index.removeRef(s.index.paymentMethodOrders, *order.PaymentMethodID, id)
		}
		if candidate.PaymentMethodID != nil {
			s.index.addRef(s.index.paymentMethodOrders, *candidate.PaymentMethodID, id)
		}
	}
	*order = candidate

	return copyOrder(order), nil
}

// RemoveOrder deletes an order together with its items, delivery record and
// payments.
func (s *Store) RemoveOrder(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id]
	if !exists {
		return fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	if err := s.applyDeleteRules(KindOrder, id); err != nil {
		return err
	}

	s.index.removeRef(s.index.accountOrders, order.AccountID, id)
	if order.SellerID != nil {
		s.index.removeRef(s.index.sellerOrders, *order.SellerID, id)
	}
	if order.PaymentMethodID != nil {
		s.index.removeRef(s.index.paymentMethodOrders, *order.PaymentMethodID, id)
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) GetOrder(id int64) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return copyOrder(order), nil
}

// ListOrders returns orders matching the predicate, ordered by id.
func (s *Store) ListOrders(pred func(*Order) bool) []*Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Order
	for _, id := range sortedKeys(s.orders) {
		order := s.orders[id]
		if pred == nil || pred(order) {
			out = append(out, copyOrder(order))
		}
	}
	return out
}

// ---------------------------------------- order items ----------------------------------------

func (s *Store) AddOrderItem(cmd OrderItemCommand) (*OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[cmd.OrderID]; !exists {
		return nil, fmt.Errorf("%w: item references missing order %d", ErrDanglingReference, cmd.OrderID)
	}
	if _, exists := s.products[cmd.ProductID]; !exists {
		return nil, fmt.Errorf("%w: item references missing product %d", ErrDanglingReference, cmd.ProductID)
	}
	if err := validateOrderItemAmounts(cmd.UnitPrice, cmd.Quantity, cmd.Discount); err != nil {
		return nil, err
	}
	subtotal := ComputeSubtotal(cmd.UnitPrice, cmd.Quantity, cmd.Discount)
	if subtotal < 0 {
		return nil, fmt.Errorf("%w: discount %v exceeds line total", ErrConstraintViolated, cmd.Discount)
	}

	item := &OrderItem{
		OrderItemID: s.allocID(KindOrderItem),
		OrderID:     cmd.OrderID,
		ProductID:   cmd.ProductID,
		UnitPrice:   cmd.UnitPrice,
		Quantity:    cmd.Quantity,
		Discount:    cmd.Discount,
		Subtotal:    subtotal,
	}
	s.orderItems[item.OrderItemID] = item
	s.index.addRef(s.index.orderItems, item.OrderID, item.OrderItemID)
	s.index.addRef(s.index.productItems, item.ProductID, item.OrderItemID)
	s.recomputeOrderTotalLocked(item.OrderID)

	out := *item
	return &out, nil
}

func (s *Store) UpdateOrderItem(id int64, patch OrderItemPatch) (*OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.orderItems[id]
	if !exists {
		return nil, fmt.Errorf("%w: order item %d", ErrNotFound, id)
	}

	candidate := *item
	if patch.UnitPrice != nil {
		candidate.UnitPrice = *patch.UnitPrice
	}
	if patch.Quantity != nil {
		candidate.Quantity = *patch.Quantity
	}
	if patch.Discount != nil {
		candidate.Discount = *patch.Discount
	}
	if err := validateOrderItemAmounts(candidate.UnitPrice, candidate.Quantity, candidate.Discount); err != nil {
		return nil, err
	}
	candidate.Subtotal = ComputeSubtotal(candidate.UnitPrice, candidate.Quantity, candidate.Discount)
	if candidate.Subtotal < 0 {
		return nil, fmt.Errorf("%w: discount %v exceeds line total", ErrConstraintViolated, candidate.Discount)
	}

	*item = candidate
	s.recomputeOrderTotalLocked(item.OrderID)

	out := *item
	return &out, nil
}

func (s *Store) RemoveOrderItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orderItems[id]; !exists {
		return fmt.Errorf("%w: order item %d", ErrNotFound, id)
	}
	s.removeOrderItemLocked(id)
	return nil
}

func (s *Store) removeOrderItemLocked(id int64) {
	item := s.orderItems[id]
	s.index.removeRef(s.index.orderItems, item.OrderID, id)
	s.index.removeRef(s.index.productItems, item.ProductID, id)
	delete(s.orderItems, id)
	s.recomputeOrderTotalLocked(item.OrderID)
}

func (s *Store) GetOrderItem(id int64) (*OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.orderItems[id]
	if !exists {
		return nil, fmt.Errorf("%w: order item %d", ErrNotFound, id)
	}
	out := *item
	return &out, nil
}

// ItemsForOrder returns the order's items in insertion order.
func (s *Store) ItemsForOrder(orderID int64) []*OrderItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*OrderItem
	for _, itemID := range s.index.refs(s.index.orderItems, orderID) {
		copied := *s.orderItems[itemID]
		out = append(out, &copied)
	}
	return out
}

// recomputeOrderTotalLocked derives the order total from the current item
// subtotals. Running it twice without item changes yields the same value.
func (s *Store) recomputeOrderTotalLocked(orderID int64) {
	order, exists := s.orders[orderID]
	if !exists {
		return
	}
	var total float64
	for _, itemID := range s.index.refs(s.index.orderItems, orderID) {
		total += s.orderItems[itemID].Subtotal
	}
	order.TotalAmount = total
}

// ---------------------------------------- deliveries ----------------------------------------

func (s *Store) AddDelivery(cmd DeliveryCommand) (*Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[cmd.OrderID]; !exists {
		return nil, fmt.Errorf("%w: delivery references missing order %d", ErrDanglingReference, cmd.OrderID)
	}
	if existing, taken := s.index.orderDelivery[cmd.OrderID]; taken {
		return nil, fmt.Errorf("%w: order %d already has delivery %d", ErrConstraintViolated, cmd.OrderID, existing)
	}
	status := cmd.Status
	if status == "" {
		status = DeliveryAwaiting
	}
	if err := validateDeliveryStatus(status); err != nil {
		return nil, err
	}

	delivery := &Delivery{
		DeliveryID:    s.allocID(KindDelivery),
		OrderID:       cmd.OrderID,
		Carrier:       cmd.Carrier,
		TrackingCode:  cmd.TrackingCode,
		Status:        status,
		EstimatedDate: cmd.EstimatedDate,
	}
	s.deliveries[delivery.DeliveryID] = delivery
	s.index.orderDelivery[cmd.OrderID] = delivery.DeliveryID

	return copyDelivery(delivery), nil
}

func (s *Store) UpdateDelivery(id int64, patch DeliveryPatch) (*Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delivery, exists := s.deliveries[id]
	if !exists {
		return nil, fmt.Errorf("%w: delivery %d", ErrNotFound, id)
	}
	if patch.Status != nil {
		if err := validateDeliveryStatus(*patch.Status); err != nil {
			return nil, err
		}
		delivery.Status = *patch.Status
	}
	if patch.Carrier != nil {
		delivery.Carrier = *patch.Carrier
	}
	if patch.TrackingCode != nil {
		delivery.TrackingCode = *patch.TrackingCode
	}
	if patch.EstimatedDate != nil {
		delivery.EstimatedDate = *patch.EstimatedDate
	}
	if patch.ShippedAt != nil {
		shipped := *patch.ShippedAt
		delivery.ShippedAt = &shipped
	}

	return copyDelivery(delivery), nil
}

func (s *Store) RemoveDelivery(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deliveries[id]; !exists {
		return fmt.Errorf("%w: delivery %d", ErrNotFound, id)
	}
	s.removeDeliveryLocked(id)
	return nil
}

func (s *Store) removeDeliveryLocked(id int64) {
	delivery := s.deliveries[id]
	delete(s.index.orderDelivery, delivery.OrderID)
	delete(s.deliveries, id)
}

func (s *Store) GetDelivery(id int64) (*Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivery, exists := s.deliveries[id]
	if !exists {
		return nil, fmt.Errorf("%w: delivery %d", ErrNotFound, id)
	}
	return copyDelivery(delivery), nil
}

// ListDeliveries returns deliveries matching the predicate, ordered by id.
func (s *Store) ListDeliveries(pred func(*Delivery) bool) []*Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Delivery
	for _, id := range sortedKeys(s.deliveries) {
		delivery := s.deliveries[id]
		if pred == nil || pred(delivery) {
			out = append(out, copyDelivery(delivery))
		}
	}
	return out
}

// ---------------------------------------- payments ----------------------------------------

func (s *Store) AddPayment(cmd PaymentCommand) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[cmd.OrderID]; !exists {
		return nil, fmt.Errorf("%w: payment references missing order %d", ErrDanglingReference, cmd.OrderID)
	}
	if err := checkNonNegative("amount", cmd.Amount); err != nil {
		return nil, err
	}
	status := cmd.Status
	if status == "" {
		status = PaymentPending
	}
	if err := validatePaymentStatus(status); err != nil {
		return nil, err
	}
	paidAt := cmd.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	payment := &Payment{
		PaymentID: s.allocID(KindPayment),
		OrderID:   cmd.OrderID,
		PaidAt:    paidAt,
		Amount:    cmd.Amount,
		Status:    status,
	}
	s.payments[payment.PaymentID] = payment
	s.index.addRef(s.index.orderPayments, cmd.OrderID, payment.PaymentID)

	out := *payment
	return &out, nil
}

func (s *Store) UpdatePayment(id int64, patch PaymentPatch) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[id]
	if !exists {
		return nil, fmt.Errorf("%w: payment %d", ErrNotFound, id)
	}
	if patch.Amount != nil {
		if err := checkNonNegative("amount", *patch.Amount); err != nil {
			return nil, err
		}
		payment.Amount = *patch.Amount
	}
	if patch.Status != nil {
		if err := validatePaymentStatus(*patch.Status); err != nil {
			return nil, err
		}
		payment.Status = *patch.Status
	}
	if patch.PaidAt != nil {
		payment.PaidAt = *patch.PaidAt
	}

	out := *payment
	return &out, nil
}

func (s *Store) RemovePayment(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[id]; !exists {
		return fmt.Errorf("%w: payment %d", ErrNotFound, id)
	}
	s.removePaymentLocked(id)
	return nil
}

func (s *Store) removePaymentLocked(id int64) {
	payment := s.payments[id]
	s.index.removeRef(s.index.orderPayments, payment.OrderID, id)
	delete(s.payments, id)
}

func (s *Store) GetPayment(id int64) (*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, exists := s.payments[id]
	if !exists {
		return nil, fmt.Errorf("%w: payment %d", ErrNotFound, id)
	}
	out := *payment
	return &out, nil
}

// ListPayments returns payments matching the predicate, ordered by id.
func (s *Store) ListPayments(pred func(*Payment) bool) []*Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Payment
	for _, id := range sortedKeys(s.payments) {
		payment := s.payments[id]
		if pred == nil || pred(payment) {
			copied := *payment
			out = append(out, &copied)
		}
	}
	return out
}

// ---------------------------------------- copies ----------------------------------------

func copyOrder(o *Order) *Order {
	copied := *o
	copied.SellerID = cloneID(o.SellerID)
	copied.PaymentMethodID = cloneID(o.PaymentMethodID)
	return &copied
}

func copyDelivery(d *Delivery) *Delivery {
	copied := *d
	if d.ShippedAt != nil {
		shipped := *d.ShippedAt
		copied.ShippedAt = &shipped
	}
	return &copied
}
