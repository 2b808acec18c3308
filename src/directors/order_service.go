package directors

import (
	"fmt"

	"shopdb/src/engine"
	"shopdb/src/settings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

// OrderService owns orders and their dependents: items, the delivery record
// and payments. Item mutations also touch the order kind because the order
// total is recomputed with them.
type OrderService struct {
	store     *engine.Store
	snapshots engine.SnapshotStore
	journal   *engine.Journal
	settings  *settings.Arguments
	logger    *zap.SugaredLogger
}

func NewOrderService(store *engine.Store, snapshots engine.SnapshotStore, journal *engine.Journal,
	logger *zap.SugaredLogger, settings *settings.Arguments) *OrderService {
	return &OrderService{
		store:     store,
		snapshots: snapshots,
		journal:   journal,
		settings:  settings,
		logger:    logger,
	}
}

func (s *OrderService) CreateOrder(cmd engine.OrderCommand) (*engine.Order, error) {
	order, err := s.store.AddOrder(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if s.settings.Debug {
		s.logger.Debugf("Created order: %s", spew.Sdump(order))
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("order %d", order.OrderID), engine.KindOrder)
	return order, nil
}

func (s *OrderService) UpdateOrder(id int64, patch engine.OrderPatch) (*engine.Order, error) {
	order, err := s.store.UpdateOrder(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("order %d", id), engine.KindOrder)
	return order, nil
}

// DeleteOrder removes an order with its items, delivery and payments.
func (s *OrderService) DeleteOrder(id int64) error {
	if err := s.store.RemoveOrder(id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("order %d", id),
		engine.KindOrder, engine.KindOrderItem, engine.KindDelivery, engine.KindPayment)
	return nil
}

func (s *OrderService) GetOrder(id int64) (*engine.Order, error) {
	return s.store.GetOrder(id)
}

func (s *OrderService) ListOrders(pred func(*engine.Order) bool) []*engine.Order {
	return s.store.ListOrders(pred)
}

func (s *OrderService) AddOrderItem(cmd engine.OrderItemCommand) (*engine.OrderItem, error) {
	item, err := s.store.AddOrderItem(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to order %d: %w", cmd.OrderID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("order item %d", item.OrderItemID),
		engine.KindOrderItem, engine.KindOrder)
	return item, nil
}

func (s *OrderService) UpdateOrderItem(id int64, patch engine.OrderItemPatch) (*engine.OrderItem, error) {
	item, err := s.store.UpdateOrderItem(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update order item %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("order item %d", id),
		engine.KindOrderItem, engine.KindOrder)
	return item, nil
}

func (s *OrderService) DeleteOrderItem(id int64) error {
	if err := s.store.RemoveOrderItem(id); err != nil {
		return fmt.Errorf("failed to delete order item %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("order item %d", id),
		engine.KindOrderItem, engine.KindOrder)
	return nil
}

func (s *OrderService) ItemsForOrder(orderID int64) []*engine.OrderItem {
	return s.store.ItemsForOrder(orderID)
}

func (s *OrderService) AddDelivery(cmd engine.DeliveryCommand) (*engine.Delivery, error) {
	delivery, err := s.store.AddDelivery(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to add delivery for order %d: %w", cmd.OrderID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("delivery %d", delivery.DeliveryID), engine.KindDelivery)
	return delivery, nil
}

func (s *OrderService) UpdateDelivery(id int64, patch engine.DeliveryPatch) (*engine.Delivery, error) {
	delivery, err := s.store.UpdateDelivery(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update delivery %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("delivery %d", id), engine.KindDelivery)
	return delivery, nil
}

func (s *OrderService) DeleteDelivery(id int64) error {
	if err := s.store.RemoveDelivery(id); err != nil {
		return fmt.Errorf("failed to delete delivery %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("delivery %d", id), engine.KindDelivery)
	return nil
}

func (s *OrderService) AddPayment(cmd engine.PaymentCommand) (*engine.Payment, error) {
	payment, err := s.store.AddPayment(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to add payment for order %d: %w", cmd.OrderID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("payment %d", payment.PaymentID), engine.KindPayment)
	return payment, nil
}

func (s *OrderService) UpdatePayment(id int64, patch engine.PaymentPatch) (*engine.Payment, error) {
	payment, err := s.store.UpdatePayment(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("payment %d", id), engine.KindPayment)
	return payment, nil
}

func (s *OrderService) DeletePayment(id int64) error {
	if err := s.store.RemovePayment(id); err != nil {
		return fmt.Errorf("failed to delete payment %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("payment %d", id), engine.KindPayment)
	return nil
}
