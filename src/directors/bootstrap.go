package directors

import (
	"fmt"

	"shopdb/src/engine"

	"go.uber.org/zap"
)

// RestoreFromSnapshots loads every present snapshot file into the store,
// kind by kind. Kinds without a snapshot are skipped; a fresh data directory
// restores nothing. Parent kinds are restored before the kinds that
// reference them.
func RestoreFromSnapshots(store *engine.Store, snapshots engine.SnapshotStore, logger *zap.SugaredLogger) error {
	steps := []struct {
		kind engine.EntityKind
		load func() (interface{}, error)
	}{
		{engine.KindAccount, func() (interface{}, error) {
			var v []engine.Account
			err := snapshots.LoadSnapshot(engine.KindAccount, &v)
			return v, err
		}},
		{engine.KindSupplier, func() (interface{}, error) {
			var v []engine.Supplier
			err := snapshots.LoadSnapshot(engine.KindSupplier, &v)
			return v, err
		}},
		{engine.KindSeller, func() (interface{}, error) {
			var v []engine.Seller
			err := snapshots.LoadSnapshot(engine.KindSeller, &v)
			return v, err
		}},
		{engine.KindProduct, func() (interface{}, error) {
			var v []engine.Product
			err := snapshots.LoadSnapshot(engine.KindProduct, &v)
			return v, err
		}},
		{engine.KindStock, func() (interface{}, error) {
			var v []engine.Stock
			err := snapshots.LoadSnapshot(engine.KindStock, &v)
			return v, err
		}},
		{engine.KindAddress, func() (interface{}, error) {
			var v []engine.Address
			err := snapshots.LoadSnapshot(engine.KindAddress, &v)
			return v, err
		}},
		{engine.KindPaymentMethod, func() (interface{}, error) {
			var v []engine.PaymentMethod
			err := snapshots.LoadSnapshot(engine.KindPaymentMethod, &v)
			return v, err
		}},
		{engine.KindOrder, func() (interface{}, error) {
			var v []engine.Order
			err := snapshots.LoadSnapshot(engine.KindOrder, &v)
			return v, err
		}},
		{engine.KindOrderItem, func() (interface{}, error) {
			var v []engine.OrderItem
			err := snapshots.LoadSnapshot(engine.KindOrderItem, &v)
			return v, err
		}},
		{engine.KindDelivery, func() (interface{}, error) {
			var v []engine.Delivery
			err := snapshots.LoadSnapshot(engine.KindDelivery, &v)
			return v, err
		}},
		{engine.KindPayment, func() (interface{}, error) {
			var v []engine.Payment
			err := snapshots.LoadSnapshot(engine.KindPayment, &v)
			return v, err
		}},
		{engine.KindProductSupplier, func() (interface{}, error) {
			var v []engine.ProductSupplier
			err := snapshots.LoadSnapshot(engine.KindProductSupplier, &v)
			return v, err
		}},
		{engine.KindSupplierSeller, func() (interface{}, error) {
			var v []engine.SupplierSeller
			err := snapshots.LoadSnapshot(engine.KindSupplierSeller, &v)
			return v, err
		}},
	}

	restored := 0
	for _, step := range steps {
		if !snapshots.SnapshotExists(step.kind) {
			continue
		}
		records, err := step.load()
		if err != nil {
			return fmt.Errorf("failed to load snapshot for kind %s: %w", step.kind, err)
		}
		if err := store.RestoreKind(step.kind, records); err != nil {
			return fmt.Errorf("failed to restore kind %s: %w", step.kind, err)
		}
		restored++
	}

	if logger != nil {
		logger.Infof("Restored %d entity kinds from snapshots", restored)
	}
	return nil
}
