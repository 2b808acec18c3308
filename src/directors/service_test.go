package directors

import (
	"path/filepath"
	"testing"

	"shopdb/src/engine"
	"shopdb/src/settings"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceHarness struct {
	store     *engine.Store
	snapshots *engine.FileSnapshotStorageEngine
	accounts  *AccountService
	catalog   *CatalogService
	orders    *OrderService
	reports   *ReportService
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	dataDir := t.TempDir()
	store := engine.NewStore()
	logger := zap.NewNop().Sugar()

	snapshots, err := engine.NewSnapshotStore(dataDir, logger)
	require.NoError(t, err)
	journal, err := engine.NewJournal(filepath.Join(dataDir, "mutations"), 1024*1024)
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	args := settings.GetSettings()
	return &serviceHarness{
		store:     store,
		snapshots: snapshots,
		accounts:  NewAccountService(store, snapshots, journal, logger, args),
		catalog:   NewCatalogService(store, snapshots, journal, logger, args),
		orders:    NewOrderService(store, snapshots, journal, logger, args),
		reports:   NewReportService(store, logger, args),
	}
}

func TestAccountServicePersistsSnapshots(t *testing.T) {
	h := newServiceHarness(t)

	account, err := h.accounts.CreateAccount(engine.AccountCommand{
		Email:      "alice@x.test",
		Individual: &engine.IndividualProfile{FirstName: "Alice"},
	})
	require.NoError(t, err)
	require.True(t, h.snapshots.SnapshotExists(engine.KindAccount))

	var records []engine.Account
	require.NoError(t, h.snapshots.LoadSnapshot(engine.KindAccount, &records))
	require.Len(t, records, 1)
	require.Equal(t, account.Email, records[0].Email)

	// A rejected mutation leaves the snapshot as it was.
	_, err = h.accounts.CreateAccount(engine.AccountCommand{
		Email:      "alice@x.test",
		Individual: &engine.IndividualProfile{FirstName: "Imposter"},
	})
	require.ErrorIs(t, err, engine.ErrConstraintViolated)

	records = nil
	require.NoError(t, h.snapshots.LoadSnapshot(engine.KindAccount, &records))
	require.Len(t, records, 1)
}

func TestUpdatePaymentMethodThroughService(t *testing.T) {
	h := newServiceHarness(t)

	account, err := h.accounts.CreateAccount(engine.AccountCommand{
		Email:      "alice@x.test",
		Individual: &engine.IndividualProfile{FirstName: "Alice"},
	})
	require.NoError(t, err)
	method, err := h.accounts.AddPaymentMethod(engine.PaymentMethodCommand{
		AccountID: account.AccountID, MethodType: "card", Provider: "visa",
	})
	require.NoError(t, err)

	isDefault := true
	updated, err := h.accounts.UpdatePaymentMethod(method.PaymentMethodID, engine.PaymentMethodPatch{IsDefault: &isDefault})
	require.NoError(t, err)
	require.True(t, updated.IsDefault)

	var records []engine.PaymentMethod
	require.NoError(t, h.snapshots.LoadSnapshot(engine.KindPaymentMethod, &records))
	require.Len(t, records, 1)
	require.True(t, records[0].IsDefault)
}

func TestDeleteSupplierPropagatesThroughService(t *testing.T) {
	h := newServiceHarness(t)

	supplier, err := h.catalog.CreateSupplier(engine.SupplierCommand{Name: "Northwind"})
	require.NoError(t, err)
	product, err := h.catalog.CreateProduct(engine.ProductCommand{
		SKU: "KTL", Name: "Kettle", Price: 50, SupplierID: &supplier.SupplierID,
	})
	require.NoError(t, err)
	_, err = h.catalog.LinkProductSupplier(engine.ProductSupplierCommand{
		ProductID: product.ProductID, SupplierID: supplier.SupplierID, SupplierSKU: "NW-1",
	})
	require.NoError(t, err)

	require.NoError(t, h.catalog.DeleteSupplier(supplier.SupplierID))

	got, err := h.catalog.GetProduct(product.ProductID)
	require.NoError(t, err)
	require.Nil(t, got.SupplierID)

	// The dependent kinds were re-snapshotted after the cascade.
	var products []engine.Product
	require.NoError(t, h.snapshots.LoadSnapshot(engine.KindProduct, &products))
	require.Len(t, products, 1)
	require.Nil(t, products[0].SupplierID)

	var links []engine.ProductSupplier
	require.NoError(t, h.snapshots.LoadSnapshot(engine.KindProductSupplier, &links))
	require.Empty(t, links)
}

func TestDeleteAccountBlockedByOrders(t *testing.T) {
	h := newServiceHarness(t)

	account, err := h.accounts.CreateAccount(engine.AccountCommand{
		Email:      "buyer@x.test",
		Individual: &engine.IndividualProfile{FirstName: "Buyer"},
	})
	require.NoError(t, err)
	_, err = h.orders.CreateOrder(engine.OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)

	err = h.accounts.DeleteAccount(account.AccountID)
	require.ErrorIs(t, err, engine.ErrReferencedByDependents)

	_, err = h.accounts.GetAccount(account.AccountID)
	require.NoError(t, err)
}

func TestOrderLifecycleThroughServices(t *testing.T) {
	h := newServiceHarness(t)

	account, err := h.accounts.CreateAccount(engine.AccountCommand{
		Email:      "buyer@x.test",
		Individual: &engine.IndividualProfile{FirstName: "Buyer"},
	})
	require.NoError(t, err)
	product, err := h.catalog.CreateProduct(engine.ProductCommand{SKU: "KTL", Name: "Kettle", Price: 150})
	require.NoError(t, err)

	order, err := h.orders.CreateOrder(engine.OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)
	_, err = h.orders.AddOrderItem(engine.OrderItemCommand{
		OrderID: order.OrderID, ProductID: product.ProductID, UnitPrice: 150, Quantity: 2, Discount: 10,
	})
	require.NoError(t, err)

	// The item mutation re-snapshots the order with its derived total.
	var orders []engine.Order
	require.NoError(t, h.snapshots.LoadSnapshot(engine.KindOrder, &orders))
	require.Len(t, orders, 1)
	require.Equal(t, 290.0, orders[0].TotalAmount)

	rows := h.reports.OrderTotalsWithCharges()
	require.Len(t, rows, 1)
	require.Equal(t, 290.0, rows[0].Total)

	require.NoError(t, h.orders.DeleteOrder(order.OrderID))
	require.NoError(t, h.accounts.DeleteAccount(account.AccountID))
	require.Zero(t, h.store.RefCount())
}

func TestRestoreFromSnapshots(t *testing.T) {
	h := newServiceHarness(t)
	logger := zap.NewNop().Sugar()

	account, err := h.accounts.CreateAccount(engine.AccountCommand{
		Email:      "buyer@x.test",
		Individual: &engine.IndividualProfile{FirstName: "Buyer"},
	})
	require.NoError(t, err)
	product, err := h.catalog.CreateProduct(engine.ProductCommand{SKU: "KTL", Name: "Kettle", Price: 50})
	require.NoError(t, err)
	order, err := h.orders.CreateOrder(engine.OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)
	_, err = h.orders.AddOrderItem(engine.OrderItemCommand{
		OrderID: order.OrderID, ProductID: product.ProductID, UnitPrice: 50, Quantity: 3,
	})
	require.NoError(t, err)

	// A fresh store hydrated from the same data directory sees everything.
	restored := engine.NewStore()
	require.NoError(t, RestoreFromSnapshots(restored, h.snapshots, logger))

	got, err := restored.GetOrder(order.OrderID)
	require.NoError(t, err)
	require.Equal(t, 150.0, got.TotalAmount)

	err = restored.RemoveAccount(account.AccountID)
	require.ErrorIs(t, err, engine.ErrReferencedByDependents)
}

func TestRestoreFromSnapshotsSkipsMissingKinds(t *testing.T) {
	snapshots, err := engine.NewSnapshotStore(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)

	store := engine.NewStore()
	require.NoError(t, RestoreFromSnapshots(store, snapshots, zap.NewNop().Sugar()))
	require.Empty(t, store.ListAccounts(nil))
}

func TestServiceManagerLifecycle(t *testing.T) {
	h := newServiceHarness(t)
	ResetServiceManager()
	t.Cleanup(ResetServiceManager)

	InitServiceManager(h.accounts, h.catalog, h.orders, h.reports, zap.NewNop().Sugar())

	manager := GetServiceManager()
	require.NotNil(t, manager)
	require.Same(t, h.accounts, manager.AccountService)
	require.Same(t, h.catalog, manager.CatalogService)
	require.Same(t, h.orders, manager.OrderService)
	require.Same(t, h.reports, manager.ReportService)

	// After a reset the accessor hands back an empty placeholder.
	ResetServiceManager()
	require.Nil(t, GetServiceManager().AccountService)

	// And the singleton can be initialized again.
	InitServiceManager(h.accounts, h.catalog, h.orders, h.reports, zap.NewNop().Sugar())
	require.Same(t, h.accounts, GetServiceManager().AccountService)
}
