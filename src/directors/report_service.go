package directors

import (
	"shopdb/src/engine"
	"shopdb/src/settings"

	"go.uber.org/zap"
)

// ReportService is the read side handed to reporting collaborators. Every
// method delegates to a query engine operation with explicit parameters;
// callers never construct raw queries.
type ReportService struct {
	store    *engine.Store
	settings *settings.Arguments
	logger   *zap.SugaredLogger
}

func NewReportService(store *engine.Store, logger *zap.SugaredLogger, settings *settings.Arguments) *ReportService {
	return &ReportService{
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

func (s *ReportService) AccountOrderSummaries() []engine.AccountOrderSummary {
	return s.store.AccountOrderSummaries()
}

func (s *ReportService) LinkedSellerSuppliers() []engine.SellerSupplierPair {
	return s.store.LinkedSellerSuppliers()
}

func (s *ReportService) NameMatchedSellerSuppliers() []engine.SellerSupplierPair {
	return s.store.NameMatchedSellerSuppliers()
}

func (s *ReportService) ProductCatalog() []engine.ProductCatalogRow {
	return s.store.ProductCatalog()
}

func (s *ReportService) SupplierProductFanOut() []engine.SupplierProductRow {
	return s.store.SupplierProductFanOut()
}

func (s *ReportService) OrdersTotalingOver(threshold float64) []engine.OrderTotalRow {
	if s.settings.Debug {
		s.logger.Debugf("Running order totals report with threshold %v", threshold)
	}
	return s.store.OrdersTotalingOver(threshold)
}

func (s *ReportService) TopAccountsBySpend(n int) []engine.AccountSpendRow {
	return s.store.TopAccountsBySpend(n)
}

func (s *ReportService) LowStockProducts(threshold int) []engine.LowStockRow {
	if s.settings.Debug {
		s.logger.Debugf("Running low stock report with threshold %d", threshold)
	}
	return s.store.LowStockProducts(threshold)
}

func (s *ReportService) OrderDeliveries() []engine.OrderDeliveryRow {
	return s.store.OrderDeliveries()
}

func (s *ReportService) SupplierRevenue() []engine.SupplierRevenueRow {
	return s.store.SupplierRevenue()
}

func (s *ReportService) OrderItemAverages() []engine.OrderItemStatsRow {
	return s.store.OrderItemAverages()
}

func (s *ReportService) LatestOrderPerAccount() []engine.AccountLatestOrderRow {
	return s.store.LatestOrderPerAccount()
}

func (s *ReportService) IndividualAccountOrderCounts() []engine.AccountOrderCountRow {
	return s.store.IndividualAccountOrderCounts()
}

func (s *ReportService) OrdersWithoutPaymentMethod() []*engine.Order {
	return s.store.OrdersWithoutPaymentMethod()
}

func (s *ReportService) OrderTotalsWithCharges() []engine.OrderChargesRow {
	return s.store.OrderTotalsWithCharges()
}
