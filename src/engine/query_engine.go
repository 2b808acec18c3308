package engine

import (
	"sort"
	"time"

	"shopdb/src/helpers"
)

// Derived charges applied on top of an order total by OrderTotalsWithCharges.
// Never persisted.
const (
	TaxRate         = 0.18
	ShippingFlatFee = 15.0
)

// The query engine is read-only: every function here takes the read lock,
// computes over the committed state and returns ordered result rows. None of
// them can fail on well-formed input; an empty slice is a valid outcome.

type AccountOrderSummary struct {
	AccountID  int64
	Email      string
	Kind       AccountKind
	OrderCount int
	TotalSpend float64
}

// AccountOrderSummaries reports order count and total spend per account,
// including accounts with no orders, ordered by order count descending, ties
// by ascending account id.
func (s *Store) AccountOrderSummaries() []AccountOrderSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AccountOrderSummary, 0, len(s.accounts))
	for _, id := range sortedKeys(s.accounts) {
		account := s.accounts[id]
		row := AccountOrderSummary{AccountID: id, Email: account.Email, Kind: account.Kind()}
		for _, orderID := range s.index.refs(s.index.accountOrders, id) {
			row.OrderCount++
			row.TotalSpend += s.orders[orderID].TotalAmount
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderCount != out[j].OrderCount {
			return out[i].OrderCount > out[j].OrderCount
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

type SellerSupplierPair struct {
	SellerID     int64
	SellerName   string
	SupplierID   int64
	SupplierName string
}

// LinkedSellerSuppliers lists seller/supplier pairs recorded in the explicit
// link table, ordered by seller id then supplier id.
func (s *Store) LinkedSellerSuppliers() []SellerSupplierPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SellerSupplierPair
	for _, sellerID := range sortedKeys(s.sellers) {
		for _, supplierID := range s.index.refs(s.index.sellerSuppliers, sellerID) {
			out = append(out, SellerSupplierPair{
				SellerID:     sellerID,
				SellerName:   s.sellers[sellerID].Name,
				SupplierID:   supplierID,
				SupplierName: s.suppliers[supplierID].Name,
			})
		}
	}
	return out
}

// NameMatchedSellerSuppliers lists seller/supplier pairs whose names match
// case-insensitively. This heuristic signal is reported independently of the
// link table; the engine never merges the two.
func (s *Store) NameMatchedSellerSuppliers() []SellerSupplierPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SellerSupplierPair
	for _, sellerID := range sortedKeys(s.sellers) {
		seller := s.sellers[sellerID]
		for _, supplierID := range sortedKeys(s.suppliers) {
			supplier := s.suppliers[supplierID]
			if helpers.NormalizeName(seller.Name) == helpers.NormalizeName(supplier.Name) {
				out = append(out, SellerSupplierPair{
					SellerID:     sellerID,
					SellerName:   seller.Name,
					SupplierID:   supplierID,
					SupplierName: supplier.Name,
				})
			}
		}
	}
	return out
}

type ProductCatalogRow struct {
	ProductID int64
	SKU       string
	Name      string
	Price     float64
	// SupplierName is nil when the product has no principal supplier.
	SupplierName *string
	// StockQuantity defaults to 0 when no stock record exists.
	StockQuantity int
}

// ProductCatalog joins products with their principal supplier name and
// current stock quantity, ordered by product name, ties by ascending id.
func (s *Store) ProductCatalog() []ProductCatalogRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProductCatalogRow, 0, len(s.products))
	for _, id := range sortedKeys(s.products) {
		product := s.products[id]
		row := ProductCatalogRow{
			ProductID: id,
			SKU:       product.SKU,
			Name:      product.Name,
			Price:     product.Price,
		}
		if product.SupplierID != nil {
			name := s.suppliers[*product.SupplierID].Name
			row.SupplierName = &name
		}
		if stock, ok := s.stock[id]; ok {
			row.StockQuantity = stock.Quantity
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

type SupplierProductRow struct {
	SupplierID   int64
	SupplierName string
	ProductID    int64
	ProductName  string
	SupplierSKU  string
	LeadTimeDays int
}

// SupplierProductFanOut expands the full supplier-to-product many-to-many
// link, ordered by supplier id then product link insertion order.
func (s *Store) SupplierProductFanOut() []SupplierProductRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SupplierProductRow
	for _, supplierID := range sortedKeys(s.suppliers) {
		supplier := s.suppliers[supplierID]
		for _, productID := range s.index.refs(s.index.supplierLinkedProducts, supplierID) {
			link := s.productSuppliers[linkKey{Left: productID, Right: supplierID}]
			out = append(out, SupplierProductRow{
				SupplierID:   supplierID,
				SupplierName: supplier.Name,
				ProductID:    productID,
				ProductName:  s.products[productID].Name,
				SupplierSKU:  link.SupplierSKU,
				LeadTimeDays: link.LeadTimeDays,
			})
		}
	}
	return out
}

type OrderTotalRow struct {
	OrderID   int64
	AccountID int64
	ItemCount int
	Total     float64
}

// OrdersTotalingOver reports item count and running total per order, keeping
// only orders whose total exceeds the threshold. The filter applies after
// grouping. Ordered by total descending, ties by ascending order id.
func (s *Store) OrdersTotalingOver(threshold float64) []OrderTotalRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []OrderTotalRow
	for _, id := range sortedKeys(s.orders) {
		order := s.orders[id]
		row := OrderTotalRow{OrderID: id, AccountID: order.AccountID}
		for _, itemID := range s.index.refs(s.index.orderItems, id) {
			row.ItemCount++
			row.Total += s.orderItems[itemID].Subtotal
		}
		if row.Total > threshold {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}

type AccountSpendRow struct {
	AccountID  int64
	Email      string
	TotalSpend float64
}

// TopAccountsBySpend returns the n highest-spending accounts, descending by
// spend, ties broken by ascending account id.
func (s *Store) TopAccountsBySpend(n int) []AccountSpendRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]AccountSpendRow, 0, len(s.accounts))
	for _, id := range sortedKeys(s.accounts) {
		row := AccountSpendRow{AccountID: id, Email: s.accounts[id].Email}
		for _, orderID := range s.index.refs(s.index.accountOrders, id) {
			row.TotalSpend += s.orders[orderID].TotalAmount
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalSpend != rows[j].TotalSpend {
			return rows[i].TotalSpend > rows[j].TotalSpend
		}
		return rows[i].AccountID < rows[j].AccountID
	})
	if n < 0 {
		n = 0
	}
	if n < len(rows) {
		rows = rows[:n]
	}
	return rows
}

type LowStockRow struct {
	ProductID int64
	Name      string
	Quantity  int
}

// LowStockProducts lists products whose stock quantity is below the
// threshold, ascending by quantity, ties by ascending product id. Products
// without a stock record are not considered stocked at all and are skipped.
func (s *Store) LowStockProducts(threshold int) []LowStockRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LowStockRow
	for _, productID := range sortedKeys(s.stock) {
		record := s.stock[productID]
		if record.Quantity < threshold {
			out = append(out, LowStockRow{
				ProductID: productID,
				Name:      s.products[productID].Name,
				Quantity:  record.Quantity,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

type OrderDeliveryRow struct {
	OrderID   int64
	OrderDate time.Time
	Status    OrderStatus
	// DeliveryStatus and TrackingCode are nil for orders without a delivery
	// record.
	DeliveryStatus *DeliveryStatus
	TrackingCode   *string
}

// OrderDeliveries joins each order with its delivery status and tracking
// code; orders without a delivery still appear. Newest first (order date
// descending, ties by descending order id).
func (s *Store) OrderDeliveries() []OrderDeliveryRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]OrderDeliveryRow, 0, len(s.orders))
	for _, id := range sortedKeys(s.orders) {
		order := s.orders[id]
		row := OrderDeliveryRow{OrderID: id, OrderDate: order.OrderDate, Status: order.Status}
		if deliveryID, ok := s.index.orderDelivery[id]; ok {
			delivery := s.deliveries[deliveryID]
			status := delivery.Status
			tracking := delivery.TrackingCode
			row.DeliveryStatus = &status
			row.TrackingCode = &tracking
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].OrderID > out[j].OrderID
	})
	return out
}

type SupplierRevenueRow struct {
	SupplierID int64
	Name       string
	Revenue    float64
	OrderCount int
}

// SupplierRevenue derives revenue and distinct order count per supplier by
// resolving each order item's product to its principal supplier. Suppliers
// with no attributable items report zero. Ordered by revenue descending,
// ties by ascending supplier id.
func (s *Store) SupplierRevenue() []SupplierRevenueRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revenue := make(map[int64]float64)
	orderSets := make(map[int64]map[int64]bool)
	for _, item := range s.orderItems {
		product := s.products[item.ProductID]
		if product.SupplierID == nil {
			continue
		}
		supplierID := *product.SupplierID
		revenue[supplierID] += item.Subtotal
		if orderSets[supplierID] == nil {
			orderSets[supplierID] = make(map[int64]bool)
		}
		orderSets[supplierID][item.OrderID] = true
	}

	out := make([]SupplierRevenueRow, 0, len(s.suppliers))
	for _, id := range sortedKeys(s.suppliers) {
		out = append(out, SupplierRevenueRow{
			SupplierID: id,
			Name:       s.suppliers[id].Name,
			Revenue:    revenue[id],
			OrderCount: len(orderSets[id]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].SupplierID < out[j].SupplierID
	})
	return out
}

type OrderItemStatsRow struct {
	OrderID     int64
	ItemCount   int
	AvgQuantity float64
}

// OrderItemAverages reports average item quantity and item count per order,
// restricted to orders with at least one item, ordered by order id.
func (s *Store) OrderItemAverages() []OrderItemStatsRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []OrderItemStatsRow
	for _, id := range sortedKeys(s.orders) {
		itemIDs := s.index.refs(s.index.orderItems, id)
		if len(itemIDs) == 0 {
			continue
		}
		total := 0
		for _, itemID := range itemIDs {
			total += s.orderItems[itemID].Quantity
		}
		out = append(out, OrderItemStatsRow{
			OrderID:     id,
			ItemCount:   len(itemIDs),
			AvgQuantity: float64(total) / float64(len(itemIDs)),
		})
	}
	return out
}

type AccountLatestOrderRow struct {
	AccountID int64
	// OrderID is nil for accounts with no orders.
	OrderID *int64
}

// LatestOrderPerAccount returns, per account, the id of its most recent
// order by order date (ties broken by the higher order id). A per-account
// scalar lookup, ordered by account id.
func (s *Store) LatestOrderPerAccount() []AccountLatestOrderRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AccountLatestOrderRow, 0, len(s.accounts))
	for _, accountID := range sortedKeys(s.accounts) {
		row := AccountLatestOrderRow{AccountID: accountID}
		var latest *Order
		for _, orderID := range s.index.refs(s.index.accountOrders, accountID) {
			order := s.orders[orderID]
			if latest == nil || order.OrderDate.After(latest.OrderDate) ||
				(order.OrderDate.Equal(latest.OrderDate) && order.OrderID > latest.OrderID) {
				latest = order
			}
		}
		if latest != nil {
			id := latest.OrderID
			row.OrderID = &id
		}
		out = append(out, row)
	}
	return out
}

type AccountOrderCountRow struct {
	AccountID  int64
	Email      string
	OrderCount int
}

// IndividualAccountOrderCounts reports order counts for individual-type
// accounts only, ordered by order count descending, ties by ascending id.
func (s *Store) IndividualAccountOrderCounts() []AccountOrderCountRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []AccountOrderCountRow
	for _, id := range sortedKeys(s.accounts) {
		account := s.accounts[id]
		if account.Kind() != AccountIndividual {
			continue
		}
		out = append(out, AccountOrderCountRow{
			AccountID:  id,
			Email:      account.Email,
			OrderCount: len(s.index.refs(s.index.accountOrders, id)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderCount != out[j].OrderCount {
			return out[i].OrderCount > out[j].OrderCount
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

// OrdersWithoutPaymentMethod lists orders lacking an assigned payment
// method, ordered by order id.
func (s *Store) OrdersWithoutPaymentMethod() []*Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Order
	for _, id := range sortedKeys(s.orders) {
		if order := s.orders[id]; order.PaymentMethodID == nil {
			out = append(out, copyOrder(order))
		}
	}
	return out
}

type OrderChargesRow struct {
	OrderID    int64
	Total      float64
	Tax        float64
	Shipping   float64
	GrandTotal float64
}

// OrderTotalsWithCharges adds the tax and flat shipping surcharge to each
// order total as derived fields; stored state is untouched. Ordered by
// order id.
func (s *Store) OrderTotalsWithCharges() []OrderChargesRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]OrderChargesRow, 0, len(s.orders))
	for _, id := range sortedKeys(s.orders) {
		total := s.orders[id].TotalAmount
		tax := total * TaxRate
		out = append(out, OrderChargesRow{
			OrderID:    id,
			Total:      total,
			Tax:        tax,
			Shipping:   ShippingFlatFee,
			GrandTotal: total + tax + ShippingFlatFee,
		})
	}
	return out
}
