package directors

import (
	"fmt"

	"shopdb/src/engine"
	"shopdb/src/settings"

	"go.uber.org/zap"
)

// CatalogService owns the supply side of the model: suppliers, sellers,
// products, stock and the two link tables.
type CatalogService struct {
	store     *engine.Store
	snapshots engine.SnapshotStore
	journal   *engine.Journal
	settings  *settings.Arguments
	logger    *zap.SugaredLogger
}

func NewCatalogService(store *engine.Store, snapshots engine.SnapshotStore, journal *engine.Journal,
	logger *zap.SugaredLogger, settings *settings.Arguments) *CatalogService {
	return &CatalogService{
		store:     store,
		snapshots: snapshots,
		journal:   journal,
		settings:  settings,
		logger:    logger,
	}
}

func (s *CatalogService) CreateSupplier(cmd engine.SupplierCommand) (*engine.Supplier, error) {
	supplier, err := s.store.AddSupplier(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("supplier %d", supplier.SupplierID), engine.KindSupplier)
	return supplier, nil
}

func (s *CatalogService) UpdateSupplier(id int64, patch engine.SupplierPatch) (*engine.Supplier, error) {
	supplier, err := s.store.UpdateSupplier(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update supplier %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("supplier %d", id), engine.KindSupplier)
	return supplier, nil
}

// DeleteSupplier removes a supplier; principal-supplier references on
// products are cleared and link rows cascade.
func (s *CatalogService) DeleteSupplier(id int64) error {
	if err := s.store.RemoveSupplier(id); err != nil {
		return fmt.Errorf("failed to delete supplier %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("supplier %d", id),
		engine.KindSupplier, engine.KindProduct, engine.KindProductSupplier, engine.KindSupplierSeller)
	return nil
}

func (s *CatalogService) GetSupplier(id int64) (*engine.Supplier, error) {
	return s.store.GetSupplier(id)
}

func (s *CatalogService) ListSuppliers(pred func(*engine.Supplier) bool) []*engine.Supplier {
	return s.store.ListSuppliers(pred)
}

func (s *CatalogService) CreateSeller(cmd engine.SellerCommand) (*engine.Seller, error) {
	seller, err := s.store.AddSeller(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create seller: %w", err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("seller %d", seller.SellerID), engine.KindSeller)
	return seller, nil
}

func (s *CatalogService) UpdateSeller(id int64, patch engine.SellerPatch) (*engine.Seller, error) {
	seller, err := s.store.UpdateSeller(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update seller %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("seller %d", id), engine.KindSeller)
	return seller, nil
}

func (s *CatalogService) DeleteSeller(id int64) error {
	if err := s.store.RemoveSeller(id); err != nil {
		return fmt.Errorf("failed to delete seller %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("seller %d", id),
		engine.KindSeller, engine.KindOrder, engine.KindSupplierSeller)
	return nil
}

func (s *CatalogService) GetSeller(id int64) (*engine.Seller, error) {
	return s.store.GetSeller(id)
}

func (s *CatalogService) ListSellers(pred func(*engine.Seller) bool) []*engine.Seller {
	return s.store.ListSellers(pred)
}

func (s *CatalogService) CreateProduct(cmd engine.ProductCommand) (*engine.Product, error) {
	product, err := s.store.AddProduct(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("product %d", product.ProductID), engine.KindProduct)
	return product, nil
}

func (s *CatalogService) UpdateProduct(id int64, patch engine.ProductPatch) (*engine.Product, error) {
	product, err := s.store.UpdateProduct(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("product %d", id), engine.KindProduct)
	return product, nil
}

func (s *CatalogService) DeleteProduct(id int64) error {
	if err := s.store.RemoveProduct(id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("product %d", id),
		engine.KindProduct, engine.KindStock, engine.KindProductSupplier)
	return nil
}

func (s *CatalogService) GetProduct(id int64) (*engine.Product, error) {
	return s.store.GetProduct(id)
}

func (s *CatalogService) ListProducts(pred func(*engine.Product) bool) []*engine.Product {
	return s.store.ListProducts(pred)
}

func (s *CatalogService) AddStock(cmd engine.StockCommand) (*engine.Stock, error) {
	record, err := s.store.AddStock(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to add stock: %w", err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("stock for product %d", record.ProductID), engine.KindStock)
	return record, nil
}

func (s *CatalogService) SetStockQuantity(productID int64, quantity int) (*engine.Stock, error) {
	record, err := s.store.SetStockQuantity(productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to set stock for product %d: %w", productID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("stock for product %d", productID), engine.KindStock)
	return record, nil
}

func (s *CatalogService) GetStock(productID int64) (*engine.Stock, error) {
	return s.store.GetStock(productID)
}

func (s *CatalogService) DeleteStock(productID int64) error {
	if err := s.store.RemoveStock(productID); err != nil {
		return fmt.Errorf("failed to delete stock for product %d: %w", productID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("stock for product %d", productID), engine.KindStock)
	return nil
}

func (s *CatalogService) LinkProductSupplier(cmd engine.ProductSupplierCommand) (*engine.ProductSupplier, error) {
	link, err := s.store.LinkProductSupplier(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to link product %d to supplier %d: %w", cmd.ProductID, cmd.SupplierID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("product %d <-> supplier %d", cmd.ProductID, cmd.SupplierID), engine.KindProductSupplier)
	return link, nil
}

func (s *CatalogService) UnlinkProductSupplier(productID, supplierID int64) error {
	if err := s.store.UnlinkProductSupplier(productID, supplierID); err != nil {
		return fmt.Errorf("failed to unlink product %d from supplier %d: %w", productID, supplierID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("product %d <-> supplier %d", productID, supplierID), engine.KindProductSupplier)
	return nil
}

func (s *CatalogService) LinkSupplierSeller(supplierID, sellerID int64) (*engine.SupplierSeller, error) {
	link, err := s.store.LinkSupplierSeller(supplierID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to link supplier %d to seller %d: %w", supplierID, sellerID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("supplier %d <-> seller %d", supplierID, sellerID), engine.KindSupplierSeller)
	return link, nil
}

func (s *CatalogService) UnlinkSupplierSeller(supplierID, sellerID int64) error {
	if err := s.store.UnlinkSupplierSeller(supplierID, sellerID); err != nil {
		return fmt.Errorf("failed to unlink supplier %d from seller %d: %w", supplierID, sellerID, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("supplier %d <-> seller %d", supplierID, sellerID), engine.KindSupplierSeller)
	return nil
}
