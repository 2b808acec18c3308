package engine

import (
	"fmt"
	"time"
)

type SupplierCommand struct {
	Name    string
	Contact string
}

type SupplierPatch struct {
	Name    *string
	Contact *string
}

type SellerCommand struct {
	Name  string
	Email string
}

type SellerPatch struct {
	Name  *string
	Email *string
}

// ProductCommand creates a product. SupplierID, when set, is the principal
// supplier and must exist.
type ProductCommand struct {
	SKU        string
	Name       string
	Price      float64
	SupplierID *int64
}

// ProductPatch updates a product. ClearSupplier drops the principal supplier
// reference; it wins over SupplierID.
type ProductPatch struct {
	SKU           *string
	Name          *string
	Price         *float64
	SupplierID    *int64
	ClearSupplier bool
}

type StockCommand struct {
	ProductID int64
	Quantity  int
}

// ProductSupplierCommand creates a product<->supplier link with its own
// attributes.
type ProductSupplierCommand struct {
	ProductID    int64
	SupplierID   int64
	SupplierSKU  string
	LeadTimeDays int
}

// ---------------------------------------- suppliers ----------------------------------------

func (s *Store) AddSupplier(cmd SupplierCommand) (*Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkNonEmpty("name", cmd.Name); err != nil {
		return nil, err
	}

	supplier := &Supplier{
		SupplierID: s.allocID(KindSupplier),
		Name:       cmd.Name,
		Contact:    cmd.Contact,
	}
	s.suppliers[supplier.SupplierID] = supplier

	out := *supplier
	return &out, nil
}

func (s *Store) UpdateSupplier(id int64, patch SupplierPatch) (*Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, exists := s.suppliers[id]
	if !exists {
		return nil, fmt.Errorf("%w: supplier %d", ErrNotFound, id)
	}
	if patch.Name != nil {
		if err := checkNonEmpty("name", *patch.Name); err != nil {
			return nil, err
		}
		supplier.Name = *patch.Name
	}
	if patch.Contact != nil {
		supplier.Contact = *patch.Contact
	}

	out := *supplier
	return &out, nil
}

// RemoveSupplier deletes a supplier. Products that name it as principal
// supplier keep existing with the reference cleared; link-table rows cascade
// from this side.
func (s *Store) RemoveSupplier(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliers[id]; !exists {
		return fmt.Errorf("%w: supplier %d", ErrNotFound, id)
	}
	if err := s.applyDeleteRules(KindSupplier, id); err != nil {
		return err
	}

	delete(s.index.supplierProducts, id)
	delete(s.suppliers, id)
	return nil
}

func (s *Store) GetSupplier(id int64) (*Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliers[id]
	if !exists {
		return nil, fmt.Errorf("%w: supplier %d", ErrNotFound, id)
	}
	out := *supplier
	return &out, nil
}

// ListSuppliers returns suppliers matching the predicate, ordered by id.
func (s *Store) ListSuppliers(pred func(*Supplier) bool) []*Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Supplier
	for _, id := range sortedKeys(s.suppliers) {
		supplier := s.suppliers[id]
		if pred == nil || pred(supplier) {
			copied := *supplier
			out = append(out, &copied)
		}
	}
	return out
}

// ---------------------------------------- sellers ----------------------------------------

func (s *Store) AddSeller(cmd SellerCommand) (*Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkNonEmpty("email", cmd.Email); err != nil {
		return nil, err
	}
	if owner, taken := s.sellerEmails[cmd.Email]; taken {
		return nil, fmt.Errorf("%w: email %q already used by seller %d", ErrConstraintViolated, cmd.Email, owner)
	}

	seller := &Seller{
		SellerID: s.allocID(KindSeller),
		Name:     cmd.Name,
		Email:    cmd.Email,
	}
	s.sellers[seller.SellerID] = seller
	s.sellerEmails[seller.Email] = seller.SellerID

	out := *seller
	return &out, nil
}

func (s *Store) UpdateSeller(id int64, patch SellerPatch) (*Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seller, exists := s.sellers[id]
	if !exists {
		return nil, fmt.Errorf("%w: seller %d", ErrNotFound, id)
	}
	if patch.Email != nil {
		if err := checkNonEmpty("email", *patch.Email); err != nil {
			return nil, err
		}
		if owner, taken := s.sellerEmails[*patch.Email]; taken && owner != id {
			return nil, fmt.Errorf("%w: email %q already used by seller %d", ErrConstraintViolated, *patch.Email, owner)
		}
		delete(s.sellerEmails, seller.Email)
		seller.Email = *patch.Email
		s.sellerEmails[seller.Email] = id
	}
	if patch.Name != nil {
		seller.Name = *patch.Name
	}

	out := *seller
	return &out, nil
}

// RemoveSeller deletes a seller. Orders referencing it keep existing with the
// reference cleared; supplier links cascade from this side.
func (s *Store) RemoveSeller(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seller, exists := s.sellers[id]
	if !exists {
		return fmt.Errorf("%w: seller %d", ErrNotFound, id)
	}
	if err := s.applyDeleteRules(KindSeller, id); err != nil {
		return err
	}

	delete(s.sellerEmails, seller.Email)
	delete(s.sellers, id)
	return nil
}

func (s *Store) GetSeller(id int64) (*Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seller, exists := s.sellers[id]
	if !exists {
		return nil, fmt.Errorf("%w: seller %d", ErrNotFound, id)
	}
	out := *seller
	return &out, nil
}

// ListSellers returns sellers matching the predicate, ordered by id.
func (s *Store) ListSellers(pred func(*Seller) bool) []*Seller {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Seller
	for _, id := range sortedKeys(s.sellers) {
		seller := s.sellers[id]
		if pred == nil || pred(seller) {
			copied := *seller
			out = append(out, &copied)
		}
	}
	return out
}

// ---------------------------------------- products ----------------------------------------

func (s *Store) AddProduct(cmd ProductCommand) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkNonEmpty("sku", cmd.SKU); err != nil {
		return nil, err
	}
	if err := checkNonNegative("price", cmd.Price); err != nil {
		return nil, err
	}
	if owner, taken := s.productSKUs[cmd.SKU]; taken {
		return nil, fmt.Errorf("%w: sku %q already used by product %d", ErrConstraintViolated, cmd.SKU, owner)
	}
	if cmd.SupplierID != nil {
		if _, exists := s.suppliers[*cmd.SupplierID]; !exists {
			return nil, fmt.Errorf("%w: product references missing supplier %d", ErrDanglingReference, *cmd.SupplierID)
		}
	}

	product := &Product{
		ProductID:  s.allocID(KindProduct),
		SKU:        cmd.SKU,
		Name:       cmd.Name,
		Price:      cmd.Price,
		SupplierID: cloneID(cmd.SupplierID),
	}
	s.products[product.ProductID] = product
	s.productSKUs[product.SKU] = product.ProductID
	if product.SupplierID != nil {
		s.index.addRef(s.index.supplierProducts, *product.SupplierID, product.ProductID)
	}

	return copyProduct(product), nil
}

func (s *Store) UpdateProduct(id int64, patch ProductPatch) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}

	candidate := *product
	candidate.SupplierID = cloneID(product.SupplierID)
	if patch.SKU != nil {
		candidate.SKU = *patch.SKU
	}
	if patch.Name != nil {
		candidate.Name = *patch.Name
	}
	if patch.Price != nil {
		candidate.Price = *patch.Price
	}
	if patch.ClearSupplier {
		candidate.SupplierID = nil
	} else if patch.SupplierID != nil {
		candidate.SupplierID = cloneID(patch.SupplierID)
	}

	if err := checkNonEmpty("sku", candidate.SKU); err != nil {
		return nil, err
	}
	if err := checkNonNegative("price", candidate.Price); err != nil {
		return nil, err
	}
	if owner, taken := s.productSKUs[candidate.SKU]; taken && owner != id {
		return nil, fmt.Errorf("%w: sku %q already used by product %d", ErrConstraintViolated, candidate.SKU, owner)
	}
	if candidate.SupplierID != nil {
		if _, exists := s.suppliers[*candidate.SupplierID]; !exists {
			return nil, fmt.Errorf("%w: product references missing supplier %d", ErrDanglingReference, *candidate.SupplierID)
		}
	}

	if candidate.SKU != product.SKU {
		delete(s.productSKUs, product.SKU)
		s.productSKUs[candidate.SKU] = id
	}
	if !idEqual(product.SupplierID, candidate.SupplierID) {
		if product.SupplierID != nil {
			s.index.removeRef(s.index.supplierProducts, *product.SupplierID, id)
		}
		if candidate.SupplierID != nil {
			s.index.addRef(s.index.supplierProducts, *candidate.SupplierID, id)
		}
	}
	*product = candidate

	return copyProduct(product), nil
}

// RemoveProduct deletes a product along with its stock record and supplier
// links. It is refused while any order item references the product.
func (s *Store) RemoveProduct(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	if err := s.applyDeleteRules(KindProduct, id); err != nil {
		return err
	}

	if product.SupplierID != nil {
		s.index.removeRef(s.index.supplierProducts, *product.SupplierID, id)
	}
	delete(s.productSKUs, product.SKU)
	delete(s.products, id)
	return nil
}

func (s *Store) GetProduct(id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return copyProduct(product), nil
}

// ListProducts returns products matching the predicate, ordered by id.
func (s *Store) ListProducts(pred func(*Product) bool) []*Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Product
	for _, id := range sortedKeys(s.products) {
		product := s.products[id]
		if pred == nil || pred(product) {
			out = append(out, copyProduct(product))
		}
	}
	return out
}

// ---------------------------------------- stock ----------------------------------------

func (s *Store) AddStock(cmd StockCommand) (*Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[cmd.ProductID]; !exists {
		return nil, fmt.Errorf("%w: stock references missing product %d", ErrDanglingReference, cmd.ProductID)
	}
	if _, exists := s.stock[cmd.ProductID]; exists {
		return nil, fmt.Errorf("%w: stock already exists for product %d", ErrConstraintViolated, cmd.ProductID)
	}
	if err := checkNonNegative("quantity", float64(cmd.Quantity)); err != nil {
		return nil, err
	}

	record := &Stock{
		ProductID:   cmd.ProductID,
		Quantity:    cmd.Quantity,
		LastUpdated: time.Now(),
	}
	s.stock[cmd.ProductID] = record

	out := *record
	return &out, nil
}

// SetStockQuantity replaces the on-hand quantity for a product and stamps
// the update time.
func (s *Store) SetStockQuantity(productID int64, quantity int) (*Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.stock[productID]
	if !exists {
		return nil, fmt.Errorf("%w: stock for product %d", ErrNotFound, productID)
	}
	if err := checkNonNegative("quantity", float64(quantity)); err != nil {
		return nil, err
	}
	record.Quantity = quantity
	record.LastUpdated = time.Now()

	out := *record
	return &out, nil
}

func (s *Store) RemoveStock(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stock[productID]; !exists {
		return fmt.Errorf("%w: stock for product %d", ErrNotFound, productID)
	}
	delete(s.stock, productID)
	return nil
}

func (s *Store) GetStock(productID int64) (*Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.stock[productID]
	if !exists {
		return nil, fmt.Errorf("%w: stock for product %d", ErrNotFound, productID)
	}
	out := *record
	return &out, nil
}

// ListStock returns stock records matching the predicate, ordered by
// product id.
func (s *Store) ListStock(pred func(*Stock) bool) []*Stock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Stock
	for _, id := range sortedKeys(s.stock) {
		record := s.stock[id]
		if pred == nil || pred(record) {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out
}

// ---------------------------------------- link tables ----------------------------------------

func (s *Store) LinkProductSupplier(cmd ProductSupplierCommand) (*ProductSupplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[cmd.ProductID]; !exists {
		return nil, fmt.Errorf("%w: link references missing product %d", ErrDanglingReference, cmd.ProductID)
	}
	if _, exists := s.suppliers[cmd.SupplierID]; !exists {
		return nil, fmt.Errorf("%w: link references missing supplier %d", ErrDanglingReference, cmd.SupplierID)
	}
	key := linkKey{Left: cmd.ProductID, Right: cmd.SupplierID}
	if _, exists := s.productSuppliers[key]; exists {
		return nil, fmt.Errorf("%w: product %d already linked to supplier %d", ErrConstraintViolated, cmd.ProductID, cmd.SupplierID)
	}
	if cmd.LeadTimeDays < 0 {
		return nil, fmt.Errorf("%w: lead_time_days must be >= 0, got %d", ErrConstraintViolated, cmd.LeadTimeDays)
	}

	link := &ProductSupplier{
		ProductID:    cmd.ProductID,
		SupplierID:   cmd.SupplierID,
		SupplierSKU:  cmd.SupplierSKU,
		LeadTimeDays: cmd.LeadTimeDays,
	}
	s.productSuppliers[key] = link
	s.index.addRef(s.index.productSuppliers, cmd.ProductID, cmd.SupplierID)
	s.index.addRef(s.index.supplierLinkedProducts, cmd.SupplierID, cmd.ProductID)

	out := *link
	return &out, nil
}

func (s *Store) UnlinkProductSupplier(productID, supplierID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey{Left: productID, Right: supplierID}
	if _, exists := s.productSuppliers[key]; !exists {
		return fmt.Errorf("%w: link between product %d and supplier %d", ErrNotFound, productID, supplierID)
	}
	s.removeProductSupplierLocked(productID, supplierID)
	return nil
}

func (s *Store) removeProductSupplierLocked(productID, supplierID int64) {
	delete(s.productSuppliers, linkKey{Left: productID, Right: supplierID})
	s.index.removeRef(s.index.productSuppliers, productID, supplierID)
	s.index.removeRef(s.index.supplierLinkedProducts, supplierID, productID)
}

func (s *Store) LinkSupplierSeller(supplierID, sellerID int64) (*SupplierSeller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliers[supplierID]; !exists {
		return nil, fmt.Errorf("%w: link references missing supplier %d", ErrDanglingReference, supplierID)
	}
	if _, exists := s.sellers[sellerID]; !exists {
		return nil, fmt.Errorf("%w: link references missing seller %d", ErrDanglingReference, sellerID)
	}
	key := linkKey{Left: supplierID, Right: sellerID}
	if _, exists := s.supplierSellers[key]; exists {
		return nil, fmt.Errorf("%w: supplier %d already linked to seller %d", ErrConstraintViolated, supplierID, sellerID)
	}

	link := &SupplierSeller{SupplierID: supplierID, SellerID: sellerID}
	s.supplierSellers[key] = link
	s.index.addRef(s.index.supplierSellers, supplierID, sellerID)
	s.index.addRef(s.index.sellerSuppliers, sellerID, supplierID)

	out := *link
	return &out, nil
}

func (s *Store) UnlinkSupplierSeller(supplierID, sellerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey{Left: supplierID, Right: sellerID}
	if _, exists := s.supplierSellers[key]; !exists {
		return fmt.Errorf("%w: link between supplier %d and seller %d", ErrNotFound, supplierID, sellerID)
	}
	s.removeSupplierSellerLocked(supplierID, sellerID)
	return nil
}

func (s *Store) removeSupplierSellerLocked(supplierID, sellerID int64) {
	delete(s.supplierSellers, linkKey{Left: supplierID, Right: sellerID})
	s.index.removeRef(s.index.supplierSellers, supplierID, sellerID)
	s.index.removeRef(s.index.sellerSuppliers, sellerID, supplierID)
}

// ---------------------------------------- helpers ----------------------------------------

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	copied := *id
	return &copied
}

func idEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyProduct(p *Product) *Product {
	copied := *p
	copied.SupplierID = cloneID(p.SupplierID)
	return &copied
}
