package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newIndividualAccount(t *testing.T, s *Store, email string) *Account {
	t.Helper()
	account, err := s.AddAccount(AccountCommand{
		Email:      email,
		Individual: &IndividualProfile{FirstName: "Test", LastName: "User"},
	})
	require.NoError(t, err)
	return account
}

func newSuppliedProduct(t *testing.T, s *Store, sku string, price float64, supplierID *int64) *Product {
	t.Helper()
	product, err := s.AddProduct(ProductCommand{SKU: sku, Name: sku, Price: price, SupplierID: supplierID})
	require.NoError(t, err)
	return product
}

func TestAddAccountValidation(t *testing.T) {
	individual := &IndividualProfile{FirstName: "Ada", LastName: "Lovelace"}
	business := &BusinessProfile{LegalName: "Engines Ltd"}

	tests := []struct {
		name    string
		cmd     AccountCommand
		wantErr error
	}{
		{"individual ok", AccountCommand{Email: "a@x.test", Individual: individual}, nil},
		{"business ok", AccountCommand{Email: "b@x.test", Business: business}, nil},
		{"both variants", AccountCommand{Email: "c@x.test", Individual: individual, Business: business}, ErrInvalidShape},
		{"neither variant", AccountCommand{Email: "d@x.test"}, ErrInvalidShape},
		{"empty email", AccountCommand{Individual: individual}, ErrConstraintViolated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			_, err := s.AddAccount(tt.cmd)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAccountEmailUniqueness(t *testing.T) {
	s := NewStore()
	first := newIndividualAccount(t, s, "dup@x.test")

	_, err := s.AddAccount(AccountCommand{
		Email:    "dup@x.test",
		Business: &BusinessProfile{LegalName: "Dup Inc"},
	})
	require.ErrorIs(t, err, ErrConstraintViolated)

	// The email frees up once its owner is gone.
	require.NoError(t, s.RemoveAccount(first.AccountID))
	_, err = s.AddAccount(AccountCommand{
		Email:    "dup@x.test",
		Business: &BusinessProfile{LegalName: "Dup Inc"},
	})
	require.NoError(t, err)
}

func TestIdentifiersAreNeverReused(t *testing.T) {
	s := NewStore()
	first := newIndividualAccount(t, s, "first@x.test")
	require.Equal(t, int64(1), first.AccountID)

	require.NoError(t, s.RemoveAccount(first.AccountID))

	second := newIndividualAccount(t, s, "second@x.test")
	require.Equal(t, int64(2), second.AccountID)
}

func TestUpdateAccountProfileVariant(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "ada@x.test")

	// Replacing the same variant is fine.
	updated, err := s.UpdateAccount(account.AccountID, AccountPatch{
		Individual: &IndividualProfile{FirstName: "Ada", LastName: "King"},
	})
	require.NoError(t, err)
	require.Equal(t, "King", updated.Individual.LastName)

	// Supplying the opposite variant would leave the account with both.
	_, err = s.UpdateAccount(account.AccountID, AccountPatch{
		Business: &BusinessProfile{LegalName: "Engines Ltd"},
	})
	require.ErrorIs(t, err, ErrInvalidShape)

	// The failed update left the record untouched.
	got, err := s.GetAccount(account.AccountID)
	require.NoError(t, err)
	require.Nil(t, got.Business)
	require.Equal(t, "King", got.Individual.LastName)
}

func TestRemoveAccountRestrictedByOrders(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)

	err = s.RemoveAccount(account.AccountID)
	require.ErrorIs(t, err, ErrReferencedByDependents)

	// Once the order is gone the delete goes through and takes the
	// account's addresses and payment methods with it.
	address, err := s.AddAddress(AddressCommand{AccountID: account.AccountID, Street: "1 Main", City: "Town"})
	require.NoError(t, err)
	method, err := s.AddPaymentMethod(PaymentMethodCommand{AccountID: account.AccountID, MethodType: "card", Provider: "visa"})
	require.NoError(t, err)

	require.NoError(t, s.RemoveOrder(order.OrderID))
	require.NoError(t, s.RemoveAccount(account.AccountID))

	_, err = s.GetAddress(address.AddressID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetPaymentMethod(method.PaymentMethodID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, s.RefCount())
}

func TestRemoveSupplierSetsPrincipalNull(t *testing.T) {
	s := NewStore()
	supplier, err := s.AddSupplier(SupplierCommand{Name: "Northwind"})
	require.NoError(t, err)
	seller, err := s.AddSeller(SellerCommand{Name: "Northwind", Email: "nw@x.test"})
	require.NoError(t, err)
	product := newSuppliedProduct(t, s, "SKU-1", 10, &supplier.SupplierID)

	_, err = s.LinkProductSupplier(ProductSupplierCommand{
		ProductID: product.ProductID, SupplierID: supplier.SupplierID, SupplierSKU: "NW-1", LeadTimeDays: 3,
	})
	require.NoError(t, err)
	_, err = s.LinkSupplierSeller(supplier.SupplierID, seller.SellerID)
	require.NoError(t, err)

	require.NoError(t, s.RemoveSupplier(supplier.SupplierID))

	// The product survives with its principal supplier cleared and both
	// link rows gone.
	got, err := s.GetProduct(product.ProductID)
	require.NoError(t, err)
	require.Nil(t, got.SupplierID)

	_, err = s.GetSeller(seller.SellerID)
	require.NoError(t, err)
	require.Empty(t, s.LinkedSellerSuppliers())

	err = s.UnlinkProductSupplier(product.ProductID, supplier.SupplierID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveSellerClearsOrderReferences(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	seller, err := s.AddSeller(SellerCommand{Name: "Shopfront", Email: "shop@x.test"})
	require.NoError(t, err)
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID, SellerID: &seller.SellerID})
	require.NoError(t, err)

	require.NoError(t, s.RemoveSeller(seller.SellerID))

	got, err := s.GetOrder(order.OrderID)
	require.NoError(t, err)
	require.Nil(t, got.SellerID)
}

func TestRemovePaymentMethodClearsOrderReferences(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	method, err := s.AddPaymentMethod(PaymentMethodCommand{AccountID: account.AccountID, MethodType: "card", Provider: "visa"})
	require.NoError(t, err)
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID, PaymentMethodID: &method.PaymentMethodID})
	require.NoError(t, err)

	require.NoError(t, s.RemovePaymentMethod(method.PaymentMethodID))

	got, err := s.GetOrder(order.OrderID)
	require.NoError(t, err)
	require.Nil(t, got.PaymentMethodID)
}

func TestUpdatePaymentMethod(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	method, err := s.AddPaymentMethod(PaymentMethodCommand{
		AccountID:  account.AccountID,
		MethodType: "card",
		Provider:   "visa",
		Details:    map[string]string{"last4": "4242"},
	})
	require.NoError(t, err)

	provider := "mastercard"
	isDefault := true
	updated, err := s.UpdatePaymentMethod(method.PaymentMethodID, PaymentMethodPatch{
		Provider:  &provider,
		Details:   map[string]string{"last4": "1111"},
		IsDefault: &isDefault,
	})
	require.NoError(t, err)
	require.Equal(t, "mastercard", updated.Provider)
	require.Equal(t, "1111", updated.Details["last4"])
	require.True(t, updated.IsDefault)
	require.Equal(t, "card", updated.MethodType)

	empty := ""
	_, err = s.UpdatePaymentMethod(method.PaymentMethodID, PaymentMethodPatch{MethodType: &empty})
	require.ErrorIs(t, err, ErrConstraintViolated)

	got, err := s.GetPaymentMethod(method.PaymentMethodID)
	require.NoError(t, err)
	require.Equal(t, "card", got.MethodType)
	require.Equal(t, "mastercard", got.Provider)

	_, err = s.UpdatePaymentMethod(999, PaymentMethodPatch{Provider: &provider})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListStockDeliveriesAndPayments(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	kettle := newSuppliedProduct(t, s, "SKU-1", 25, nil)
	grinder := newSuppliedProduct(t, s, "SKU-2", 40, nil)
	_, err := s.AddStock(StockCommand{ProductID: kettle.ProductID, Quantity: 3})
	require.NoError(t, err)
	_, err = s.AddStock(StockCommand{ProductID: grinder.ProductID, Quantity: 50})
	require.NoError(t, err)

	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)
	_, err = s.AddDelivery(DeliveryCommand{OrderID: order.OrderID, Carrier: "UPS"})
	require.NoError(t, err)
	_, err = s.AddPayment(PaymentCommand{OrderID: order.OrderID, Amount: 10})
	require.NoError(t, err)
	_, err = s.AddPayment(PaymentCommand{OrderID: order.OrderID, Amount: 20, Status: PaymentApproved})
	require.NoError(t, err)

	require.Len(t, s.ListStock(nil), 2)
	low := s.ListStock(func(r *Stock) bool { return r.Quantity < 10 })
	require.Len(t, low, 1)
	require.Equal(t, kettle.ProductID, low[0].ProductID)

	deliveries := s.ListDeliveries(func(d *Delivery) bool { return d.OrderID == order.OrderID })
	require.Len(t, deliveries, 1)
	require.Equal(t, "UPS", deliveries[0].Carrier)

	approved := s.ListPayments(func(p *Payment) bool { return p.Status == PaymentApproved })
	require.Len(t, approved, 1)
	require.Equal(t, 20.0, approved[0].Amount)
	require.Len(t, s.ListPayments(nil), 2)
}

func TestRemoveProductRestrictedByOrderItems(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	product := newSuppliedProduct(t, s, "SKU-1", 25, nil)
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)
	item, err := s.AddOrderItem(OrderItemCommand{OrderID: order.OrderID, ProductID: product.ProductID, UnitPrice: 25, Quantity: 1})
	require.NoError(t, err)

	err = s.RemoveProduct(product.ProductID)
	require.ErrorIs(t, err, ErrReferencedByDependents)

	_, err = s.AddStock(StockCommand{ProductID: product.ProductID, Quantity: 4})
	require.NoError(t, err)

	require.NoError(t, s.RemoveOrderItem(item.OrderItemID))
	require.NoError(t, s.RemoveProduct(product.ProductID))

	// The stock record cascaded away with the product.
	_, err = s.GetStock(product.ProductID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProductSKUUniqueness(t *testing.T) {
	s := NewStore()
	newSuppliedProduct(t, s, "SKU-1", 10, nil)

	_, err := s.AddProduct(ProductCommand{SKU: "SKU-1", Name: "other", Price: 5})
	require.ErrorIs(t, err, ErrConstraintViolated)

	_, err = s.AddProduct(ProductCommand{SKU: "SKU-2", Name: "neg", Price: -1})
	require.ErrorIs(t, err, ErrConstraintViolated)

	_, err = s.AddProduct(ProductCommand{SKU: "SKU-3", Name: "dangling", Price: 1, SupplierID: cloneID(new(int64))})
	require.ErrorIs(t, err, ErrDanglingReference)
}

func TestStockIsOneToOneAndNonNegative(t *testing.T) {
	s := NewStore()
	product := newSuppliedProduct(t, s, "SKU-1", 10, nil)

	_, err := s.AddStock(StockCommand{ProductID: product.ProductID, Quantity: 5})
	require.NoError(t, err)
	_, err = s.AddStock(StockCommand{ProductID: product.ProductID, Quantity: 9})
	require.ErrorIs(t, err, ErrConstraintViolated)

	_, err = s.SetStockQuantity(product.ProductID, -1)
	require.ErrorIs(t, err, ErrConstraintViolated)

	record, err := s.SetStockQuantity(product.ProductID, 0)
	require.NoError(t, err)
	require.Equal(t, 0, record.Quantity)
}

func TestOrderTotalTracksItems(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	kettle := newSuppliedProduct(t, s, "KTL", 150, nil)
	grinder := newSuppliedProduct(t, s, "GRD", 40, nil)
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)

	item, err := s.AddOrderItem(OrderItemCommand{OrderID: order.OrderID, ProductID: kettle.ProductID, UnitPrice: 150, Quantity: 2, Discount: 10})
	require.NoError(t, err)
	require.Equal(t, 290.0, item.Subtotal)

	_, err = s.AddOrderItem(OrderItemCommand{OrderID: order.OrderID, ProductID: grinder.ProductID, UnitPrice: 40, Quantity: 1})
	require.NoError(t, err)

	got, err := s.GetOrder(order.OrderID)
	require.NoError(t, err)
	require.Equal(t, 330.0, got.TotalAmount)

	// Updating an item recomputes its subtotal and the order total.
	qty := 1
	updated, err := s.UpdateOrderItem(item.OrderItemID, OrderItemPatch{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, 140.0, updated.Subtotal)

	got, err = s.GetOrder(order.OrderID)
	require.NoError(t, err)
	require.Equal(t, 180.0, got.TotalAmount)

	// And so does removing one.
	require.NoError(t, s.RemoveOrderItem(item.OrderItemID))
	got, err = s.GetOrder(order.OrderID)
	require.NoError(t, err)
	require.Equal(t, 40.0, got.TotalAmount)
}

func TestOrderItemDiscountMayNotExceedLineTotal(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	product := newSuppliedProduct(t, s, "SKU-1", 10, nil)
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)

	_, err = s.AddOrderItem(OrderItemCommand{OrderID: order.OrderID, ProductID: product.ProductID, UnitPrice: 10, Quantity: 1, Discount: 15})
	require.ErrorIs(t, err, ErrConstraintViolated)

	// A discount equal to the line total is allowed.
	item, err := s.AddOrderItem(OrderItemCommand{OrderID: order.OrderID, ProductID: product.ProductID, UnitPrice: 10, Quantity: 1, Discount: 10})
	require.NoError(t, err)
	require.Equal(t, 0.0, item.Subtotal)
}

func TestDeliveryIsUniquePerOrder(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)

	_, err = s.AddDelivery(DeliveryCommand{OrderID: order.OrderID, Carrier: "UPS", TrackingCode: "1Z"})
	require.NoError(t, err)
	_, err = s.AddDelivery(DeliveryCommand{OrderID: order.OrderID, Carrier: "FedEx", TrackingCode: "FX"})
	require.ErrorIs(t, err, ErrConstraintViolated)
}

func TestRemoveOrderCascades(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")
	product := newSuppliedProduct(t, s, "SKU-1", 10, nil)
	order, err := s.AddOrder(OrderCommand{AccountID: account.AccountID})
	require.NoError(t, err)

	item, err := s.AddOrderItem(OrderItemCommand{OrderID: order.OrderID, ProductID: product.ProductID, UnitPrice: 10, Quantity: 2})
	require.NoError(t, err)
	delivery, err := s.AddDelivery(DeliveryCommand{OrderID: order.OrderID, Carrier: "UPS", TrackingCode: "1Z"})
	require.NoError(t, err)
	payment, err := s.AddPayment(PaymentCommand{OrderID: order.OrderID, Amount: 20, Status: PaymentApproved, PaidAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, s.RemoveOrder(order.OrderID))

	_, err = s.GetOrderItem(item.OrderItemID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDelivery(delivery.DeliveryID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetPayment(payment.PaymentID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.RemoveProduct(product.ProductID))
	require.NoError(t, s.RemoveAccount(account.AccountID))
	require.Zero(t, s.RefCount())
}

func TestDanglingReferencesAreRejected(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")

	tests := []struct {
		name string
		op   func() error
	}{
		{"order for missing account", func() error {
			_, err := s.AddOrder(OrderCommand{AccountID: 99})
			return err
		}},
		{"address for missing account", func() error {
			_, err := s.AddAddress(AddressCommand{AccountID: 99, Street: "1 Main"})
			return err
		}},
		{"item for missing order", func() error {
			_, err := s.AddOrderItem(OrderItemCommand{OrderID: 99, ProductID: 1, UnitPrice: 1, Quantity: 1})
			return err
		}},
		{"delivery for missing order", func() error {
			_, err := s.AddDelivery(DeliveryCommand{OrderID: 99, Carrier: "UPS"})
			return err
		}},
		{"payment for missing order", func() error {
			_, err := s.AddPayment(PaymentCommand{OrderID: 99, Amount: 1})
			return err
		}},
		{"stock for missing product", func() error {
			_, err := s.AddStock(StockCommand{ProductID: 99, Quantity: 1})
			return err
		}},
		{"link for missing supplier", func() error {
			_, err := s.LinkSupplierSeller(99, 99)
			return err
		}},
		{"order for missing seller", func() error {
			sellerID := int64(99)
			_, err := s.AddOrder(OrderCommand{AccountID: account.AccountID, SellerID: &sellerID})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.op(), ErrDanglingReference)
		})
	}
}

func TestSellerEmailUniqueness(t *testing.T) {
	s := NewStore()
	_, err := s.AddSeller(SellerCommand{Name: "One", Email: "seller@x.test"})
	require.NoError(t, err)
	_, err = s.AddSeller(SellerCommand{Name: "Two", Email: "seller@x.test"})
	require.ErrorIs(t, err, ErrConstraintViolated)
}

func TestLinkTablesRejectDuplicates(t *testing.T) {
	s := NewStore()
	supplier, err := s.AddSupplier(SupplierCommand{Name: "Northwind"})
	require.NoError(t, err)
	seller, err := s.AddSeller(SellerCommand{Name: "Shop", Email: "shop@x.test"})
	require.NoError(t, err)
	product := newSuppliedProduct(t, s, "SKU-1", 10, nil)

	_, err = s.LinkProductSupplier(ProductSupplierCommand{ProductID: product.ProductID, SupplierID: supplier.SupplierID})
	require.NoError(t, err)
	_, err = s.LinkProductSupplier(ProductSupplierCommand{ProductID: product.ProductID, SupplierID: supplier.SupplierID})
	require.ErrorIs(t, err, ErrConstraintViolated)

	_, err = s.LinkSupplierSeller(supplier.SupplierID, seller.SellerID)
	require.NoError(t, err)
	_, err = s.LinkSupplierSeller(supplier.SupplierID, seller.SellerID)
	require.ErrorIs(t, err, ErrConstraintViolated)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := NewStore()
	account := newIndividualAccount(t, s, "buyer@x.test")

	account.Email = "tampered@x.test"
	account.Individual.FirstName = "Tampered"

	got, err := s.GetAccount(account.AccountID)
	require.NoError(t, err)
	require.Equal(t, "buyer@x.test", got.Email)
	require.Equal(t, "Test", got.Individual.FirstName)
}
