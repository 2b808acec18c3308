package engine

import "time"

// EntityKind names one typed container in the store. Snapshot files and
// journal entries are keyed by kind.
type EntityKind string

const (
	KindAccount         EntityKind = "accounts"
	KindAddress         EntityKind = "addresses"
	KindSupplier        EntityKind = "suppliers"
	KindSeller          EntityKind = "sellers"
	KindProduct         EntityKind = "products"
	KindStock           EntityKind = "stock"
	KindPaymentMethod   EntityKind = "payment_methods"
	KindOrder           EntityKind = "orders"
	KindOrderItem       EntityKind = "order_items"
	KindDelivery        EntityKind = "deliveries"
	KindPayment         EntityKind = "payments"
	KindProductSupplier EntityKind = "product_suppliers"
	KindSupplierSeller  EntityKind = "supplier_sellers"
)

type AccountKind string

const (
	AccountIndividual AccountKind = "INDIVIDUAL"
	AccountBusiness   AccountKind = "BUSINESS"
)

// IndividualProfile holds the fields that only an individual account carries.
type IndividualProfile struct {
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	BirthDate time.Time `bson:"birth_date"`
}

// BusinessProfile holds the fields that only a business account carries.
type BusinessProfile struct {
	LegalName   string `bson:"legal_name"`
	TradeName   string `bson:"trade_name"`
	TaxID       string `bson:"tax_id"`
	ContactName string `bson:"contact_name"`
}

// Account is a customer account. Exactly one of Individual or Business is
// populated; the populated side is the account's kind.
type Account struct {
	// AccountID is the unique identifier for the account.
	AccountID int64 `bson:"account_id"`

	// Email is unique across all accounts.
	Email string `bson:"email"`
	Phone string `bson:"phone"`

	Individual *IndividualProfile `bson:"individual,omitempty"`
	Business   *BusinessProfile   `bson:"business,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
}

// Kind reports which variant the account holds.
func (a *Account) Kind() AccountKind {
	if a.Business != nil {
		return AccountBusiness
	}
	return AccountIndividual
}

type Address struct {
	// AddressID is the unique identifier for the address.
	AddressID int64 `bson:"address_id"`
	// AccountID is the owning account.
	AccountID int64  `bson:"account_id"`
	Street    string `bson:"street"`
	City      string `bson:"city"`
	State     string `bson:"state"`
	Zip       string `bson:"zip"`
	// Label is a caller-chosen tag, e.g. "home", "billing".
	Label string `bson:"label"`
}

type Supplier struct {
	// SupplierID is the unique identifier for the supplier.
	SupplierID int64  `bson:"supplier_id"`
	Name       string `bson:"name"`
	Contact    string `bson:"contact"`
}

type Seller struct {
	// SellerID is the unique identifier for the seller.
	SellerID int64  `bson:"seller_id"`
	Name     string `bson:"name"`
	// Email is unique across all sellers.
	Email string `bson:"email"`
}

type Product struct {
	// ProductID is the unique identifier for the product.
	ProductID int64 `bson:"product_id"`
	// SKU is unique across all products.
	SKU   string  `bson:"sku"`
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
	// SupplierID is the principal supplier; nil when the product has none.
	SupplierID *int64 `bson:"supplier_id,omitempty"`
}

// ProductSupplier is the many-to-many link between products and suppliers,
// carrying its own attributes.
type ProductSupplier struct {
	ProductID    int64  `bson:"product_id"`
	SupplierID   int64  `bson:"supplier_id"`
	SupplierSKU  string `bson:"supplier_sku"`
	LeadTimeDays int    `bson:"lead_time_days"`
}

// SupplierSeller is the many-to-many link between suppliers and sellers.
type SupplierSeller struct {
	SupplierID int64 `bson:"supplier_id"`
	SellerID   int64 `bson:"seller_id"`
}

// Stock is the one-to-one stock record for a product.
type Stock struct {
	ProductID   int64     `bson:"product_id"`
	Quantity    int       `bson:"quantity"`
	LastUpdated time.Time `bson:"last_updated"`
}

type PaymentMethod struct {
	// PaymentMethodID is the unique identifier for the payment method.
	PaymentMethodID int64 `bson:"payment_method_id"`
	// AccountID is the owning account.
	AccountID  int64  `bson:"account_id"`
	MethodType string `bson:"method_type"`
	Provider   string `bson:"provider"`
	// Details is an opaque provider-specific mapping.
	Details   map[string]string `bson:"details,omitempty"`
	IsDefault bool              `bson:"is_default"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	// OrderID is the unique identifier for the order.
	OrderID   int64 `bson:"order_id"`
	AccountID int64 `bson:"account_id"`
	// SellerID is nil for orders sold directly by the platform.
	SellerID  *int64      `bson:"seller_id,omitempty"`
	OrderDate time.Time   `bson:"order_date"`
	Status    OrderStatus `bson:"status"`
	// PaymentMethodID is nil until a payment method is assigned.
	PaymentMethodID *int64 `bson:"payment_method_id,omitempty"`
	// TotalAmount is derived from the order's items; never set directly.
	TotalAmount float64 `bson:"total_amount"`
}

type OrderItem struct {
	// OrderItemID is the unique identifier for the order item.
	OrderItemID int64   `bson:"order_item_id"`
	OrderID     int64   `bson:"order_id"`
	ProductID   int64   `bson:"product_id"`
	UnitPrice   float64 `bson:"unit_price"`
	Quantity    int     `bson:"quantity"`
	Discount    float64 `bson:"discount"`
	// Subtotal is always recomputed as unit_price*quantity - discount.
	Subtotal float64 `bson:"subtotal"`
}

type DeliveryStatus string

const (
	DeliveryAwaiting  DeliveryStatus = "AWAITING"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryLost      DeliveryStatus = "LOST"
)

type Delivery struct {
	// DeliveryID is the unique identifier for the delivery.
	DeliveryID int64 `bson:"delivery_id"`
	// OrderID is unique: at most one delivery per order.
	OrderID       int64          `bson:"order_id"`
	Carrier       string         `bson:"carrier"`
	TrackingCode  string         `bson:"tracking_code"`
	Status        DeliveryStatus `bson:"status"`
	EstimatedDate time.Time      `bson:"estimated_date"`
	ShippedAt     *time.Time     `bson:"shipped_at,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentDeclined PaymentStatus = "DECLINED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Payment struct {
	// PaymentID is the unique identifier for the payment.
	PaymentID int64         `bson:"payment_id"`
	OrderID   int64         `bson:"order_id"`
	PaidAt    time.Time     `bson:"paid_at"`
	Amount    float64       `bson:"amount"`
	Status    PaymentStatus `bson:"status"`
}
