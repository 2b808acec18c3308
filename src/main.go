package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"shopdb/src/directors"
	"shopdb/src/engine"
	"shopdb/src/settings"

	"go.uber.org/zap"
)

// printUsage prints helpful usage information
func printUsage() {
	log.Println("shopdb - the transactional core of an e-commerce platform")
	log.Println("\nUsage:")
	log.Println("  shopdb [options]")
	log.Println("\nOptions:")
	flag.PrintDefaults()

	log.Println("\nExamples:")
	log.Println("  shopdb --datadir=/data")
	log.Println("  shopdb --datadir=/data --snapshotkey=secret")
}

func main() {
	// Get the global settings instance
	args := settings.GetSettings()

	// Define command line flags that map to the Arguments struct
	flag.StringVar(&args.DataDir, "datadir", "./datafiles", "Directory to store snapshot data files")
	flag.StringVar(&args.LogDir, "logdir", "./log_files", "Directory to store journal files")
	flag.Int64Var(&args.MaxJournalFileSize, "maxjournalfilesize", 1000000, "Maximum size of journal files in bytes (default: 1MB)")
	flag.BoolVar(&args.Verbose, "verbose", true, "Enable verbose logging")
	flag.StringVar(&args.ConfigFile, "config", "", "Path to config file")
	flag.StringVar(&args.Mode, "mode", "standalone", "Operation mode (standalone, embedded)")
	flag.StringVar(&args.SnapshotKey, "snapshotkey", "", "Passphrase for encrypting snapshot files at rest")
	flag.StringVar(&args.Version, "version", "0.0.1alpha", "Shows version")
	flag.BoolVar(&args.PrintToScreen, "print", true, "Print log messages to screen")
	flag.BoolVar(&args.Debug, "debug", true, "Enable debug mode")

	// Parse the command line
	flag.Parse()

	// Validate the arguments
	if err := validateArguments(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		printUsage()
		os.Exit(1)
	}

	var logger *zap.Logger
	var err error
	if args.Debug {
		// Development configuration with more verbose output
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		logger, err = z.Build()
	} else {
		// Production configuration
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Create a sugared logger for easier API
	sugar := logger.Sugar()

	// Replace standard log with zap
	zap.ReplaceGlobals(logger)

	// Print the arguments if in verbose mode
	if args.Verbose {
		sugar.Infof("shopdb starting with options:")
		sugar.Infof("  Data Directory: %s", args.DataDir)
		sugar.Infof("  Log Directory: %s", args.LogDir)
		sugar.Infof("  Mode: %s", args.Mode)
	}

	store := engine.NewStore()

	snapshots, err := engine.NewSnapshotStore(args.DataDir, sugar)
	if err != nil {
		sugar.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	journal, err := engine.NewJournal(filepath.Join(args.LogDir, "mutations"), args.MaxJournalFileSize)
	if err != nil {
		sugar.Fatalf("Failed to initialize journal: %v", err)
	}
	defer journal.Close()

	// Reload whatever the persistence collaborator saved last run
	if err := directors.RestoreFromSnapshots(store, snapshots, sugar); err != nil {
		sugar.Fatalf("Failed to restore snapshots: %v", err)
	}

	accountService := directors.NewAccountService(store, snapshots, journal, sugar, args)
	catalogService := directors.NewCatalogService(store, snapshots, journal, sugar, args)
	orderService := directors.NewOrderService(store, snapshots, journal, sugar, args)
	reportService := directors.NewReportService(store, sugar, args)
	directors.InitServiceManager(accountService, catalogService, orderService, reportService, sugar)

	if len(store.ListAccounts(nil)) == 0 {
		if err := seedDemoData(accountService, catalogService, orderService); err != nil {
			sugar.Fatalf("Failed to seed demo data: %v", err)
		}
		sugar.Info("Seeded demo data")
	}

	runReports(reportService, sugar)
}

// seedDemoData plays the bootstrap collaborator: a handful of records fed
// through the same create operations any caller would use.
func seedDemoData(accounts *directors.AccountService, catalog *directors.CatalogService,
	orders *directors.OrderService) error {

	alice, err := accounts.CreateAccount(engine.AccountCommand{
		Email: "alice@example.com",
		Phone: "555-0101",
		Individual: &engine.IndividualProfile{
			FirstName: "Alice",
			LastName:  "Nguyen",
			BirthDate: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		return err
	}
	acme, err := accounts.CreateAccount(engine.AccountCommand{
		Email: "purchasing@acme.example",
		Phone: "555-0102",
		Business: &engine.BusinessProfile{
			LegalName:   "Acme Retail LLC",
			TradeName:   "Acme",
			TaxID:       "77-1234567",
			ContactName: "Bob Ferreira",
		},
	})
	if err != nil {
		return err
	}

	if _, err := accounts.AddAddress(engine.AddressCommand{
		AccountID: alice.AccountID,
		Street:    "100 Elm St", City: "Springfield", State: "OR", Zip: "97477", Label: "home",
	}); err != nil {
		return err
	}

	card, err := accounts.AddPaymentMethod(engine.PaymentMethodCommand{
		AccountID:  alice.AccountID,
		MethodType: "card",
		Provider:   "visa",
		Details:    map[string]string{"last4": "4242"},
		IsDefault:  true,
	})
	if err != nil {
		return err
	}

	northwind, err := catalog.CreateSupplier(engine.SupplierCommand{Name: "Northwind Traders", Contact: "sales@northwind.example"})
	if err != nil {
		return err
	}
	seller, err := catalog.CreateSeller(engine.SellerCommand{Name: "Northwind Traders", Email: "marketplace@northwind.example"})
	if err != nil {
		return err
	}
	if _, err := catalog.LinkSupplierSeller(northwind.SupplierID, seller.SellerID); err != nil {
		return err
	}

	kettle, err := catalog.CreateProduct(engine.ProductCommand{
		SKU: "KTL-100", Name: "Electric Kettle", Price: 49.90, SupplierID: &northwind.SupplierID,
	})
	if err != nil {
		return err
	}
	grinder, err := catalog.CreateProduct(engine.ProductCommand{
		SKU: "GRD-200", Name: "Burr Grinder", Price: 129.00, SupplierID: &northwind.SupplierID,
	})
	if err != nil {
		return err
	}
	for _, seed := range []struct {
		productID int64
		qty       int
	}{{kettle.ProductID, 35}, {grinder.ProductID, 8}} {
		if _, err := catalog.AddStock(engine.StockCommand{ProductID: seed.productID, Quantity: seed.qty}); err != nil {
			return err
		}
	}
	if _, err := catalog.LinkProductSupplier(engine.ProductSupplierCommand{
		ProductID: kettle.ProductID, SupplierID: northwind.SupplierID, SupplierSKU: "NW-KTL", LeadTimeDays: 7,
	}); err != nil {
		return err
	}

	order, err := orders.CreateOrder(engine.OrderCommand{
		AccountID:       alice.AccountID,
		SellerID:        &seller.SellerID,
		Status:          engine.OrderConfirmed,
		PaymentMethodID: &card.PaymentMethodID,
	})
	if err != nil {
		return err
	}
	if _, err := orders.AddOrderItem(engine.OrderItemCommand{
		OrderID: order.OrderID, ProductID: kettle.ProductID, UnitPrice: 49.90, Quantity: 2, Discount: 5.00,
	}); err != nil {
		return err
	}
	if _, err := orders.AddOrderItem(engine.OrderItemCommand{
		OrderID: order.OrderID, ProductID: grinder.ProductID, UnitPrice: 129.00, Quantity: 1,
	}); err != nil {
		return err
	}
	if _, err := orders.AddDelivery(engine.DeliveryCommand{
		OrderID: order.OrderID, Carrier: "UPS", TrackingCode: "1Z999", EstimatedDate: time.Now().AddDate(0, 0, 5),
	}); err != nil {
		return err
	}
	if _, err := orders.AddPayment(engine.PaymentCommand{
		OrderID: order.OrderID, Amount: 223.80, Status: engine.PaymentApproved,
	}); err != nil {
		return err
	}

	// A second, empty order so the left-join reports have something to show
	if _, err := orders.CreateOrder(engine.OrderCommand{AccountID: acme.AccountID}); err != nil {
		return err
	}
	return nil
}

// runReports plays the reporting collaborator against the query engine.
func runReports(reports *directors.ReportService, sugar *zap.SugaredLogger) {
	for _, row := range reports.AccountOrderSummaries() {
		sugar.Infof("account %d (%s): %d orders, %.2f spent", row.AccountID, row.Email, row.OrderCount, row.TotalSpend)
	}
	for _, row := range reports.LowStockProducts(20) {
		sugar.Infof("low stock: product %d (%s) at %d units", row.ProductID, row.Name, row.Quantity)
	}
	for _, row := range reports.SupplierRevenue() {
		sugar.Infof("supplier %d (%s): %.2f revenue across %d orders", row.SupplierID, row.Name, row.Revenue, row.OrderCount)
	}
	for _, row := range reports.OrderTotalsWithCharges() {
		sugar.Infof("order %d: total %.2f, tax %.2f, shipping %.2f, grand total %.2f",
			row.OrderID, row.Total, row.Tax, row.Shipping, row.GrandTotal)
	}
}

// validateArguments validates the arguments and returns an error if invalid
func validateArguments(args *settings.Arguments) error {
	// Check if data directory exists and is accessible
	dirInfo, err := os.Stat(args.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			// Try to create the directory
			err = os.MkdirAll(args.DataDir, 0755)
			if err != nil {
				return fmt.Errorf("could not create data directory: %w", err)
			}
		} else {
			return fmt.Errorf("error accessing data directory: %w", err)
		}
	} else if !dirInfo.IsDir() {
		return fmt.Errorf("data directory path exists but is not a directory: %s", args.DataDir)
	}

	if args.LogDir != "" {
		if _, err := os.Stat(args.LogDir); os.IsNotExist(err) {
			if err := os.MkdirAll(args.LogDir, 0755); err != nil {
				return fmt.Errorf("could not create log directory: %w", err)
			}
		}
	}

	return nil
}
