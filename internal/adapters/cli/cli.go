package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"stockroom/internal/app"
	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

// Run executes a one-shot CLI command and exits. args is os.Args[1:], with
// the subcommand name first.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		log.Fatalf("Failed to load company: %v", err)
	}

	switch args[0] {
	case "products", "prod":
		result, err := svc.ListProducts(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to list products: %v", err)
		}
		printProducts(result)

	case "match", "m":
		if len(args) < 2 {
			log.Fatal("Usage: app match \"<line description>\"")
		}
		result, err := svc.MatchProduct(ctx, company.CompanyCode, args[1])
		if err != nil {
			log.Fatalf("Match failed: %v", err)
		}
		if !result.Matched {
			fmt.Println("No match.")
			return
		}
		fmt.Printf("Matched product #%d: %s\n", result.Product.ID, result.Product.Name)

	case "barcode-add":
		if len(args) < 3 {
			log.Fatal("Usage: app barcode-add <product-id> <barcode>")
		}
		productID := mustAtoi(args[1], "product-id")
		result, err := svc.AddBarcode(ctx, company.CompanyCode, productID, args[2])
		if err != nil {
			var dup *core.DuplicateBarcodeError
			if errors.As(err, &dup) {
				log.Fatalf("Barcode conflict: %v", dup)
			}
			log.Fatalf("Failed to add barcode: %v", err)
		}
		fmt.Printf("Product #%d barcodes: %s\n", result.Product.ID, strings.Join(result.Product.Barcodes, ", "))

	case "product-delete":
		if len(args) < 2 {
			log.Fatal("Usage: app product-delete <product-id>")
		}
		productID := mustAtoi(args[1], "product-id")
		if err := svc.DeleteProduct(ctx, company.CompanyCode, productID); err != nil {
			log.Fatalf("Failed to delete product: %v", err)
		}
		fmt.Printf("Product #%d deleted.\n", productID)

	case "suppliers", "sup":
		result, err := svc.ListSuppliers(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to list suppliers: %v", err)
		}
		for _, s := range result.Suppliers {
			fmt.Printf("  %-12s %s\n", s.Code, s.Name)
		}

	case "supplier-add":
		if len(args) < 3 {
			log.Fatal("Usage: app supplier-add <code> <name>")
		}
		result, err := svc.CreateSupplier(ctx, app.CreateSupplierRequest{
			CompanyCode: company.CompanyCode,
			Code:        args[1],
			Name:        args[2],
		})
		if err != nil {
			log.Fatalf("Failed to create supplier: %v", err)
		}
		fmt.Printf("Supplier #%d created: %s\n", result.Supplier.ID, result.Supplier.Code)

	case "po-create":
		// Reads a CreatePurchaseOrderRequest (minus company code) as JSON
		// from stdin, mirroring how OCR output would be piped in.
		var req app.CreatePurchaseOrderRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		req.CompanyCode = company.CompanyCode
		result, err := svc.CreatePurchaseOrder(ctx, req)
		if err != nil {
			log.Fatalf("Failed to create PO: %v", err)
		}
		fmt.Printf("Purchase order #%d created (DRAFT, %d lines).\n", result.Order.ID, len(result.Order.Lines))

	case "po-book":
		if len(args) < 2 {
			log.Fatal("Usage: app po-book <po-id>")
		}
		poID := mustAtoi(args[1], "po-id")
		result, err := svc.BookPurchaseOrder(ctx, company.CompanyCode, poID)
		if err != nil {
			log.Fatalf("Failed to book PO: %v", err)
		}
		printBooking(result)

	case "po-list", "pos":
		status := ""
		if len(args) > 1 {
			status = strings.ToUpper(args[1])
		}
		result, err := svc.ListPurchaseOrders(ctx, company.CompanyCode, status)
		if err != nil {
			log.Fatalf("Failed to list POs: %v", err)
		}
		for _, po := range result.Orders {
			number := "-"
			if po.PONumber != nil {
				number = *po.PONumber
			}
			fmt.Printf("  #%-5d %-10s %-20s %-12s %10s\n", po.ID, number, po.SupplierName, po.Status, po.Total.StringFixed(2))
		}

	case "po-show", "po":
		if len(args) < 2 {
			log.Fatal("Usage: app po-show <po-id>")
		}
		poID := mustAtoi(args[1], "po-id")
		result, err := svc.GetPurchaseOrder(ctx, company.CompanyCode, poID)
		if err != nil {
			log.Fatalf("Failed to get PO: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result.Order)

	case "receive", "rcv":
		if len(args) < 3 {
			log.Fatal("Usage: app receive <product-id> <qty>")
		}
		productID := mustAtoi(args[1], "product-id")
		qty, err := decimal.NewFromString(args[2])
		if err != nil {
			log.Fatalf("Invalid quantity %q: %v", args[2], err)
		}
		result, err := svc.Receive(ctx, company.CompanyCode, productID, qty)
		if err != nil {
			log.Fatalf("Receive failed: %v", err)
		}
		printReceipt(result.Receipt)

	case "po-receive":
		var req app.ReceivePORequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		req.CompanyCode = company.CompanyCode
		result, err := svc.ReceivePurchaseOrder(ctx, req)
		if err != nil {
			log.Fatalf("PO receive failed: %v", err)
		}
		fmt.Printf("Purchase order #%d is now %s.\n", result.Receipt.OrderID, result.Receipt.Status)
		for i := range result.Receipt.Receipts {
			printReceipt(&result.Receipt.Receipts[i])
		}

	case "stock":
		result, err := svc.GetStockLevels(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get stock levels: %v", err)
		}
		printStock(result)

	case "snapshot", "snap":
		result, err := svc.GetSnapshot(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get snapshot: %v", err)
		}
		printSnapshot(result)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: products, match, barcode-add, product-delete, suppliers, supplier-add, po-create, po-book, po-list, po-show, receive, po-receive, stock, snapshot", args[0])
	}
}

func mustAtoi(s, name string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("Invalid %s: %q", name, s)
	}
	return n
}

func printProducts(result *app.ProductListResult) {
	fmt.Printf("  %-6s %-40s %-16s %s\n", "ID", "NAME", "SKU", "BARCODES")
	fmt.Println(strings.Repeat("-", 78))
	for _, p := range result.Products {
		sku := "-"
		if p.SKU != nil {
			sku = *p.SKU
		}
		fmt.Printf("  %-6d %-40s %-16s %s\n", p.ID, p.Name, sku, strings.Join(p.Barcodes, ", "))
	}
}

func printBooking(result *app.BookingResult) {
	fmt.Printf("Purchase order #%d booked as %s.\n", result.Summary.OrderID, result.Summary.PONumber)
	fmt.Printf("  Products matched : %d\n", result.Summary.ProductsMatched)
	fmt.Printf("  Products created : %d\n", result.Summary.ProductsCreated)
	fmt.Printf("  Transit records  : %d\n", result.Summary.TransitCreated)
	if len(result.Summary.SkippedLines) > 0 {
		skipped := make([]string, len(result.Summary.SkippedLines))
		for i, n := range result.Summary.SkippedLines {
			skipped[i] = strconv.Itoa(n)
		}
		fmt.Printf("  Skipped lines    : %s\n", strings.Join(skipped, ", "))
	}
}

func printReceipt(r *core.ReceiveResult) {
	fmt.Printf("Product #%d: received %s, on hand %s @ %s\n",
		r.ProductID, r.Received.String(), r.NewOnHand.String(), r.NewAvgCost.StringFixed(4))
	if r.RemainingRequested.IsPositive() {
		fmt.Printf("  WARNING: %s requested but not available in transit\n", r.RemainingRequested.String())
	}
}

func printStock(result *app.StockResult) {
	fmt.Printf("  %-6s %-40s %12s %12s\n", "ID", "PRODUCT", "ON HAND", "AVG COST")
	fmt.Println(strings.Repeat("-", 74))
	for _, l := range result.Levels {
		fmt.Printf("  %-6d %-40s %12s %12s\n", l.ProductID, l.ProductName, l.OnHand.String(), l.AvgUnitCost.StringFixed(4))
	}
}

func printSnapshot(result *app.SnapshotResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 86))
	fmt.Printf("  INVENTORY SNAPSHOT — %s\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 86))
	fmt.Printf("  %-40s %10s %10s %10s %10s\n", "PRODUCT", "ON HAND", "AVG COST", "TRANSIT", "EXP COST")
	fmt.Println(strings.Repeat("-", 86))
	for _, row := range result.Rows {
		onHand, avgCost := decimal.Zero, decimal.Zero
		if row.Inventory != nil {
			onHand, avgCost = row.Inventory.QtyOnHand, row.Inventory.AvgUnitCost
		}
		fmt.Printf("  %-40s %10s %10s %10s %10s\n",
			row.Product.Name, onHand.String(), avgCost.StringFixed(4),
			row.QuantityInTransit.String(), row.ExpectedUnitCost.StringFixed(4))
	}
	fmt.Println(strings.Repeat("-", 86))
	fmt.Printf("  On-hand value   : %s\n", result.TotalOnHand.StringFixed(2))
	fmt.Printf("  In-transit value: %s\n", result.TotalInTransit.StringFixed(2))
	fmt.Println(strings.Repeat("=", 86))
}
