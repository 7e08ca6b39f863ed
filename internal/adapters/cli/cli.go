package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"books-ledger/internal/app"
	"books-ledger/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:], the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		log.Fatalf("Failed to load company: %v", err)
	}

	switch args[0] {
	case "invoice", "inv":
		doc := decodeDocument(company.CompanyCode)
		result, err := svc.PostInvoice(ctx, doc)
		if err != nil {
			log.Fatalf("Invoice posting failed: %v", err)
		}
		printResult(result)

	case "bill":
		doc := decodeDocument(company.CompanyCode)
		result, err := svc.PostBill(ctx, doc)
		if err != nil {
			log.Fatalf("Bill posting failed: %v", err)
		}
		printResult(result)

	case "credit-note", "cn":
		doc := decodeDocument(company.CompanyCode)
		result, err := svc.PostCreditNote(ctx, doc)
		if err != nil {
			log.Fatalf("Credit note posting failed: %v", err)
		}
		printResult(result)

	case "transfer", "bt":
		var req core.TransferRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		req.CompanyCode = company.CompanyCode
		result, err := svc.TransferFunds(ctx, req)
		if err != nil {
			log.Fatalf("Transfer failed: %v", err)
		}
		fmt.Printf("Transfer posted: %s (entry %d)\n", result.DocumentNumber, result.EntryID)
		fmt.Printf("  Source balance: %s\n", result.SourceBalance.StringFixed(2))
		fmt.Printf("  Dest balance  : %s\n", result.DestBalance.StringFixed(2))

	case "build":
		var req core.BuildRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		req.CompanyCode = company.CompanyCode
		result, err := svc.BuildAssembly(ctx, req)
		if err != nil {
			log.Fatalf("Assembly build failed: %v", err)
		}
		fmt.Printf("Build %d posted: %s (entry %d)\n", result.BuildID, result.DocumentNumber, result.EntryID)
		fmt.Printf("  Material cost : %s\n", result.Costing.MaterialCost.StringFixed(2))
		fmt.Printf("  Total cost    : %s\n", result.Costing.TotalCost.StringFixed(2))
		fmt.Printf("  Unit cost     : %s\n", result.Costing.UnitCost.StringFixed(4))
		fmt.Printf("  New avg cost  : %s\n", result.Costing.NewAverageCost.StringFixed(4))

	case "validate", "val", "v":
		var posting core.Posting
		if err := json.NewDecoder(os.Stdin).Decode(&posting); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		posting.CompanyCode = company.CompanyCode
		if err := svc.ValidatePosting(ctx, posting); err != nil {
			log.Fatalf("Validation failed: %v", err)
		}
		fmt.Println("Posting is valid.")

	case "post":
		var posting core.Posting
		if err := json.NewDecoder(os.Stdin).Decode(&posting); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		posting.CompanyCode = company.CompanyCode
		if err := svc.PostJournal(ctx, posting); err != nil {
			log.Fatalf("Posting failed: %v", err)
		}
		fmt.Println("Transaction posted.")

	case "reverse":
		if len(args) < 2 {
			log.Fatal("Usage: app reverse <entry-id> [reason]")
		}
		entryID, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid entry id: %s", args[1])
		}
		reason := ""
		if len(args) > 2 {
			reason = args[2]
		}
		if err := svc.ReverseEntry(ctx, entryID, reason); err != nil {
			log.Fatalf("Reversal failed: %v", err)
		}
		fmt.Printf("Entry %d reversed.\n", entryID)

	case "bal", "balances":
		result, err := svc.GetTrialBalance(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get balances: %v", err)
		}
		printTrialBalance(result)

	case "statement", "stmt":
		if len(args) < 2 {
			log.Fatal("Usage: app statement <account-code> [from] [to]")
		}
		from, to := "", ""
		if len(args) > 2 {
			from = args[2]
		}
		if len(args) > 3 {
			to = args[3]
		}
		result, err := svc.GetAccountStatement(ctx, company.CompanyCode, args[1], from, to)
		if err != nil {
			log.Fatalf("Failed to get statement: %v", err)
		}
		printStatement(result)

	case "stock":
		result, err := svc.GetStockLevels(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get stock levels: %v", err)
		}
		printStock(result)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: invoice, bill, credit-note, transfer, build, validate, post, reverse, bal, statement, stock", args[0])
	}
}

// decodeDocument reads a DocumentInput from stdin and stamps the company code.
func decodeDocument(companyCode string) core.DocumentInput {
	var doc core.DocumentInput
	if err := json.NewDecoder(os.Stdin).Decode(&doc); err != nil {
		log.Fatalf("Invalid JSON: %v", err)
	}
	doc.CompanyCode = companyCode
	return doc
}

func printResult(result *core.PostResult) {
	fmt.Printf("Posted %s (entry %d)\n", result.DocumentNumber, result.EntryID)
	fmt.Printf("  Subtotal    : %s\n", result.Totals.Subtotal.StringFixed(2))
	fmt.Printf("  Tax         : %s\n", result.Totals.Tax.StringFixed(2))
	if !result.Totals.Withholding.IsZero() {
		fmt.Printf("  Withholding : %s\n", result.Totals.Withholding.StringFixed(2))
	}
	fmt.Printf("  Total       : %s\n", result.Totals.Total.StringFixed(2))
	fmt.Printf("  Amount due  : %s\n", result.Totals.AmountDue.StringFixed(2))
	for _, e := range result.Entries {
		side := "CR"
		if e.IsDebit {
			side = "DR"
		}
		fmt.Printf("    %s %-10s %12s  %s\n", side, e.AccountCode, e.Amount.StringFixed(2), e.Description)
	}
}

func printTrialBalance(result *app.TrialBalanceResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-58s\n", "TRIAL BALANCE")
	fmt.Printf("  Company  : %s (%s)\n", result.CompanyCode, result.CompanyName)
	fmt.Printf("  Currency : %s\n", result.Currency)
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-10s %-30s %15s\n", "CODE", "NAME", "BALANCE")
	fmt.Println(strings.Repeat("-", 62))
	for _, b := range result.Accounts {
		fmt.Printf("  %-10s %-30s %15s\n", b.Code, b.Name, b.Balance.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printStatement(result *app.AccountStatementResult) {
	fmt.Println()
	fmt.Printf("  Statement for account %s\n", result.AccountCode)
	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("  %-12s %-30s %12s %12s %12s\n", "DATE", "NARRATION", "DEBIT", "CREDIT", "BALANCE")
	fmt.Println(strings.Repeat("-", 84))
	for _, l := range result.Lines {
		narration := l.Narration
		if len(narration) > 30 {
			narration = narration[:27] + "..."
		}
		fmt.Printf("  %-12s %-30s %12s %12s %12s\n", l.PostingDate, narration,
			l.Debit.StringFixed(2), l.Credit.StringFixed(2), l.RunningBalance.StringFixed(2))
	}
	fmt.Println(strings.Repeat("-", 84))
}

func printStock(result *app.StockResult) {
	fmt.Println()
	fmt.Printf("  %-14s %-30s %12s %12s\n", "CODE", "PRODUCT", "ON HAND", "UNIT COST")
	fmt.Println(strings.Repeat("-", 72))
	for _, sl := range result.Levels {
		fmt.Printf("  %-14s %-30s %12s %12s\n", sl.ProductCode, sl.ProductName,
			sl.OnHand.String(), sl.UnitCost.StringFixed(4))
	}
	fmt.Println(strings.Repeat("-", 72))
}
