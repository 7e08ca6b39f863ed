package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"books-ledger/internal/adapters/cli"
	"books-ledger/internal/app"
	"books-ledger/internal/core"
	"books-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: app <command> [args]")
		fmt.Fprintln(os.Stderr, "Commands: invoice, bill, credit-note, transfer, build, validate, post, reverse, bal, statement, stock")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	docService := core.NewDocumentService(pool)
	ledger := core.NewLedger(pool, docService)
	ruleEngine := core.NewRuleEngine(pool)
	postingService := core.NewPostingService(pool, ledger, ruleEngine)
	bankingService := core.NewBankingService(pool, ledger)
	inventoryService := core.NewInventoryService(pool)
	assemblyService := core.NewAssemblyService(pool, ledger, ruleEngine, inventoryService)
	reportingService := core.NewReportingService(pool)

	svc := app.NewAppService(pool, ledger, postingService, bankingService,
		assemblyService, inventoryService, reportingService)

	cli.Run(ctx, svc, os.Args[1:])
}
