package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "books-ledger/internal/adapters/web"
	"books-ledger/internal/app"
	"books-ledger/internal/core"
	"books-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
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

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
