package main

import (
	"context"
	"log"
	"os"

	"stockroom/internal/adapters/cli"
	"stockroom/internal/app"
	"stockroom/internal/core"
	"stockroom/internal/db"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: app <command> [args...]\nRun 'app help' for the command list.")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	products := core.NewProductService(pool, logger)
	suppliers := core.NewSupplierService(pool)
	orders := core.NewPurchaseOrderService(pool)
	receiving := core.NewReceivingService(pool)
	snapshot := core.NewSnapshotService(pool)

	svc := app.NewAppService(pool, products, suppliers, orders, receiving, snapshot)

	cli.Run(ctx, svc, os.Args[1:])
}
