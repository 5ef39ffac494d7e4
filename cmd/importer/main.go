package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"zaoconnect/internal/config"
	"zaoconnect/internal/db"
	"zaoconnect/internal/importer"
	productrepo "zaoconnect/internal/repository/product"
	userrepo "zaoconnect/internal/repository/user"
)

func main() {
	var (
		filePath    string
		sellerEmail string
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV (name,description,price,stock,image)")
	flag.StringVar(&sellerEmail, "seller", "", "Email of the seller to attribute products to (empty imports house products)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	config.LoadDotenv(logger)
	cfg := config.FromEnv()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	var ownerID string
	if sellerEmail != "" {
		u, err := userrepo.NewPostgres(pool).GetByEmail(ctx, sellerEmail)
		if err != nil {
			logger.Fatalf("resolve seller %q: %v (register the account first)", sellerEmail, err)
		}
		ownerID = u.ID
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, productrepo.NewPostgres(pool, logger), ownerID)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", count, err)
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
