package main

import (
	"context"
	"log"
	"os"

	"zaoconnect/internal/config"
	"zaoconnect/internal/db"
	"zaoconnect/internal/migrate"
)

func main() {
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	config.LoadDotenv(logger)
	cfg := config.FromEnv()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if len(os.Args) > 1 && os.Args[1] == "down" {
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Fatalf("rollback migrations: %v", err)
		}
		logger.Println("migrations rolled back")
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Println("migrations applied")
}
