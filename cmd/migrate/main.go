package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ayo6706/utility-payments/internal/db"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|up-to|down|down-to|status|version|reset|redo")
	dbURL := flag.String("database-url", firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PAYMENT_DATABASE_URL")), "postgres connection string")
	version := flag.String("version", "", "target version for up-to and down-to")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *dbURL == "" {
		logger.Fatal("missing DATABASE_URL or -database-url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, *dbURL, db.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()

	var args []string
	switch *cmd {
	case "up-to", "down-to":
		if *version == "" {
			logger.Fatal("missing -version", zap.String("cmd", *cmd))
		}
		args = append(args, *version)
	}

	if err := db.Migrate(ctx, pool, *cmd, args...); err != nil {
		logger.Fatal("migration failed", zap.String("cmd", *cmd), zap.Error(err))
	}
	logger.Info("migration complete", zap.String("cmd", *cmd))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
