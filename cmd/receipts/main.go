package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/palmhaven/order-api/internal/config"
	kafkax "github.com/palmhaven/order-api/internal/kafka"
	"github.com/palmhaven/order-api/internal/orders"
	"github.com/palmhaven/order-api/internal/postgres"
	"github.com/palmhaven/order-api/internal/receipts"
	"github.com/palmhaven/order-api/internal/redisx"
)

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &receipts.Service{
		Repo:        &receipts.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-receipts",
	}

	group := getenv("RECEIPTS_GROUP", "receipts-svc")
	workers := atoiOr(os.Getenv("RECEIPTS_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicPaymentSucceeded, workers)

	go func() {
		log.Printf("receipts consumer started: group=%s topic=%s workers=%d", group, orders.TopicPaymentSucceeded, workers)
		if err := cons.Start(ctx, svc.HandlePaymentSucceeded); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
