package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/palmhaven/order-api/internal/config"
	"github.com/palmhaven/order-api/internal/httpx"
	kafkax "github.com/palmhaven/order-api/internal/kafka"
	"github.com/palmhaven/order-api/internal/orders"
	"github.com/palmhaven/order-api/internal/payments"
	"github.com/palmhaven/order-api/internal/paystack"
	"github.com/palmhaven/order-api/internal/postgres"
	"github.com/palmhaven/order-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	prodCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prodCreated.Start(ctx)
	prodPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentSucceeded, 1024)
	prodPaid.Start(ctx)
	prodFailed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentFailed, 1024)
	prodFailed.Start(ctx)

	// Stores & services
	customers := &orders.CustomerRepo{DB: db}
	store := &orders.OrderRepo{DB: db}
	svc := &orders.Service{Customers: customers, Orders: store}

	rec := &payments.Reconciler{
		Gateway:       paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecret),
		Orders:        store,
		Customers:     customers,
		Succeeded:     prodPaid,
		Failed:        prodFailed,
		Redis:         rdb,
		WebhookSecret: cfg.PaystackSecret,
		CallbackURL:   cfg.FrontendBaseURL,
		ServiceName:   cfg.ServiceName,
	}

	router := httpx.NewRouter()
	h := &httpx.Handler{
		Service:     svc,
		Reconciler:  rec,
		Redis:       rdb,
		Producer:    prodCreated,
		ServiceName: cfg.ServiceName,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel() // stop producer loops; they flush their inboxes and close
	prodCreated.WaitClosed()
	prodPaid.WaitClosed()
	prodFailed.WaitClosed()
}
