package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/pcgearph/storefront/internal/auth"
	"github.com/pcgearph/storefront/internal/catalog"
	"github.com/pcgearph/storefront/internal/config"
	"github.com/pcgearph/storefront/internal/httpx"
	"github.com/pcgearph/storefront/internal/inventory"
	kafkax "github.com/pcgearph/storefront/internal/kafka"
	"github.com/pcgearph/storefront/internal/metrics"
	"github.com/pcgearph/storefront/internal/orders"
	"github.com/pcgearph/storefront/internal/postgres"
	"github.com/pcgearph/storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	placed.Start(ctx)
	statusChanged := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	statusChanged.Start(ctx)

	validate := validator.New()

	authSvc := &auth.Service{
		DB:          db,
		Redis:       rdb,
		Secret:      []byte(cfg.JWTSecret),
		TokenTTL:    24 * time.Hour,
		MaxAttempts: 5,
	}
	admin := httpx.RequireAdmin(authSvc)

	router := httpx.NewRouter()

	oh := &httpx.OrdersHandler{
		Store:              &orders.Repo{DB: db},
		Placed:             placed,
		StatusChanged:      statusChanged,
		Cache:              redisx.StatusCache{RDB: rdb},
		Validate:           validate,
		Service:            cfg.ServiceName,
		DefaultCourier:     cfg.DefaultCourier,
		DefaultShippingFee: decimal.NewFromFloat(cfg.DefaultShippingFee),
	}
	oh.Register(router, admin)

	ch := &httpx.CatalogHandler{Store: &catalog.Repo{DB: db}, Validate: validate}
	ch.Register(router, admin)

	ih := &httpx.InventoryHandler{Store: &inventory.Repo{DB: db}, Validate: validate}
	ih.Register(router, admin)

	ah := &httpx.AuthHandler{Service: authSvc}
	ah.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

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
	placed.Close() // stop intake -> flush & close writer
	statusChanged.Close()
	cancel() // stop producer loops
	placed.WaitClosed()
	statusChanged.WaitClosed()
}
