package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/cart"
	"github.com/foodnest/order-engine/internal/checkout"
	"github.com/foodnest/order-engine/internal/config"
	"github.com/foodnest/order-engine/internal/courier"
	"github.com/foodnest/order-engine/internal/httpx"
	"github.com/foodnest/order-engine/internal/inventory"
	kafkax "github.com/foodnest/order-engine/internal/kafka"
	"github.com/foodnest/order-engine/internal/logx"
	"github.com/foodnest/order-engine/internal/objectstore"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/payment"
	"github.com/foodnest/order-engine/internal/postgres"
	"github.com/foodnest/order-engine/internal/pricing"
	"github.com/foodnest/order-engine/internal/reconcile"
	"github.com/foodnest/order-engine/internal/redisx"
	"github.com/foodnest/order-engine/internal/settings"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logx.New(cfg.ServiceName, os.Getenv("APP_ENV") == "dev")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect failed", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	producer := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	producer.Start(ctx)

	settingsSrc := &settings.PostgresSource{DB: db}
	ledger := &inventory.PostgresLedger{DB: db}
	repo := &orders.PostgresRepo{DB: db}
	facts := &pricing.PostgresFacts{DB: db}
	resolver := &pricing.Resolver{Sales: facts, Coupons: facts, Bundles: facts}
	carts := &cart.RedisStore{RDB: rdb}
	broadcast := &orders.KafkaBroadcaster{Producer: producer, Service: cfg.ServiceName}

	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL, func(ctx context.Context) (payment.Credentials, error) {
		snap, err := settingsSrc.Snapshot(ctx)
		if err != nil {
			return payment.Credentials{}, err
		}
		return payment.Credentials{Key: snap.GatewayKey, Secret: snap.GatewaySecret}, nil
	})
	tracker := courier.NewHTTPClient(cfg.CourierBaseURL, func(ctx context.Context) (string, error) {
		snap, err := settingsSrc.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		return snap.CourierAPIKey, nil
	})

	orderSvc := &orders.Service{
		Repo:      repo,
		Ledger:    ledger,
		Tracker:   tracker,
		Broadcast: broadcast,
		Store:     &objectstore.FileStore{Dir: cfg.PODDir, BaseURL: cfg.PODBaseURL},
		Log:       log,
	}
	checkoutSvc := &checkout.Service{
		Repo:      repo,
		Ledger:    ledger,
		Pricing:   resolver,
		Settings:  settingsSrc,
		Gateway:   gateway,
		Carts:     carts,
		Broadcast: broadcast,
		Log:       log,
	}
	reconciler := &reconcile.Reconciler{
		Repo:      repo,
		Courier:   tracker,
		Broadcast: broadcast,
		Interval:  cfg.PollInterval,
		Log:       log,
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: (&httpx.Server{
			Orders:     orderSvc,
			Checkout:   checkoutSvc,
			Reconciler: reconciler,
			Ledger:     ledger,
			Carts:      carts,
			RDB:        rdb,
			Log:        log,
		}).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	producer.Close()
	producer.WaitClosed()
}
