package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/config"
	"github.com/foodnest/order-engine/internal/courier"
	kafkax "github.com/foodnest/order-engine/internal/kafka"
	"github.com/foodnest/order-engine/internal/logx"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/postgres"
	"github.com/foodnest/order-engine/internal/reconcile"
	"github.com/foodnest/order-engine/internal/settings"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logx.New(cfg.ServiceName+"-reconciler", os.Getenv("APP_ENV") == "dev")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect failed", zap.Error(err))
	}
	defer db.Close()

	producer := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	producer.Start(ctx)

	settingsSrc := &settings.PostgresSource{DB: db}
	tracker := courier.NewHTTPClient(cfg.CourierBaseURL, func(ctx context.Context) (string, error) {
		snap, err := settingsSrc.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		return snap.CourierAPIKey, nil
	})

	r := &reconcile.Reconciler{
		Repo:      &orders.PostgresRepo{DB: db},
		Courier:   tracker,
		Broadcast: &orders.KafkaBroadcaster{Producer: producer, Service: cfg.ServiceName + "-reconciler"},
		Interval:  cfg.PollInterval,
		Log:       log,
	}

	log.Info("reconciler started", zap.Duration("interval", cfg.PollInterval))
	r.Run(ctx)

	producer.Close()
	producer.WaitClosed()
}
