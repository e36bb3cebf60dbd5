package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/config"
	kafkax "github.com/foodnest/order-engine/internal/kafka"
	"github.com/foodnest/order-engine/internal/logx"
	"github.com/foodnest/order-engine/internal/notify"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	service := cfg.ServiceName + "-notifier"
	log, err := logx.New(service, os.Getenv("APP_ENV") == "dev")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	c := &notify.Consumer{
		Service:  service,
		RDB:      rdb,
		Notifier: &notify.LogNotifier{Log: log},
		Log:      log,
	}

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, service, orders.TopicStatusChanged, 4)
	log.Info("notifier consuming", zap.String("topic", orders.TopicStatusChanged))
	if err := consumer.Start(ctx, c.Handle); err != nil {
		log.Fatal("consumer stopped", zap.Error(err))
	}
}
