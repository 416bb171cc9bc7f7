package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tabletap/internal/api/http"
	"tabletap/internal/broadcast"
	"tabletap/internal/catalog"
	"tabletap/internal/kitchen"
	"tabletap/internal/orders"
	"tabletap/internal/payments"
	"tabletap/internal/store"
	"tabletap/internal/tables"
	"tabletap/internal/tenants"
	"tabletap/pkg/config"
	"tabletap/pkg/db"
	"tabletap/pkg/logger"
	"tabletap/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "tabletap",
		Short:        "Restaurant order fulfillment and settlement service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	log := logger.NewLogger("tabletap")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Error("startup", "config_load_failed", "Failed to load config", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.ConnectDB(&cfg.Database, log)
	if err != nil {
		log.Error("startup", "db_connection_failed", "Failed to connect to database", err)
		return err
	}
	defer pool.Close()

	st := store.NewPostgres(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("startup", "schema_failed", "Failed to apply schema", err)
		return err
	}

	hub := broadcast.NewHub(log)
	defer hub.Close()

	// Without a broker the hub is fed directly; with one, mutations go
	// through the exchange and the relay feeds every instance's hub.
	var publisher broadcast.Publisher = hub
	var relay *broadcast.Relay
	if cfg.RabbitMQ.Enabled {
		rmq, err := rabbitmq.ConnectRabbitMQ(&cfg.RabbitMQ, log)
		if err != nil {
			log.Error("startup", "mb_connection_failed", "Failed to connect to message broker", err)
			return err
		}
		defer rmq.Close()

		publisher = broadcast.NewFanout(rmq, log)
		relay = broadcast.NewRelay(rmq, hub, log)
	}

	paymentService := payments.NewService(st, log)
	orderService := orders.NewService(
		st,
		catalog.NewCatalog(pool),
		tables.NewService(pool),
		tenants.NewConfig(pool, cfg.Defaults.TaxRatePercent),
		paymentService,
		publisher,
		log,
	)
	coordinator := kitchen.NewCoordinator(st, publisher, log)

	server := http.NewServer(cfg.Server.Port, orderService, coordinator, paymentService, hub, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	if relay != nil {
		g.Go(func() error { return relay.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("shutdown", "service_failed", "Service exited with error", err)
		return err
	}
	return nil
}
