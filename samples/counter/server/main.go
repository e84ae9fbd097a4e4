package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/weegigs/wee-contracts-go/connectors/wehttp"
	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/we"
)

func routes(service we.ContractService, registry *prometheus.Registry) (http.Handler, error) {
	metrics, err := wehttp.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	logger := counter.Logger()

	r := chi.NewRouter()
	r.Use(withLogging)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Mount("/", wehttp.NewHandler(service, wehttp.Logger(&logger), wehttp.WithMetrics(metrics)))

	return r, nil
}

func configure(ctx context.Context) (we.ContractService, func(), error) {
	switch os.Getenv("LEDGER_BACKEND") {
	case "dynamodb":
		return live(ctx)
	default:
		return local(ctx)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := we.InstallTracing(ctx, "counter-server", os.Getenv("TRACE_EXPORTER"))
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	service, cleanup, err := configure(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := routes(service, registry)
	if err != nil {
		return err
	}

	address := os.Getenv("LISTEN_ADDRESS")
	if address == "" {
		address = ":9080"
	}

	server := &http.Server{Addr: address, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("failed to shut down cleanly")
		}
	}()

	log.WithField("address", address).Info("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
