package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/cellgw/dispatch"
	"i4.energy/across/cellgw/modem"
	"i4.energy/across/cellgw/status"
)

func main() {
	configFile := flag.String("config", "", "Path to an optional YAML config file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", 921600, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("apn", "internet", "Access point name for the data call")
	flag.String("target-host", "", "Host the fetch workflow requests over the data call")
	flag.Int("target-port", 80, "TCP port on the target host")
	flag.String("request-path", "/", "Path requested from the target host")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	registry := prometheus.NewRegistry()
	metrics := status.NewMetrics(registry)
	store := status.NewStore(config.LogCapacity, metrics)

	modemConfig, err := modem.NewConfigBuilder().
		WithAPN(config.Apn).
		WithTarget(config.TargetHost, config.TargetPort).
		WithRequestPath(config.RequestPath).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			Mode:     &serial.Mode{BaudRate: config.BaudRate},
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport, err := modemConfig.Dialer.Dial(ctx)
	if err != nil {
		logger.Error("Failed to open serial port", "error", err, "serial_port", config.SerialPort)
		os.Exit(1)
	}

	link := modem.NewLink(modem.NewCountingTransport(transport, store), store, modemConfig)
	engine := modem.NewEngine(link, &modem.Session{}, store, modemConfig)

	dispatcher := dispatch.New(dispatch.Config{
		Link:    link,
		Engine:  engine,
		Store:   store,
		Metrics: metrics,
		Logger:  logger,
	})

	logger.Info("Starting cellular gateway",
		"serial_port", config.SerialPort,
		"apn", config.Apn,
		"target_host", config.TargetHost)

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:     logger.With("component", "server"),
			Dispatcher: dispatcher,
			Store:      store,
			Metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		},
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := dispatcher.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Closing HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to gracefully shutdown server", "error", err)
		}

		logger.Info("Closing modem transport")
		if err := transport.Close(); err != nil {
			logger.Error("Failed to close modem transport", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Gateway exited with error", "error", err)
		os.Exit(1)
	}
}
