package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
	"github.com/hsccorp/node-bluetooth-tcp-obd/pid"
)

func main() {
	flag.String("conn-type", obd.ConnBluetooth, "Connection type (bluetooth, serial, tcp)")
	flag.String("target", "/dev/rfcomm0", "Device path of a serial adapter or host:port of a Wi-Fi adapter")
	flag.Int("baud-rate", obd.DefaultBaudRate, "Baud rate for serial and Bluetooth adapters")
	flag.String("protocol", "0", "ELM327 protocol selector, 0 for automatic")
	flag.Duration("write-delay", obd.DefaultWriteDelay, "Delay between two commands sent to the adapter")
	flag.Duration("poll-interval", 0, "Polling period, 0 derives it from the number of pollers")
	flag.String("pollers", "", "Comma separated parameter names to poll")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	listPIDs := flag.Bool("list-pids", false, "Print the supported parameters and exit")
	flag.Parse()

	if *listPIDs {
		pid.Default().Render(os.Stdout)
		return
	}

	config, err := LoadConfig(WithDefaults(), WithFile(*configPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(config.LogLevel)

	dialer, err := obd.NewDialer(config.ConnType, config.Target, config.BaudRate)
	if err != nil {
		logger.Error("Failed to create dialer", "error", err)
		os.Exit(1)
	}

	sessionConfig, err := obd.NewConfigBuilder().
		WithProtocol(config.Protocol).
		WithWriteDelay(config.WriteDelay).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Error("Failed to create session config", "error", err)
		os.Exit(1)
	}

	session, err := obd.New(sessionConfig)
	if err != nil {
		logger.Error("Failed to create session", "error", err)
		os.Exit(1)
	}

	hub := NewHub(logger.With("component", "hub"))

	forwarder := &EventForwarder{
		Logger:       logger.With("component", "events"),
		Session:      session,
		Hub:          hub,
		Pollers:      config.Pollers,
		PollInterval: config.PollInterval,
	}
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		forwarder.Run()
	}()

	logger.Info("Connecting to OBD-II adapter", "dialer", dialer, "protocol", config.Protocol)
	if err := session.Connect(context.Background(), dialer); err != nil {
		logger.Error("Failed to connect", "error", err)
		session.Close()
		<-forwarded
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Session: session,
			Hub:     hub,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	logger.Info("Closing OBD-II session")
	if err := session.Close(); err != nil {
		logger.Error("Failed to close session", "error", err)
	}
	<-forwarded

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	hub.Close()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
		os.Exit(1)
	}
}

// newLogger logs JSON, or text when stderr is a terminal.
func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
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

	opts := &slog.HandlerOptions{Level: logLevel}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
