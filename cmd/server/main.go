package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/config"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/event"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/monitoring"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/store"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/table"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/web"
)

var CLI struct {
	Config   string `short:"c" default:"tavolo.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Listen address host:port (overrides config)"`
	DBPath   string `help:"SQLite database path (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("settemezzo-server"),
		kong.Description("Single-table Sette e Mezzo server"),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Command line overrides
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.DBPath != "" {
		cfg.Game.DBPath = CLI.DBPath
	}
	addr := cfg.ListenAddr()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if err := run(logger, cfg, addr); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}

func run(logger *log.Logger, cfg *config.Config, addr string) error {
	st, err := store.New(cfg.Game.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bankrolls do not survive restarts; every boot seats a fresh roster.
	if err := st.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	monitoring.Init()
	bus := event.NewBus()
	svc := table.New(st, bus, logger)

	srv, err := web.NewServer(cfg, st, svc, bus, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", ln.Addr().String(), "db", cfg.Game.DBPath)
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
