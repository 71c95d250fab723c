// Package main runs the auction synchronization daemon: it follows the
// chain head over WebSocket, keeps the auction list in sync and serves
// Prometheus metrics.
package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nft-auction-sync/internal/config"
	"nft-auction-sync/internal/observability"
	"nft-auction-sync/internal/service"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "auctiond",
	Short: "NFT auction state synchronization daemon",
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "follow the chain head and keep auction state in sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to the TOML config file")
	rootCmd.AddCommand(daemonCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := service.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := svc.Start(); err != nil {
		return err
	}

	if cfg.Monitor.MetricsAddr != "" {
		go serveMetrics(cfg.Monitor.MetricsAddr, logger)
	}
	if cfg.Monitor.PprofEnable {
		go func() {
			addr := cfg.Monitor.PprofAddr
			if addr == "" {
				addr = ":6060"
			}
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Warn("pprof server exited", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	cancel()
	svc.Stop()
	return nil
}

// serveMetrics exposes /metrics and /health.
func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics server exited", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
