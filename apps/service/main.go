package main

import (
	// Std
	"context"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/auth"
	"github.com/momentum-xyz/mapconfig/internal/config"
	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/internal/net"
	"github.com/momentum-xyz/mapconfig/internal/registry"
	"github.com/momentum-xyz/mapconfig/internal/service"
	"github.com/momentum-xyz/mapconfig/internal/socket"

	// Third-Party
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const (
	logGoRoutinesInterval = 2 * time.Minute
	shutdownTimeout       = 5 * time.Second
)

var log = logger.L()

func main() {
	if err := run(); err != nil {
		log.Fatal(errors.WithMessage(err, "error running"))
	}
}

func run() error {
	cfg := config.GetConfig()
	logger.SetLevel(zapcore.Level(cfg.Settings.LogLevel))
	defer logger.Close()

	reg := registry.New()
	hub := socket.NewHub(reg)
	reg.Subscribe(hub.OnSnapshot)

	svc, err := service.Open(cfg, reg)
	if err != nil {
		return errors.WithMessage(err, "failed to init service")
	}
	defer svc.Close()

	if err := svc.Start(); err != nil {
		return errors.WithMessage(err, "failed to load worlds")
	}

	var verifier auth.TokenVerifier
	if cfg.Admin.Enabled() {
		verifier = auth.NewTokenVerifier([]byte(cfg.Admin.JWTSecret))
	} else {
		log.Info("Admin API disabled: no jwt secret configured")
	}
	networking := net.NewNetworking(reg, hub, svc, verifier)

	go handleSignals(svc, networking)
	go logNumberOfGoroutines(logGoRoutinesInterval)

	address, port := cfg.Settings.Address, strconv.FormatUint(uint64(cfg.Settings.Port), 10)
	return networking.ListenAndServe(address, port)
}

// handleSignals reloads the worlds file on SIGHUP and shuts the server down
// on SIGINT or SIGTERM.
func handleSignals(svc *service.Service, networking *net.Networking) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	for sig := range sigs {
		if sig == syscall.SIGHUP {
			log.Info("SIGHUP: reloading worlds")
			svc.RequestReload()
			continue
		}

		log.Infof("%s: shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := networking.Shutdown(ctx); err != nil {
			log.Warn(errors.WithMessage(err, "shutdown"))
		}
		cancel()
		return
	}
}

func logNumberOfGoroutines(interval time.Duration) {
	for {
		log.Infof("Num Goroutines: %d", runtime.NumGoroutine())
		time.Sleep(interval)
	}
}
