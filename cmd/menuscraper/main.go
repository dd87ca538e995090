package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/menu-scraper/internal/app"
	"github.com/MikhailRaia/menu-scraper/internal/config"
	"github.com/MikhailRaia/menu-scraper/internal/logger"
)

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

func run() error {
	cfg, err := config.NewConfig()
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		return err
	}

	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	runErr := application.Run(ctx)

	if cfg.MemProfile != "" {
		if err := writeHeapProfile(cfg.MemProfile); err != nil {
			log.Error().Err(err).Str("path", cfg.MemProfile).Msg("Failed to write memory profile")
		}
	}

	return runErr
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running application")
	}
}
