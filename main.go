package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"library-backend/internal/domain"
	"library-backend/internal/library"
	"library-backend/internal/platform/clock"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/logger"
)

const usage = "Usage: library-backend [-config path] [migrate|overdue]"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Mode)
	log.Info().Str("mode", cfg.Mode).Msg("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), cfg, log); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, cfg *config.Config, log zerolog.Logger) error {
	switch cmd {
	case "migrate", "overdue":
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	lib, err := library.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer lib.Close()

	if cmd == "migrate" {
		log.Info().Str("driver", cfg.DB.Driver).Msg("schema up to date")
		return nil
	}
	return printOverdue(ctx, os.Stdout, lib, clock.Real{})
}

// printOverdue writes the loans overdue at c.Now() to w as a JSON array.
func printOverdue(ctx context.Context, w io.Writer, lib *library.Library, c clock.Clock) error {
	now := c.Now()
	overdue, err := lib.Loans.GetOverdueLoans(ctx, now)
	if err != nil {
		return err
	}
	views := make([]domain.LoanView, 0, len(overdue))
	for i := range overdue {
		views = append(views, overdue[i].View(now))
	}
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}
