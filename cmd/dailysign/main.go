package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"dailysign/internal/api"
	"dailysign/internal/client"
	"dailysign/internal/config"
	"dailysign/internal/domain"
	"dailysign/internal/history"
	"dailysign/internal/loop"
	"dailysign/internal/runner"
)

// Exit codes: 0 for a completed single shot or an operator interrupt,
// 2 when the configuration requires operator action.
const exitConfigFatal = 2

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", config.DefaultPath, "path to the account config file")
		dbPath     = flag.String("db", "dailysign.db", "SQLite run-history path")
		continuous = flag.Bool("loop", false, "keep running, one batch per hour")
		schedule   = flag.String("schedule", "", "cron expression overriding the hourly interval (loop mode)")
		addr       = flag.String("addr", "", "bind address for the status API (disabled when empty)")
		retention  = flag.Duration("retention", 30*24*time.Hour, "how long to keep run history (0 keeps everything)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	if !*debug {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=journal_mode(WAL)", *dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Error().Err(err).Msg("open db")
		return 1
	}
	defer db.Close()
	db.SetMaxOpenConns(1) // SQLite single writer

	if err := history.EnsureSchema(db); err != nil {
		log.Error().Err(err).Msg("ensure schema")
		return 1
	}
	journal := history.New(db)
	if *retention > 0 {
		if n, err := journal.Prune(ctx, *retention); err == nil {
			log.Info().Int("pruned", n).Msg("pruned old run history")
		} else {
			log.Error().Err(err).Msg("pruning run history failed")
		}
	}

	cli := client.New(client.Options{
		AuthURL: os.Getenv("DAILYSIGN_AUTH_URL"),
		APIURL:  os.Getenv("DAILYSIGN_API_URL"),
	})
	probeNetwork(ctx, cli)

	opener := runner.OpenerFunc(func(ctx context.Context, username, password string) (runner.Session, error) {
		return cli.Login(ctx, username, password)
	})
	batch := runner.NewBatch(*configPath, runner.NewProcessor(opener), journal)

	opts := []loop.Option{loop.WithContinuous(*continuous)}
	if *schedule != "" {
		cronSchedule, err := loop.ParseSchedule(*schedule)
		if err != nil {
			log.Error().Err(err).Str("schedule", *schedule).Msg("invalid cron expression")
			return exitConfigFatal
		}
		opts = append(opts, loop.WithSchedule(cronSchedule))
	}

	var srv *http.Server
	if *addr != "" {
		srv = &http.Server{Addr: *addr, Handler: api.NewServer(journal)}
		go func() {
			log.Info().Str("addr", *addr).Msg("status API starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("status API server")
			}
		}()
	}

	outcome := loop.New(batch.Run, opts...).Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	switch outcome {
	case domain.RunConfigFatal:
		return exitConfigFatal
	default:
		return 0
	}
}

// probeNetwork logs the network environment at startup. Informational
// only; failures never block the run.
func probeNetwork(ctx context.Context, cli *client.Client) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	class, err := cli.CheckNetwork(probeCtx)
	if err != nil {
		log.Debug().Err(err).Msg("network probe failed")
		return
	}
	log.Info().Str("network", class.String()).Msg("network environment")
}
