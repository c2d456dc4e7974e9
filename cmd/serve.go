package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/guildforge/internal/api"
	"github.com/nextlevelbuilder/guildforge/internal/bus"
	"github.com/nextlevelbuilder/guildforge/internal/config"
	"github.com/nextlevelbuilder/guildforge/internal/consumer"
	"github.com/nextlevelbuilder/guildforge/internal/plugin"
	"github.com/nextlevelbuilder/guildforge/internal/rcon"
	"github.com/nextlevelbuilder/guildforge/internal/store/sqldb"
	"github.com/nextlevelbuilder/guildforge/internal/worker"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

var (
	noConsumer bool
	noWorker   bool
	noAPI      bool
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the consumer, job processor and query API",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
	cmd.Flags().BoolVar(&noConsumer, "no-consumer", false, "disable the chat event consumer")
	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "disable the world-gen job processor")
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "disable the query API listener")
	return cmd
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !noWorker && cfg.Rcon.Password == "" {
		slog.Error("GUILDFORGE_RCON_PASSWORD is not set; refusing to start the worker (use --no-worker to run without it)")
		os.Exit(1)
	}

	db, err := sqldb.OpenDB(cfg.Store.DSN)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	stores := sqldb.NewStores(db)

	b, err := bus.New(cfg.Bus.URL)
	if err != nil {
		slog.Error("failed to connect to bus", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	layout := worldgen.LayoutFrom(cfg.World)
	queue := b.Queue()
	log := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if !noConsumer {
		c := consumer.New(*stores, queue, layout, log.With("component", "consumer"))
		g.Go(func() error { return c.Run(ctx, b) })
	}

	if !noWorker {
		rc := rcon.NewClient(cfg.Rcon.Host, cfg.Rcon.Port, cfg.Rcon.Password,
			time.Duration(cfg.Rcon.CommandDelayMs)*time.Millisecond)
		defer rc.Close()
		gen := worldgen.New(rc, layout)
		pc := plugin.NewClient(cfg.Plugin.BaseURL)
		pres := b.Presence()
		g.Go(func() error { return pres.Run(ctx) })

		proc := worker.New(*stores, queue, gen, pc, pres, b, log.With("component", "worker"))
		g.Go(func() error { return proc.Run(ctx) })
	}

	if !noAPI {
		c := consumer.New(*stores, queue, layout, log.With("component", "api"))
		h := api.NewHandler(*stores, layout, b.Codes(), queue, c, cfg.BlueMap.WebURL)
		srv := api.NewServer(cfg.API, h)
		g.Go(func() error { return srv.Start(ctx) })
	}

	slog.Info("guildforge started", "version", Version,
		"consumer", !noConsumer, "worker", !noWorker, "api", !noAPI)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}
