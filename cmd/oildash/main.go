package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"OilDashboard/internal/calculator"
	"OilDashboard/internal/collector"
	"OilDashboard/internal/config"
	"OilDashboard/internal/dashboard"
	"OilDashboard/internal/logger"
	"OilDashboard/internal/model"
	"OilDashboard/internal/recorder"
	"OilDashboard/internal/render"
	"OilDashboard/internal/scheduler"
)

const (
	shutdownTimeout = 10 * time.Second
	recentLoads     = 5
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config file",
		Value:   "configs/config.yaml",
		Sources: cli.EnvVars("CONFIG_PATH"),
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address, overrides server.addr",
		},
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if addr := cmd.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRecorder(cfg *config.Config, log *logger.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newStore(cfg *config.Config, rec recorder.Recorder, log *logger.Logger) *collector.Store {
	fetcher := collector.NewHTTPFetcher(cfg.Proxy, cfg.Sources.Timeout)
	col := collector.NewCollector(
		fetcher,
		collector.DefaultSources(cfg.Sources.BrentURL, cfg.Sources.WTIURL),
		collector.ParseOptions{DateColumn: cfg.Sources.DateColumn, PriceColumn: cfg.Sources.PriceColumn},
		log,
	)
	log.Info("data sources configured",
		zap.String("fetcher", fetcher.Name()),
		zap.String("brent", cfg.Sources.BrentURL),
		zap.String("wti", cfg.Sources.WTIURL),
	)
	return collector.NewStore(col, rec, log)
}

func pageConfig(cfg *config.Config) dashboard.PageConfig {
	return dashboard.PageConfig{
		Title:   cfg.Page.Title,
		Heading: cfg.Page.Heading,
		Layout:  cfg.Page.Layout,
		Style: dashboard.PageStyle{
			Background:        cfg.Page.Style.Background,
			SidebarBackground: cfg.Page.Style.SidebarBackground,
			SidebarText:       cfg.Page.Style.SidebarText,
			Text:              cfg.Page.Style.Text,
		},
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	appLog, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = appLog.Sync() }()
	appLog.Info("oil price dashboard starting")

	rec := newRecorder(cfg, appLog)
	defer rec.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newStore(cfg, rec, appLog)
	if cfg.Sources.WarmOnStart {
		// A failed warm-up is retried by the first request.
		if err := store.Warm(ctx); err != nil {
			appLog.Warn("warm-up load failed", zap.Error(err))
		}
	}

	sched := scheduler.NewScheduler(ctx, store, appLog)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	handler := dashboard.NewHandler(store, rec, pageConfig(cfg),
		render.Options{Width: cfg.Charts.Width, Height: cfg.Charts.Height}, appLog)
	srv := dashboard.NewServer(cfg.Server.Addr, dashboard.NewRouter(handler), dashboard.ServerOptions{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, appLog)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		appLog.Info("shutdown signal received, stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("oil price dashboard stopped")
	return nil
}

func summaryAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	appLog, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = appLog.Sync() }()

	rec := newRecorder(cfg, appLog)
	defer rec.Close()

	table, err := newStore(cfg, rec, appLog).Get(ctx)
	if err != nil {
		return err
	}

	for _, s := range model.AllSeries {
		rows := calculator.FilterSeries(table, s)
		lo, hi, ok := calculator.DateBounds(rows)
		if !ok {
			fmt.Printf("%-5s  no rows\n", s)
			continue
		}
		fmt.Printf("%-5s  %s rows  %s .. %s\n", s, humanize.Comma(int64(len(rows))),
			lo.Format(model.DateLayout), hi.Format(model.DateLayout))
	}
	fmt.Printf("total  %s rows\n", humanize.Comma(int64(len(table))))

	events, err := rec.RecentLoads(recentLoads)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		fmt.Println("\nrecent loads:")
	}
	for _, evt := range events {
		outcome := fmt.Sprintf("%s Brent, %s WTI", humanize.Comma(int64(evt.BrentRows)), humanize.Comma(int64(evt.WTIRows)))
		if !evt.Succeeded() {
			outcome = "failed: " + evt.Error
		}
		fmt.Printf("  %-14s %-9s %6dms  %s\n", humanize.Time(evt.StartedAt), evt.Trigger, evt.Duration.Milliseconds(), outcome)
	}
	return nil
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	out, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "oildash",
		Usage:  "Serve the Brent and WTI oil price dashboard",
		Flags:  serveFlags(),
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the dashboard HTTP server",
				Flags:  serveFlags(),
				Action: serveAction,
			},
			{
				Name:   "summary",
				Usage:  "Load both price files once and print row counts and date ranges",
				Flags:  []cli.Flag{configFlag()},
				Action: summaryAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON Schema of the config file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
