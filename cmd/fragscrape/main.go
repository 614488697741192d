package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/belleparfumerie/fragscrape/internal/browser"
	"github.com/belleparfumerie/fragscrape/internal/catalog"
	"github.com/belleparfumerie/fragscrape/internal/cloudinary"
	"github.com/belleparfumerie/fragscrape/internal/config"
	"github.com/belleparfumerie/fragscrape/internal/ledger"
	"github.com/belleparfumerie/fragscrape/internal/navigate"
	"github.com/belleparfumerie/fragscrape/internal/observability"
	"github.com/belleparfumerie/fragscrape/internal/publish"
	"github.com/belleparfumerie/fragscrape/internal/scrape"
	"github.com/belleparfumerie/fragscrape/internal/store"
	"github.com/belleparfumerie/fragscrape/internal/transport"
)

var (
	cfgFile string
	verbose bool

	dryRun       bool
	skipExisting bool
	headed       bool
	limit        int
	skipUploaded bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fragscrape",
		Short: "Fragrance catalog image pipeline",
		Long: `fragscrape fills in missing product images for the perfume catalog.

Two passes:
  scrape   search the fragrance site per catalog item and download images
  upload   publish downloaded images to Cloudinary and patch the database

Both passes keep a JSON ledger next to their output, so interrupted runs
resume where they stopped.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Search the site per catalog item and download images",
		RunE:  runScrape,
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the queries without launching a browser")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip items already downloaded with an ok result")
	cmd.Flags().BoolVar(&headed, "headed", false, "show the browser window")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "process only the first N items (0 = all)")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if headed {
		cfg.Scrape.Headed = true
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, stop := signalContext(logger)
	defer stop()

	metrics := startMetrics(cfg, logger)

	items, source, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "source", source, "items", len(items))

	results, err := ledger.Open[ledger.ScrapeOutcome](cfg.Scrape.ResultsPath)
	if err != nil {
		return err
	}

	var finder scrape.ImageFinder
	if !dryRun {
		session, err := browser.NewSession(browser.Config{
			Headed:    cfg.Scrape.Headed,
			UserAgent: cfg.Site.UserAgent,
			DebugDir:  cfg.Scrape.DebugDir,
		}, logger)
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		defer session.Close()

		finder = navigate.New(session, navigate.Config{
			HomeURL:             cfg.Site.HomeURL,
			CookieSelectors:     cfg.Site.CookieSelectors,
			SearchBarSelector:   cfg.Site.SearchBarSelector,
			ModalInputSelectors: cfg.Site.ModalInputSelectors,
			MinInputWidth:       cfg.Site.MinInputWidth,
			ResultHeading:       cfg.Site.ResultHeading,
			ImageSelectors:      cfg.Site.ImageSelectors,
			AssetHosts:          cfg.Site.AssetHosts,
			MinImageWidth:       cfg.Site.MinImageWidth,
			HomeTimeout:         cfg.Scrape.HomeTimeout,
			NavTimeout:          cfg.Scrape.NavTimeout,
			SelectAttempts:      cfg.Scrape.SelectAttempts,
			SelectRetryDelay:    cfg.Scrape.SelectRetryDelay,
			TypeDelayMin:        cfg.Scrape.TypeDelayMin,
			TypeDelayMax:        cfg.Scrape.TypeDelayMax,
			SettleDelayMin:      cfg.Scrape.SettleDelayMin,
			SettleDelayMax:      cfg.Scrape.SettleDelayMax,
		}, logger)
	}

	downloader := transport.NewClient(logger, transport.WithUserAgent(cfg.Site.UserAgent))

	runner := scrape.New(finder, downloader, results, scrape.Config{
		ImagesDir:    cfg.Scrape.ImagesDir,
		ItemDelayMin: cfg.Scrape.ItemDelayMin,
		ItemDelayMax: cfg.Scrape.ItemDelayMax,
	}, logger, metrics)

	start := time.Now()
	sum, err := runner.Run(ctx, items, scrape.Options{
		DryRun:       dryRun,
		SkipExisting: skipExisting,
		Limit:        limit,
	})
	if err != nil {
		return fmt.Errorf("scrape run: %w", err)
	}

	fmt.Printf("\nScrape complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Success:  %d\n", sum.Success)
	fmt.Printf("   Failed:   %d\n", sum.Failed)
	fmt.Printf("   Skipped:  %d\n", sum.Skipped)
	fmt.Printf("   Results:  %s\n", results.Path())
	return nil
}

// uploadCmd creates the "upload" subcommand.
func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Publish downloaded images to Cloudinary and patch the database",
		RunE:  runUpload,
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be uploaded without contacting anything")
	cmd.Flags().BoolVar(&skipUploaded, "skip-uploaded", false, "skip items that already have a hosted URL")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "process only the first N eligible items (0 = all)")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !dryRun {
		if err := config.ValidateUpload(cfg); err != nil {
			return err
		}
	}

	logger := setupLogger(cfg)
	ctx, stop := signalContext(logger)
	defer stop()

	metrics := startMetrics(cfg, logger)

	results, err := ledger.Open[ledger.ScrapeOutcome](cfg.Scrape.ResultsPath)
	if err != nil {
		return err
	}
	if results.Len() == 0 {
		return fmt.Errorf("no scrape results at %s; run scrape first", cfg.Scrape.ResultsPath)
	}
	uploads, err := ledger.Open[ledger.UploadOutcome](cfg.Upload.LogPath)
	if err != nil {
		return err
	}

	var st store.Store
	if !dryRun {
		var disconnect func()
		st, disconnect, err = openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer disconnect()
		logger.Info("store ready", "backend", st.Name())
	}

	uploader := cloudinary.NewClient(cloudinary.Config{
		CloudName:    cfg.Upload.CloudName,
		UploadPreset: cfg.Upload.UploadPreset,
		Folder:       cfg.Upload.Folder,
	})

	runner := publish.New(uploader, st, results, uploads, publish.Config{
		ImagesDir:    cfg.Scrape.ImagesDir,
		ItemDelayMin: cfg.Upload.ItemDelayMin,
		ItemDelayMax: cfg.Upload.ItemDelayMax,
	}, logger, metrics)

	start := time.Now()
	sum, err := runner.Run(ctx, publish.Options{
		DryRun:       dryRun,
		SkipUploaded: skipUploaded,
		Limit:        limit,
	})
	if err != nil {
		return fmt.Errorf("upload run: %w", err)
	}

	fmt.Printf("\nUpload complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Success:  %d\n", sum.Success)
	fmt.Printf("   Failed:   %d\n", sum.Failed)
	fmt.Printf("   Skipped:  %d\n", sum.Skipped)
	fmt.Printf("   Log:      %s\n", uploads.Path())
	return nil
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Site:\n")
			fmt.Printf("  Home URL:         %s\n", cfg.Site.HomeURL)
			fmt.Printf("  Result Heading:   %s\n", cfg.Site.ResultHeading)
			fmt.Printf("  Image Selectors:  %d configured\n", len(cfg.Site.ImageSelectors))
			fmt.Printf("\nScrape:\n")
			fmt.Printf("  Images Dir:       %s\n", cfg.Scrape.ImagesDir)
			fmt.Printf("  Results Path:     %s\n", cfg.Scrape.ResultsPath)
			fmt.Printf("  Debug Dir:        %s\n", cfg.Scrape.DebugDir)
			fmt.Printf("  Item Delay:       %s - %s\n", cfg.Scrape.ItemDelayMin, cfg.Scrape.ItemDelayMax)
			fmt.Printf("\nUpload:\n")
			fmt.Printf("  Cloud Name:       %s\n", orUnset(cfg.Upload.CloudName))
			fmt.Printf("  Upload Preset:    %s\n", orUnset(cfg.Upload.UploadPreset))
			fmt.Printf("  Folder:           %s\n", cfg.Upload.Folder)
			fmt.Printf("  Log Path:         %s\n", cfg.Upload.LogPath)
			fmt.Printf("\nCatalog:\n")
			fmt.Printf("  Source:           %s\n", cfg.Catalog.Source)
			fmt.Printf("  File Path:        %s\n", cfg.Catalog.FilePath)
			fmt.Printf("  Firebase URL:     %s\n", orUnset(cfg.Firebase.DatabaseURL))
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:             %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fragscrape %s\n", config.Version)
		},
	}
}

// loadCatalog resolves the configured catalog source and reads it. With
// source=auto, Firebase is preferred when configured and the local file is the
// fallback, so the tool works offline against a checked-out catalog dump.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]catalog.Item, string, error) {
	newFirebase := func() catalog.Source {
		return catalog.NewFirebaseSource(cfg.Firebase.DatabaseURL, cfg.Firebase.AuthToken, logger)
	}

	switch cfg.Catalog.Source {
	case "firebase":
		src := newFirebase()
		items, err := src.Items(ctx)
		return items, src.Name(), err

	case "file":
		src := catalog.NewFileSource(cfg.Catalog.FilePath)
		items, err := src.Items(ctx)
		return items, src.Name(), err

	case "mongo":
		coll, disconnect, err := mongoCollection(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		defer disconnect()
		src := catalog.NewMongoSource(coll)
		items, err := src.Items(ctx)
		return items, src.Name(), err

	default: // auto
		if cfg.Firebase.DatabaseURL != "" {
			src := newFirebase()
			items, err := src.Items(ctx)
			if err == nil {
				return items, src.Name(), nil
			}
			logger.Warn("firebase catalog unavailable, falling back to file", "error", err)
		}
		src := catalog.NewFileSource(cfg.Catalog.FilePath)
		items, err := src.Items(ctx)
		return items, src.Name(), err
	}
}

// openStore resolves the database the publish pass patches. The returned
// cleanup releases the backing connection and is always non-nil.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Catalog.Source == "mongo" {
		coll, disconnect, err := mongoCollection(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMongoStore(coll), disconnect, nil
	}
	return store.NewFirebaseStore(cfg.Firebase.DatabaseURL, cfg.Firebase.AuthToken), func() {}, nil
}

func mongoCollection(ctx context.Context, cfg *config.Config) (*mongo.Collection, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, mongoopts.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	disconnect := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			fmt.Fprintf(os.Stderr, "mongo disconnect: %v\n", err)
		}
	}
	return client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection), disconnect, nil
}

// startMetrics starts the Prometheus endpoint when enabled. Returns nil when
// disabled; the orchestrators treat a nil Metrics as off.
func startMetrics(cfg *config.Config, logger *slog.Logger) *observability.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	m := observability.New()
	m.StartServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
	return m
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. The in-flight
// item finishes and its ledger entry lands before the loop observes the
// cancellation.
func signalContext(logger *slog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	return ctx, cancel
}

// setupLogger creates a structured logger per the logging config. The
// --verbose flag forces debug level.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
