package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitor-labes/catalogue-scraper/internal/app"
	"github.com/vitor-labes/catalogue-scraper/internal/config"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
	"github.com/vitor-labes/catalogue-scraper/internal/job"
	"github.com/vitor-labes/catalogue-scraper/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	configFile string
	baseURL    string
	maxPages   int
	proxy      string
	browser    bool
	sinks      []string
	metrics    bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "scraper [base-url]",
		Short: "Crawl a paginated catalogue and keep products whose price changed",
		Example: `  # Crawl the first three pages
  scraper -m 3 https://shop.example.com/catalogue

  # Render pages in a browser and store in PostgreSQL too
  scraper --browser --sinks json,postgres https://shop.example.com/catalogue`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.baseURL = args[0]
			}
			return run(c, f)
		},
	}

	cmd.Flags().StringVarP(&f.configFile, "config", "c", os.Getenv("CONFIG_FILE"), "YAML config file")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Catalogue listing URL (or BASE_URL)")
	cmd.Flags().IntVarP(&f.maxPages, "max-pages", "m", 0, "Max pages to crawl (0 = up to the hard page limit)")
	cmd.Flags().StringVar(&f.proxy, "proxy", "", "Proxy URL for page requests")
	cmd.Flags().BoolVar(&f.browser, "browser", false, "Render pages with headless Chromium")
	cmd.Flags().StringSliceVar(&f.sinks, "sinks", nil, "Sinks to save accepted products to (json,csv,postgres,mongo,queue)")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "Serve Prometheus metrics while crawling")

	return cmd
}

func run(c *cobra.Command, f *flags) error {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return err
	}

	flagSet := c.Flags()
	if flagSet.Changed("base-url") || f.baseURL != "" {
		cfg.BaseURL = f.baseURL
	}
	if flagSet.Changed("max-pages") {
		cfg.MaxPages = f.maxPages
	}
	if flagSet.Changed("proxy") {
		cfg.Proxy = f.proxy
	}
	if flagSet.Changed("browser") {
		cfg.Browser = f.browser
	}
	if flagSet.Changed("sinks") {
		cfg.Sinks = f.sinks
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if f.metrics {
		go func() {
			slog.Info("starting metrics server", "addr", cfg.MetricsAddr)
			if err := metrics.StartMetricsServer(cfg.MetricsAddr); err != nil {
				log.Fatalf("failed to start metrics server: %v", err)
			}
		}()
	}

	ctx := c.Context()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return err
	}
	defer a.Close()

	resp, err := a.Runner.Run(ctx, job.Request{
		BaseURL: cfg.BaseURL,
		Settings: domain.CrawlSettings{
			MaxPages: cfg.MaxPages,
			Proxy:    cfg.Proxy,
		},
	})
	if err != nil {
		slog.Error("crawl failed",
			"products_scraped", resp.ProductsScraped,
			"error", err,
		)
		return err
	}

	slog.Info("crawl completed",
		"products_scraped", resp.ProductsScraped,
		"stop_reason", resp.StopReason,
	)
	return nil
}
