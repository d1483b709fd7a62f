package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vitor-labes/catalogue-scraper/internal/cache"
	"github.com/vitor-labes/catalogue-scraper/internal/config"
	"github.com/vitor-labes/catalogue-scraper/internal/crawler"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
	"github.com/vitor-labes/catalogue-scraper/internal/export"
	"github.com/vitor-labes/catalogue-scraper/internal/job"
	"github.com/vitor-labes/catalogue-scraper/internal/queue"
	"github.com/vitor-labes/catalogue-scraper/internal/repository"
	"github.com/vitor-labes/catalogue-scraper/internal/scraper"
)

// App owns the long-lived collaborators built from a Config.
type App struct {
	Runner  *job.Runner
	closers []io.Closer
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	store, err := a.newStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	sinks, err := a.newSinks(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	notifiers, err := a.newNotifiers(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	changes := cache.NewChangeCache(store, cfg.Cache.TTL)
	c := crawler.New(cfg, changes, FetcherFactory(cfg))
	a.Runner = job.NewRunner(c, sinks, notifiers)

	return a, nil
}

// FetcherFactory picks the browser or plain HTTP fetcher per crawl so the
// crawl's proxy setting is honoured.
func FetcherFactory(cfg *config.Config) crawler.FetcherFactory {
	return func(settings domain.CrawlSettings) (scraper.PageFetcher, error) {
		proxy := settings.Proxy
		if proxy == "" {
			proxy = cfg.Proxy
		}
		if cfg.Browser {
			return scraper.NewBrowserFetcher(cfg, proxy)
		}
		return scraper.NewHTTPFetcher(cfg, proxy)
	}
}

func (a *App) newStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		slog.Warn("using in-memory change cache, prices are forgotten on restart")
		return cache.NewMemoryStore(), nil
	case config.CacheBackendRedis:
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func (a *App) newSinks(ctx context.Context, cfg *config.Config) (job.Sinks, error) {
	var sinks job.Sinks
	for _, name := range cfg.Sinks {
		switch name {
		case "json":
			sinks = append(sinks, export.NewJSONSink(cfg.OutputFile))
		case "csv":
			sinks = append(sinks, export.NewCSVSink(cfg.ExportDir))
		case "postgres":
			repo, err := repository.NewProductRepository(cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, repo)
			sinks = append(sinks, repository.PostgresSink{Repo: repo})
		case "mongo":
			repo, err := repository.NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, repo)
			sinks = append(sinks, repo)
		case "queue":
			pub, err := queue.NewPublisher(cfg.RabbitMQURL, cfg.QueueName)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, pub)
			sinks = append(sinks, pub)
		default:
			return nil, fmt.Errorf("unknown sink %q", name)
		}
	}
	return sinks, nil
}

func (a *App) newNotifiers(cfg *config.Config) (job.Notifiers, error) {
	var notifiers job.Notifiers
	for _, name := range cfg.Notifiers {
		switch name {
		case "log":
			notifiers = append(notifiers, job.LogNotifier{})
		case "queue":
			pub, err := queue.NewPublisher(cfg.RabbitMQURL, cfg.NotificationQueue)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, pub)
			notifiers = append(notifiers, pub)
		default:
			return nil, fmt.Errorf("unknown notifier %q", name)
		}
	}
	return notifiers, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
