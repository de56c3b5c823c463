package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/lukman83/pkdeals/config"
	"github.com/lukman83/pkdeals/internal/cache"
	"github.com/lukman83/pkdeals/internal/events"
	"github.com/lukman83/pkdeals/internal/httputil"
	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/pipeline"
	"github.com/lukman83/pkdeals/internal/platform"
	"github.com/lukman83/pkdeals/internal/reviews"
	"github.com/lukman83/pkdeals/internal/shopify"
	"github.com/lukman83/pkdeals/internal/stealth"
	"github.com/lukman83/pkdeals/internal/storage"
	"github.com/lukman83/pkdeals/mcp"
)

// app holds the long-lived services shared by the crawl and serve commands.
type app struct {
	catalog   *config.Catalog
	store     storage.Store
	cache     cache.Cache
	publisher *events.Publisher
	registry  *platform.Registry
	reviews   *reviews.Fetcher
}

func newApp(ctx context.Context) (*app, error) {
	catalog, err := config.LoadCatalog(cfg.BrandsFile)
	if err != nil {
		return nil, err
	}

	client, err := buildHTTPClient()
	if err != nil {
		return nil, err
	}
	retry := httputil.RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryDelay}

	a := &app{catalog: catalog, registry: platform.NewRegistry()}
	a.registry.Register("shopify", shopify.NewCrawler(client, retry))

	if a.store, err = openStore(ctx); err != nil {
		return nil, err
	}
	if a.cache, err = openCache(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.reviews = reviews.NewFetcher(client, retry, a.cache, cfg.CacheTTL)

	if cfg.EventsEnabled() {
		if a.publisher, err = events.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// crawl runs one ingestion pass; it matches mcp.CrawlFunc.
func (a *app) crawl(ctx context.Context, brands []models.Brand, onStored func(*models.Product)) (pipeline.Stats, error) {
	opts := pipeline.Options{
		Registry:      a.registry,
		Reviews:       a.reviews,
		Store:         a.store,
		MaxConcurrent: cfg.MaxConcurrent,
		ReviewWorkers: cfg.ReviewWorkers,
		OnStored:      onStored,
	}
	if a.publisher != nil {
		opts.Publisher = a.publisher
	}
	return pipeline.NewRunner(opts).Run(ctx, brands)
}

func (a *app) mcpDeps() mcp.Deps {
	return mcp.Deps{Catalog: a.catalog, Store: a.store, Crawl: a.crawl}
}

func (a *app) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.Close(ctx); err != nil {
			slog.Warn("closing store", "error", err)
		}
	}
}

func openStore(ctx context.Context) (storage.Store, error) {
	switch cfg.StoreType {
	case "mongodb", "mongo":
		s, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres store needs PKDEALS_POSTGRES_DSN")
		}
		s, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want mongodb, sqlite or postgres)", cfg.StoreType)
	}
}

func openCache(ctx context.Context) (cache.Cache, error) {
	switch cfg.CacheType {
	case "memory", "":
		return cache.NewMemoryCache(), nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "none":
		return cache.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache %q (want memory, redis or none)", cfg.CacheType)
	}
}

// buildHTTPClient creates the stealth-wrapped HTTP client from config.
func buildHTTPClient() (*http.Client, error) {
	fpPool := stealth.NewFingerprintPool(cfg.UserAgent)
	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)

	baseTransport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	var proxyRotator *stealth.ProxyRotator
	if cfg.ProxyFile != "" {
		providers, err := stealth.LoadProxyFile(cfg.ProxyFile)
		if err != nil {
			return nil, err
		}
		proxyRotator = stealth.NewProxyRotator(providers)
	}

	robots := stealth.NewRobotsChecker(httputil.NewHTTPClient(nil), cfg.RespectRobots)

	transport := &stealth.StealthTransport{
		Base:        baseTransport,
		Robots:      robots,
		Fingerprint: fpPool,
		Proxy:       proxyRotator,
		Delay:       delay,
		RateLimiter: limiter,
		InFlight:    semaphore.NewWeighted(cfg.MaxInFlight),
	}
	return httputil.NewHTTPClient(transport), nil
}
