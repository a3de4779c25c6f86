package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/izzyreal/reportviewer/internal/config"
	"github.com/izzyreal/reportviewer/internal/protocol"
	"github.com/izzyreal/reportviewer/internal/reportstore"
	"github.com/izzyreal/reportviewer/internal/store"
)

// Settings are the process-level inputs of Run. Anything left empty falls
// back to the config file.
type Settings struct {
	Addr       string
	ConfigPath string
	Source     string
	CacheDB    string
}

func SettingsFromEnv() Settings {
	return Settings{
		Addr:       envOrDefault("REPORTVIEWER_ADDR", ":8112"),
		ConfigPath: envOrDefault("REPORTVIEWER_CONFIG", ""),
		Source:     envOrDefault("REPORTVIEWER_SOURCE", ""),
		CacheDB:    envOrDefault("REPORTVIEWER_CACHE_DB", ""),
	}
}

type Options struct {
	Reports *reportstore.Store
	Config  config.File
	// Cache is optional; without it recent paths and cache inspection are
	// unavailable.
	Cache *store.Store
}

type Server struct {
	reports      *reportstore.Store
	loader       filteredLoader
	counterparts map[string]string
	source       string
	cache        cacheStore
}

func New(opts Options) *Server {
	s := &Server{
		reports:      opts.Reports,
		loader:       filteredLoader{Store: opts.Reports, filter: opts.Config.Filter()},
		counterparts: opts.Config.Counterparts,
		source:       opts.Config.Source,
	}
	if opts.Cache != nil {
		s.cache = opts.Cache
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return buildRouter(s)
}

func Run(ctx context.Context, settings Settings) error {
	cfg, err := resolveConfig(settings)
	if err != nil {
		return err
	}

	fetcher, err := reportstore.NewFetcher(cfg.Source, &http.Client{})
	if err != nil {
		return fmt.Errorf("create report fetcher: %w", err)
	}
	var (
		storeOpts []reportstore.Option
		cache     *store.Store
	)
	if cfg.CacheDB != "" {
		cache, err = store.Open(cfg.CacheDB)
		if err != nil {
			return err
		}
		defer cache.Close()
		storeOpts = append(storeOpts, reportstore.WithDocumentCache(cache))
	}

	s := New(Options{Reports: reportstore.New(fetcher, storeOpts...), Config: cfg, Cache: cache})
	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ad, ok := s.advertisement(ctx, settings.Addr); ok {
		stopMDNS := startMDNSAdvertiser(ad)
		defer stopMDNS()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("reportviewer server started", "addr", settings.Addr, "source", cfg.Source, "cache_db", cfg.CacheDB)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen and serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		slog.Info("reportviewer server stopped")
		return nil
	case err := <-errCh:
		if err != nil {
			return err
		}
		slog.Info("reportviewer server stopped")
		return nil
	}
}

func resolveConfig(settings Settings) (config.File, error) {
	cfg := config.Default()
	if path := strings.TrimSpace(settings.ConfigPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(settings.Source); v != "" {
		cfg.Source = v
	}
	if v := strings.TrimSpace(settings.CacheDB); v != "" {
		cfg.CacheDB = v
	}
	if errs := cfg.ValidateSource(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// filteredLoader hides versions excluded by the config from everything that
// navigates the tree.
type filteredLoader struct {
	*reportstore.Store
	filter config.Filter
}

func (l filteredLoader) Manifest(ctx context.Context) (protocol.Manifest, error) {
	m, err := l.Store.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	return l.filter.Apply(m), nil
}
