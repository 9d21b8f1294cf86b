// Package host assembles the widget host: persistence, cache, the
// permission subsystem, the runtime, the registry, and telemetry. The
// shell embeds a Host, registers its widget types, and calls Start.
package host

import (
	"context"
	"fmt"

	"github.com/perchdesk/perch/internal/domain/cache"
	"github.com/perchdesk/perch/internal/domain/permission"
	"github.com/perchdesk/perch/internal/domain/registry"
	"github.com/perchdesk/perch/internal/domain/runtime"
	"github.com/perchdesk/perch/internal/infrastructure/config"
	"github.com/perchdesk/perch/internal/infrastructure/monitoring"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/providers/telemetry"
	"github.com/perchdesk/perch/internal/shared/paths"
	"github.com/perchdesk/perch/internal/shared/types"
	"github.com/perchdesk/perch/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Options carries the shell-supplied collaborators. All fields are
// optional: without a prompter every permission request degrades to
// denied, without a gate the UI prompt is the only consent stage, and
// without a gpu sampler the GPU field of telemetry samples stays zero.
type Options struct {
	Prompter permission.Prompter
	Gate     permission.Gate
	GPU      telemetry.GPUSampler
}

// Host wires the subsystems together and owns their lifecycles.
type Host struct {
	Accessor    *cache.Accessor
	Runtime     *runtime.Manager
	Registry    *registry.Manager
	Permissions *permission.Manager
	Watcher     *telemetry.Watcher

	// MetricsRegistry is the host-private Prometheus registry; the shell
	// mounts it on its metrics endpoint if it serves one.
	MetricsRegistry *prometheus.Registry

	cfg        *config.Config
	log        *logging.Logger
	metrics    *monitoring.Metrics
	settings   storage.Settings
	closeCache func() error
}

// New assembles a host from configuration. Nothing runs until Start.
func New(cfg *config.Config, opts Options, log *logging.Logger) (*Host, error) {
	if log == nil {
		log = logging.NewNop()
	}

	settings, err := openSettings(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	cacheStore, closeCache, err := openCacheStore(context.Background(), cfg)
	if err != nil {
		settings.Close()
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	// Each host carries a private metrics registry so a restart (or a
	// second host in one process) never collides on collector names.
	metricsReg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(metricsReg)
	accessor := cache.NewAccessor(cacheStore, log.Named("cache")).WithMetrics(metrics)

	rt := runtime.NewManager(nil, log.Named("runtime")).WithMetrics(metrics)
	reg := registry.NewManager(settings, rt, log.Named("registry"))
	rt.WithPinStore(reg)

	perms := permission.NewManager(
		permission.NewStore(settings),
		reg,
		opts.Prompter,
		opts.Gate,
		log.Named("permission"),
	).WithMetrics(metrics)

	watcher := telemetry.NewWatcher(
		telemetry.NewSystemSampler(opts.GPU),
		cfg.Telemetry.Interval,
		cfg.Telemetry.HistorySize,
		log.Named("telemetry"),
	).WithMetrics(metrics)

	return &Host{
		Accessor:        accessor,
		Runtime:         rt,
		Registry:        reg,
		Permissions:     perms,
		Watcher:         watcher,
		MetricsRegistry: metricsReg,
		cfg:             cfg,
		log:             log,
		metrics:         metrics,
		settings:        settings,
		closeCache:      closeCache,
	}, nil
}

// RegisterType adds a widget type. Must be called before Start.
func (h *Host) RegisterType(desc *types.TypeDescriptor) error {
	return h.Registry.Register(desc)
}

// Start seeds the catalog, runs discovery (auto-activating pinned
// widgets), and launches the telemetry watcher.
func (h *Host) Start(ctx context.Context) error {
	seeder := registry.NewSeeder(h.Registry, h.cfg.Catalog.Dir, h.log.Named("catalog"))
	if err := seeder.SeedCatalog(); err != nil {
		return fmt.Errorf("failed to seed widget catalog: %w", err)
	}

	discovered := h.Registry.Discover(ctx)
	h.log.Info("widget discovery complete", zap.Int("widgets", len(discovered)))

	h.Watcher.Start()
	return nil
}

// Close tears the host down in reverse order: telemetry first, then the
// live widget table, then the stores. Errors are collected, not
// short-circuited; every layer gets its shutdown.
func (h *Host) Close() error {
	h.Watcher.Stop()
	h.Runtime.Shutdown()

	var firstErr error
	if err := h.closeCache(); err != nil {
		firstErr = fmt.Errorf("failed to close cache store: %w", err)
	}
	if err := h.settings.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close settings store: %w", err)
	}
	return firstErr
}

// openSettings picks the settings backend from configuration.
func openSettings(cfg *config.Config) (storage.Settings, error) {
	layout := paths.NewLayout(cfg.Storage.DataDir)
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.OpenSQLiteSettings(layout.SettingsDB())
	case "file":
		return storage.OpenFileSettings(layout.SettingsFile())
	default:
		return nil, fmt.Errorf("unknown settings backend: %q", cfg.Storage.Backend)
	}
}

// openCacheStore picks the cache backend from configuration.
func openCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, func() error, error) {
	switch cfg.Cache.Backend {
	case "redis":
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Address:  cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "file":
		blobs, err := storage.NewFileBlobs(paths.NewLayout(cfg.Storage.DataDir).CacheDir())
		if err != nil {
			return nil, nil, err
		}
		return cache.NewFileStore(blobs), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
	}
}
