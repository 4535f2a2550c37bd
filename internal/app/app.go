// Package app wires configuration, storage, rendering and the refresh bus
// into a runnable catalog. The server and the admin CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"quickref/internal/auth"
	"quickref/internal/config"
	"quickref/internal/domain/repositories"
	badgerstore "quickref/internal/repository/badger"
	"quickref/internal/repository/filestore"
	"quickref/internal/repository/postgres"
	"quickref/internal/service/catalog"
	"quickref/internal/service/refresh"
	"quickref/internal/service/render"
)

// Options override collaborators that are otherwise built from Config.
type Options struct {
	// Rasterizer defaults to pdftoppm at Config.RasterizerBin.
	Rasterizer render.Rasterizer

	// Registerer receives the refresh gauge. nil skips registration.
	Registerer prometheus.Registerer
}

// App holds every long-lived component.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Store      repositories.DurableStore
	Blobs      *filestore.BlobStore
	Renders    *render.Cache
	Bus        *refresh.Bus
	Tree       *catalog.Tree
	Checklists *catalog.ChecklistBook
	Catalog    *catalog.Service
	Sessions   *auth.SessionIssuer

	files   *filestore.Store // set for the file backend; enables watching
	watcher *filestore.Watcher
	closers []func() error
}

// New builds the application. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	blobs, err := filestore.NewBlobStore(cfg.PDFDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Blobs = blobs

	rasterizer := opts.Rasterizer
	if rasterizer == nil {
		poppler := render.NewPopplerRasterizer(cfg.RasterizerBin)
		if !poppler.Available() {
			logger.Warn("rasterizer not found; uploads will fail to render", "bin", poppler.Bin)
		}
		rasterizer = poppler
	}
	a.Renders, err = render.NewCache(cfg.JPGDir, rasterizer, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Bus = refresh.NewBus(cfg.HeartbeatInterval, logger)
	if opts.Registerer != nil {
		if err := refresh.RegisterActiveSessionsGauge(opts.Registerer, a.Bus); err != nil {
			logger.Warn("refresh gauge not registered", "error", err)
		}
	}

	a.Tree = catalog.NewTree(a.Store, logger)
	a.Checklists = catalog.NewChecklistBook(a.Store, a.Bus, logger)
	a.Catalog = catalog.NewService(a.Tree, a.Blobs, a.Renders, a.Bus, cfg.Render, logger)

	a.Sessions, err = auth.NewSessionIssuer(cfg.AdminPassword, cfg.SecretKey, cfg.SessionTTL, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("catalog initialized",
		"store_backend", cfg.StoreBackend,
		"pdf_dir", cfg.PDFDir,
		"jpg_dir", cfg.JPGDir,
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.BackendFile:
		store, err := filestore.New(cfg.DataDir, a.Logger)
		if err != nil {
			return err
		}
		a.Store = store
		a.files = store

	case config.BackendBadger:
		store, err := badgerstore.Open(badgerstore.Config{
			Path:       filepath.Join(cfg.DataDir, "badger"),
			SyncWrites: true,
			Logger:     a.Logger,
		})
		if err != nil {
			return err
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)

	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		store := postgres.NewStateStore(pool, postgres.NewTableNames(cfg.TablePrefix), a.Logger)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return err
		}
		a.Store = store

	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return nil
}

// Start begins watching the data directory for edits made outside the
// process. It is a no-op unless the file backend is used with watching on.
func (a *App) Start(ctx context.Context) error {
	if a.files == nil || !a.Config.WatchDataDir {
		return nil
	}

	handler := catalog.NewStoreChangeHandler(a.Tree, a.Checklists, a.Bus, a.Logger)
	w, err := a.files.NewWatcher(handler, filestore.DefaultDebounce)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.watcher = w
	a.Logger.Info("watching data directory", "dir", a.files.Dir())
	return nil
}

// OnClose registers fn to run after every other resource has been released.
func (a *App) OnClose(fn func() error) {
	a.closers = append([]func() error{fn}, a.closers...)
}

// Close stops the watcher and releases storage.
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
