package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"folio.dev/internal/handlers"
	"folio.dev/internal/metrics"
	"folio.dev/internal/services"
	"folio.dev/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portfolio web server",
		Long: `Run the portfolio web server.

The content documents are loaded once at startup. With --watch they are
reloaded whenever they change on disk and open pages refresh themselves.
With --probe every image is checked through the retry and fallback policy
after each load, so pages render the image that will actually work.

Examples:
  portfolio serve
  portfolio serve --addr :3000 --watch
  PORTFOLIO_IMAGES_PROBE=true portfolio serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().Bool("watch", false, "Reload content when the data files change")
	cmd.Flags().Bool("probe", false, "Resolve every image after each content load")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	m := metrics.New()
	content := a.newContent(m)
	images := a.newImages(m)

	manager := a.newTheme()
	if _, err := manager.Init(); err != nil {
		a.logger.Warn("Theme preference unreadable, using default", zap.Error(err))
	}

	snap, err := content.Reload(ctx)
	if err != nil {
		return errors.Wrap(err, "initial content load")
	}
	if snap.Error != "" {
		a.logger.Warn(snap.Error)
	}

	hub := handlers.NewLiveHub(a.logger)
	router := handlers.SetupRoutes(handlers.Deps{
		Config:   cfg,
		Content:  content,
		Projects: services.NewProjectService(content),
		Images:   images,
		Theme:    manager,
		Hub:      hub,
		Metrics:  m,
		Logger:   a.logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	// subscribe before the first probe so no snapshot is missed
	hubSnaps, cancelHubSnaps := content.Subscribe()
	themes, cancelThemes := manager.Subscribe()
	g.Go(func() error {
		defer cancelHubSnaps()
		defer cancelThemes()
		hub.Run(gctx, hubSnaps, themes)
		return nil
	})

	if cfg.Images.Probe {
		probeSnaps, cancelProbeSnaps := content.Subscribe()
		g.Go(func() error {
			defer cancelProbeSnaps()
			return probeLoop(gctx, images, snap, probeSnaps, a.logger)
		})
	}

	if cfg.Data.Watch {
		w := watcher.New(content.Paths(), cfg.Data.Debounce, func(ctx context.Context) error {
			_, err := content.Reload(ctx)
			return err
		}, a.logger)
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		a.logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("base_path", cfg.Server.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server exited")
	return nil
}

// probeLoop resolves the images of first and of every later snapshot
func probeLoop(ctx context.Context, images *services.ImageService, first *services.Snapshot, snaps <-chan *services.Snapshot, logger *zap.Logger) error {
	resolve := func(snap *services.Snapshot) {
		if _, err := images.ResolveSnapshot(ctx, snap); err != nil && ctx.Err() == nil {
			logger.Warn("Image probe failed", zap.Error(err))
		}
	}
	resolve(first)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			resolve(snap)
		}
	}
}
