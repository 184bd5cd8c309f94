package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/nossahistoria/romantic/api"
	"github.com/nossahistoria/romantic/auth"
	"github.com/nossahistoria/romantic/config"
	"github.com/nossahistoria/romantic/content"
	"github.com/nossahistoria/romantic/media"
	"github.com/nossahistoria/romantic/storage"
	bboltstorage "github.com/nossahistoria/romantic/storage/bbolt"
	"github.com/nossahistoria/romantic/storage/cached"
	"github.com/nossahistoria/romantic/storage/memory"
	pgstorage "github.com/nossahistoria/romantic/storage/postgres"
)

var (
	port    int
	backend string
	dataDir string
	appEnv  string
	tlsCert string
	tlsKey  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the site backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		server := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			var err error
			if tlsCert != "" && tlsKey != "" {
				err = server.ListenAndServeTLS(tlsCert, tlsKey)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		logger.Info("server started",
			"addr", cfg.Addr(),
			"env", cfg.Env,
			"backend", cfg.Backend(),
			"mock", cfg.Mock(),
			"remote_uploads", cfg.RemoteUploads(),
			"secure_cookies", cfg.Secure(),
		)

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")
	serverCmd.Flags().StringVar(&backend, "backend", "", "Storage backend: memory, bbolt or postgres (overrides STORAGE_BACKEND)")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for the bbolt database (overrides DATA_DIR)")
	serverCmd.Flags().StringVar(&appEnv, "env", "", "Application environment (overrides APP_ENV)")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}

// loadConfig reads .env and the environment, then applies explicit flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("backend") {
		cfg.StorageBackend = backend
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("env") {
		cfg.Env = appEnv
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// app is the wired backend: storage, content, uploads and the guard.
type app struct {
	cfg      config.Config
	api      *api.API
	cache    *cached.Repository
	disk     *media.DiskStore
	imageCSP string
	closers  []func()
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg}

	repo, err := a.openRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = cached.New(repo, cfg.CacheTTL)
	a.cache.Start()
	a.closers = append(a.closers, a.cache.Stop)

	svc := content.NewService(a.cache, content.WithLogger(logger))
	if cfg.Mock() {
		if _, err := svc.Seed(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	var store media.Store
	if cfg.RemoteUploads() {
		store = media.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.StorageBucket)
		a.imageCSP = cfg.SupabaseURL
	} else {
		a.disk = media.NewDiskStore(cfg.UploadDir)
		store = a.disk
	}
	uploader := media.NewUploader(store, cfg.MaxUploadMB, media.WithLogger(logger))

	guard, err := auth.NewGuard(auth.Config{
		Password: cfg.AdminPassword,
		Secure:   cfg.Secure(),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []api.Option{api.WithLogger(logger)}
	if cfg.AlertWebhookURL != "" {
		wh := api.NewAlertWebhook(cfg.AlertWebhookURL, cfg.AlertWebhookAuth)
		a.closers = append(a.closers, wh.Close)
		opts = append(opts, api.WithAlertFunc(wh.Notify))
	}
	a.api = api.New(guard, svc, uploader, opts...)
	return a, nil
}

func (a *app) openRepository(ctx context.Context) (storage.Repository, error) {
	switch a.cfg.Backend() {
	case config.BackendBBolt:
		if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		repo, err := bboltstorage.NewRepositoryFromFile(filepath.Join(a.cfg.DataDir, "romantic.db"), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open bbolt storage: %w", err)
		}
		a.closers = append(a.closers, func() { repo.Close() })
		return repo, nil
	case config.BackendPostgres:
		repo, err := pgstorage.NewRepositoryFromDSN(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		return memory.NewRepository(), nil
	}
}

// Handler builds the root router.
func (a *app) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.SecurityHeaders(a.imageCSP))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", a.api.MetricsHandler())
	r.Mount("/api/v1", a.api.Router())

	if a.disk != nil {
		fs := http.StripPrefix(media.DefaultURLPrefix, http.FileServer(http.Dir(a.disk.Root())))
		r.Handle(media.DefaultURLPrefix+"*", fs)
	}
	return r
}

// Close releases storage in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
