package dev

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/export"
	"github.com/vango-dev/vizsite/internal/logging"
	"github.com/vango-dev/vizsite/internal/telemetry"
)

// DevOutputDir is where the dev server writes its builds, relative to the
// project root. It keeps development builds away from the real output.
const DevOutputDir = ".vizsite/dev"

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger receives build and request logs.
	Logger *zap.Logger

	// Metrics records build metrics when set.
	Metrics *telemetry.Metrics

	// Debounce overrides the watcher debounce.
	Debounce time.Duration

	// OnBuild is called after every build attempt.
	OnBuild func(*export.Result, error)
}

// Server builds the site in development mode, serves it with live reload
// and rebuilds when sources change.
type Server struct {
	options ServerOptions
	logger  *zap.Logger
	reload  *ReloadServer
	watcher *Watcher
	output  string

	mu     sync.Mutex
	config *config.Config
}

// NewServer creates a development server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	logger := logging.OrNop(options.Logger)

	watcher := NewWatcher(WatcherConfig{
		Paths:    CollectWatchPaths(cfg),
		Ignore:   DefaultIgnore,
		Debounce: options.Debounce,
		Logger:   logger,
	})

	return &Server{
		options: options,
		logger:  logger,
		reload:  NewReloadServer(logger),
		watcher: watcher,
		output:  filepath.Join(cfg.Dir(), filepath.FromSlash(DevOutputDir)),
		config:  cfg,
	}
}

// Output returns the directory the dev server builds into.
func (s *Server) Output() string {
	return s.output
}

// Handler serves the latest development build with the live reload
// script injected.
func (s *Server) Handler() http.Handler {
	return NewSiteHandler(SiteOptions{
		Root:   os.DirFS(s.output),
		Base:   s.base(),
		Inject: ClientScript,
		Reload: s.reload,
		Logger: s.logger,
	})
}

// Start builds once, then serves on ln and rebuilds on change until ctx is
// canceled. A failing initial build is reported in the browser, not
// returned.
func (s *Server) Start(ctx context.Context, ln net.Listener) error {
	s.Rebuild(ctx)

	s.watcher.OnChange(func(changes []Change) {
		s.handleChanges(ctx, changes)
	})

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.watcher.Start(ctx)
	}()

	err := Serve(ctx, ln, s.Handler(), s.logger)

	s.watcher.Stop()
	s.reload.Close()
	if werr := <-watchErr; err == nil {
		err = werr
	}
	return err
}

// Rebuild runs a development build and notifies browsers of the outcome.
func (s *Server) Rebuild(ctx context.Context) (*export.Result, error) {
	res, err := s.build(ctx)
	if s.options.OnBuild != nil {
		s.options.OnBuild(res, err)
	}
	if err != nil {
		s.logger.Error("build failed", zap.Error(err))
		s.reload.NotifyError(errorText(err))
		return nil, err
	}
	s.logger.Info("built",
		zap.Int("pages", res.Pages),
		zap.Int("assets", res.Assets),
		zap.Duration("duration", res.Duration.Round(time.Millisecond)),
	)
	return res, nil
}

func (s *Server) build(ctx context.Context) (*export.Result, error) {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	opts, err := export.OptionsFromConfig(cfg, config.ModeDevelopment)
	if err != nil {
		return nil, err
	}
	opts.Output = s.output
	opts.Precompress = false
	opts.Logger = s.logger
	opts.Metrics = s.options.Metrics

	b, err := export.New(opts)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}

func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	for _, c := range changes {
		s.logger.Debug("changed", zap.String("path", c.Path), zap.Stringer("type", c.Type))
		if c.Type == ChangeConfig {
			s.reloadConfig()
		}
	}

	if _, err := s.Rebuild(ctx); err != nil {
		return
	}
	if needsFullReload(changes) {
		s.reload.NotifyReload()
		return
	}
	for _, c := range changes {
		s.reload.NotifyCSS(filepath.Base(c.Path))
	}
}

func (s *Server) reloadConfig() {
	s.mu.Lock()
	path := s.config.Path()
	s.mu.Unlock()

	cfg, err := config.LoadFile(path)
	if err != nil {
		s.logger.Warn("keeping previous config", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

// base is the development base path. It is fixed for the life of the
// server since the handler is mounted once.
func (s *Server) base() string {
	base, err := s.config.BasePath(config.ModeDevelopment)
	if err != nil {
		return ""
	}
	return base
}

// ReloadClients returns the number of connected browsers.
func (s *Server) ReloadClients() int {
	return s.reload.ClientCount()
}

func errorText(err error) string {
	if se, ok := errors.As(err); ok {
		text := se.FormatCompact()
		if se.Detail != "" {
			text += "\n\n" + se.Detail
		}
		if se.Wrapped != nil {
			text += "\n\ncause: " + se.Wrapped.Error()
		}
		return text
	}
	return err.Error()
}

// Serve serves h on ln until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("serving", zap.String("url", "http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	return err
}
