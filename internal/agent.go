package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/credstore"
	"github.com/starford/raido/internal/localtree"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/notify"
	"github.com/starford/raido/internal/remote"
	"github.com/starford/raido/internal/sync"
)

// agentDeps bundles the collaborators every agent-side command needs.
type agentDeps struct {
	cfg        *Config
	logger     *slog.Logger
	store      *localtree.DB
	client     *remote.Client
	creds      *credstore.Store
	reconciler *sync.Reconciler
	notifier   notify.Notifier
}

func buildAgent(opts []Option) (*agentDeps, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config
	logger := initLogger(cfg)

	store, err := localtree.Open(cfg.Local.Path)
	if err != nil {
		return nil, fmt.Errorf("init local tree: %w", err)
	}

	client := remote.New(cfg.Remote.BaseURL)
	notifier := app.notifier
	if notifier == nil {
		notifier = &notify.Log{Logger: logger}
	}

	return &agentDeps{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		client:     client,
		creds:      credstore.New(cfg.Credentials.Path),
		reconciler: sync.New(store, client, logger),
		notifier:   notifier,
	}, nil
}

// conditionalSource adapts the remote client so scheduled convergence runs
// skip a fetch only when neither side changed: the remote collection is
// matched by entity tag, the local tree by a snapshot digest. Local drift
// forces a full fetch, because a 304 skip would leave it unreconciled.
type conditionalSource struct {
	client *remote.Client
	store  localtree.Store
	logger *slog.Logger

	lastLocal string
}

func (s *conditionalSource) localDigest() string {
	data, err := json.Marshal(localtree.FlattenSafe(s.store, s.logger))
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

func (s *conditionalSource) FetchAll(ctx context.Context, token string) ([]models.Node, error) {
	digest := s.localDigest()
	if digest == s.lastLocal {
		return s.client.FetchChanged(ctx, token)
	}
	nodes, err := s.client.FetchAll(ctx, token)
	if err == nil {
		s.lastLocal = digest
	}
	return nodes, err
}

func (s *conditionalSource) ReplaceAll(ctx context.Context, token string, nodes []models.Node) error {
	return s.client.ReplaceAll(ctx, token, nodes)
}

// RunAgent runs the synchronization agent: an immediate convergence run, a
// periodic run on the configured interval, and a Seed run whenever a
// credential appears on disk.
func RunAgent(ctx context.Context, opts ...Option) error {
	deps, err := buildAgent(opts)
	if err != nil {
		return err
	}
	defer deps.store.Close()
	cfg, logger := deps.cfg, deps.logger

	logger.Info("Agent starting",
		slog.String("remote", cfg.Remote.BaseURL),
		slog.String("local_path", cfg.Local.Path),
		slog.Duration("interval", cfg.Sync.Interval))

	scheduled := sync.New(deps.store, &conditionalSource{client: deps.client, store: deps.store, logger: logger}, logger)

	g, gCtx := errgroup.WithContext(ctx)

	// Periodic convergence, plus one run at startup.
	g.Go(func() error {
		deps.converge(gCtx, scheduled)
		ticker := time.NewTicker(cfg.Sync.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				deps.converge(gCtx, scheduled)
			}
		}
	})

	// Post-login trigger: a credential appearing on disk seeds the tree.
	g.Go(func() error {
		return deps.creds.Watch(gCtx, logger, func(token string) {
			deps.seed(gCtx, token)
		})
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			return context.Canceled
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Agent error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Agent stopped")
	return nil
}

// converge runs one convergence pass and surfaces the outcome. Errors
// never stop the agent; the next tick retries.
func (d *agentDeps) converge(ctx context.Context, r *sync.Reconciler) {
	token, err := d.creds.Get()
	if err != nil {
		d.logger.Info("sync skipped: not logged in")
		d.notifier.Notify("Bookmark sync failed", "Not logged in")
		return
	}
	switch err := r.Converge(ctx, token); {
	case err == nil:
		d.notifier.Notify("Bookmarks synced", "Local bookmarks match the remote collection")
	case errors.Is(err, apperr.ErrNotModified):
		d.logger.Debug("sync skipped: collection unchanged")
	case errors.Is(err, apperr.ErrSyncBusy):
		d.logger.Warn("sync skipped: previous run still in flight")
	default:
		d.logger.Error("sync failed", slog.String("error", err.Error()))
		d.notifier.Notify("Bookmark sync failed", err.Error())
	}
}

// seed runs one import pass after a login event.
func (d *agentDeps) seed(ctx context.Context, token string) {
	if err := d.reconciler.Seed(ctx, token); err != nil {
		d.logger.Error("seed failed", slog.String("error", err.Error()))
		d.notifier.Notify("Bookmark import failed", err.Error())
		return
	}
	d.notifier.Notify("Bookmarks imported", "Remote bookmarks were adopted into the local tree")
}

// SyncOnce performs a single manual convergence run.
func SyncOnce(ctx context.Context, opts ...Option) error {
	deps, err := buildAgent(opts)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	token, err := deps.creds.Get()
	if err != nil {
		return err
	}
	return deps.reconciler.Converge(ctx, token)
}

// AdoptOnce performs a single manual adopt run.
func AdoptOnce(ctx context.Context, opts ...Option) error {
	deps, err := buildAgent(opts)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	token, err := deps.creds.Get()
	if err != nil {
		return err
	}
	return deps.reconciler.Seed(ctx, token)
}

// Login stores the credential and immediately seeds the local tree from
// the remote collection.
func Login(ctx context.Context, token string, opts ...Option) error {
	deps, err := buildAgent(opts)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	if token == "" {
		return apperr.ErrNoCredential
	}
	if err := deps.creds.Set(token); err != nil {
		return err
	}
	if err := deps.reconciler.Seed(ctx, token); err != nil {
		return fmt.Errorf("logged in, but initial sync failed: %w", err)
	}
	return nil
}

// RunMCP serves the bookmark tools over MCP stdio transport.
func RunMCP(ctx context.Context, opts ...Option) error {
	deps, err := buildAgent(opts)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	srv := mcpserver.New(deps.store, func(ctx context.Context) error {
		token, err := deps.creds.Get()
		if err != nil {
			return err
		}
		return deps.reconciler.Converge(ctx, token)
	})
	return srv.ServeStdio()
}

// Logout removes the stored credential. The local tree is left as-is.
func Logout(opts ...Option) error {
	deps, err := buildAgent(opts)
	if err != nil {
		return err
	}
	defer deps.store.Close()
	return deps.creds.Remove()
}
