package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tilewright/tilewright/pkg/cache"
	"github.com/tilewright/tilewright/pkg/pipeline"
	"github.com/tilewright/tilewright/pkg/server"
	"github.com/tilewright/tilewright/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string // listen address
	redis   string // redis address for the artifact cache
	mongo   string // mongodb URI for the run archive
	mongoDB string // mongodb database name
	noCache bool
}

// serveCommand creates the serve command for the HTTP generation API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8080", mongoDB: "tilewright"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP generation API",
		Long: `Run the HTTP generation API.

Generation requests are cached locally (or in Redis with --redis) and
completed runs are archived in memory (or in MongoDB with --mongo).

Endpoints:
  POST /api/generate          run the pipeline, return run metadata or PNG
  GET  /api/runs              list archived runs
  GET  /api/runs/{id}         fetch one run's metadata
  GET  /api/runs/{id}/image   fetch one run's PNG artifact
  GET  /healthz               liveness probe

Examples:
  tilewright serve
  tilewright serve --addr :9000 --redis localhost:6379
  tilewright serve --mongo mongodb://localhost:27017`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "redis address for the artifact cache")
	cmd.Flags().StringVar(&opts.mongo, "mongo", "", "mongodb URI for the run archive")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "mongodb database name")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe wires the cache, store, and router, then serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	artifactCache, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(artifactCache, nil, c.Logger)
	defer runner.Close()

	runStore, err := c.serveStore(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := runStore.Close(closeCtx); err != nil {
			c.Logger.Warn("closing store", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           server.New(runner, runStore, c.Logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// serveCache selects the artifact cache backend from flags.
func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redis != "" {
		rc, err := cache.NewRedisCache(ctx, opts.redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", opts.redis, err)
		}
		c.Logger.Info("using redis cache", "addr", opts.redis)
		return rc, nil
	}
	return newCache(false)
}

// serveStore selects the run archive backend from flags.
func (c *CLI) serveStore(ctx context.Context, opts serveOpts) (store.Store, error) {
	if opts.mongo == "" {
		return store.NewMemoryStore(), nil
	}
	ms, err := store.NewMongoStore(ctx, opts.mongo, opts.mongoDB)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	c.Logger.Info("using mongodb archive", "db", opts.mongoDB)
	return ms, nil
}
