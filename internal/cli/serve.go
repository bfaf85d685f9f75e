package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowtower/internal/server"
	"github.com/matzehuels/flowtower/pkg/config"
	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/observability"
	"github.com/matzehuels/flowtower/pkg/store"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		backend string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout and render HTTP API",
		Long: `Serve the layout and render HTTP API.

Routes:
  GET    /healthz
  GET    /metrics              Prometheus metrics (server.metrics = true)
  POST   /v1/layout            Flow XML body, returns layout JSON
  POST   /v1/render?format=svg Flow XML body, returns the rendered diagram
  POST   /v1/flows             store a flow
  GET    /v1/flows             list stored flows
  GET    /v1/flows/{id}        fetch a stored flow
  DELETE /v1/flows/{id}        delete a stored flow

The cache and the flow store come from the config file; set
FLOWTOWER_REDIS_URL and FLOWTOWER_MONGO_URI to share them between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if backend != "" {
				cfg.Store.Backend = backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&backend, "store", "", "flow store: memory, file, mongo")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []server.Option{server.WithConfig(cfg), server.WithLogger(c.Logger)}
	hooks := observability.Hooks(observability.NewLogHooks(c.Logger))
	if cfg.Server.Metrics {
		prom := observability.NewPromHooks()
		hooks = observability.Multi(hooks, prom)
		opts = append(opts, server.WithMetrics(prom.Handler()))
	}
	observability.SetAll(hooks)
	defer observability.Reset()

	srv := server.New(runner, st, opts...)

	printInfo(c.Out, "Serving on %s", cfg.Server.Addr)
	printDetail(c.Out, "store: %s", cfg.Store.Backend)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	printSuccess(c.Out, "Server stopped")
	return nil
}

// openStore opens the configured flow store.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		s, err := store.NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendFile:
		s, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMemory, "":
		return store.NewMemoryStore(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidOptions, "unknown store backend %q", cfg.Backend)
	}
}
