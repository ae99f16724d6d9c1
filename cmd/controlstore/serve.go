package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/controlstore/pkg/inspect"
	"github.com/vango-dev/controlstore/pkg/scenario"
	"github.com/vango-dev/controlstore/pkg/store"
)

type serveFlags struct {
	address string
}

func serveCmd(global *globalFlags) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve [scenario.yaml]...",
		Short: "Serve the store inspector",
		Long: `Replay scenario files and serve the resulting stores over HTTP.

The inspector lists each store with its state, configurations and recent
diagnostics, and streams state changes over a websocket. Without scenario
files a demo store is served.

Routes:
  GET /stores                       list stores
  GET /stores/{name}                current state
  GET /stores/{name}/configs        controlled configurations
  GET /stores/{name}/diagnostics    recent diagnostics
  GET /stores/{name}/watch          websocket state stream
  GET /metrics                      Prometheus metrics

Examples:
  controlstore serve
  controlstore serve --addr :8080 scenarios/*.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(global, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.address, "addr", "a", "", "Address to listen on (default from controlstore.json)")

	return cmd
}

func runServe(global *globalFlags, flags *serveFlags, files []string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	if flags.address != "" {
		cfg.Inspector.Address = flags.address
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := newStack(cfg)
	registry := inspect.NewRegistry(cfg.Inspector.History)

	if len(files) == 0 {
		if err := registerDemo(registry, st); err != nil {
			return err
		}
	}
	for _, file := range files {
		if err := registerScenario(ctx, registry, st, file); err != nil {
			return err
		}
	}

	opts := []inspect.Option{inspect.WithLogger(slog.Default())}
	if h := st.metricsHandler(); h != nil {
		opts = append(opts, inspect.WithMetricsHandler(h))
	}
	if st.tracer != nil {
		opts = append(opts, inspect.WithTracer(st.tracer))
	}
	if len(cfg.Inspector.AllowedOrigins) > 0 {
		opts = append(opts, inspect.WithAllowedOrigins(cfg.Inspector.AllowedOrigins...))
	}
	server := inspect.NewServer(registry, opts...)

	success("Inspector listening on http://%s", cfg.Inspector.Address)
	for _, e := range registry.Entries() {
		info("%s  /stores/%s", e.ID, e.Name)
	}

	return server.ListenAndServe(ctx, cfg.Inspector.Address)
}

// registerScenario replays file and registers the resulting store. A
// scenario without a store name is named after its file.
func registerScenario(ctx context.Context, registry *inspect.Registry, st *stack, file string) error {
	sc, err := scenario.ParseFile(file)
	if err != nil {
		return err
	}
	if sc.Store.Name == "" {
		sc.Store.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	res, err := scenario.Run(ctx, sc,
		scenario.WithStoreOptions(st.storeOptions()...),
		scenario.WithReporter(registry.Reporter(sc.Store.Name, st.reporter(store.LogReporter{}))),
		scenario.WithTracer(st.tracer),
	)
	if err != nil {
		warn("%s: %v", file, err)
		if res == nil {
			return err
		}
	}

	_, err = registry.Register(res.Store)
	return err
}

// demoName is the name of the store served when no scenario is given.
const demoName = "demo"

// registerDemo registers a small dialog store with one controlled and one
// uncontrolled key.
func registerDemo(registry *inspect.Registry, st *stack) error {
	opts := append([]store.Option{
		store.WithName(demoName),
		store.WithReporter(registry.Reporter(demoName, st.reporter(store.LogReporter{}))),
	}, st.storeOptions()...)

	cs := store.NewControllable(store.NewState(map[string]any{
		"open":  false,
		"title": "Dialog",
	}), opts...)

	cs.UpdateControlledConfigs(store.Configs{
		"open": store.Controlled(true, func(v bool, _ any) {
			slog.Info("demo open requested", "value", v)
		}).Named("Dialog", "open"),
		"title": store.Uncontrolled("Dialog").Named("Dialog", "title"),
	})

	_, err := registry.Register(cs)
	return err
}

