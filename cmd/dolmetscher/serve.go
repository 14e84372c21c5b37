package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rhuss/dolmetscher/pkg/config"
	"github.com/rhuss/dolmetscher/pkg/engine"
	"github.com/rhuss/dolmetscher/pkg/models"
	"github.com/rhuss/dolmetscher/pkg/modelref"
	"github.com/rhuss/dolmetscher/pkg/provider"
	transporthttp "github.com/rhuss/dolmetscher/pkg/transport/http"
)

type serveOptions struct {
	host string
	port int
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		Long:  `Run the Ollama-compatible HTTP gateway in the foreground until SIGINT or SIGTERM.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = opts.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = opts.port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "listen host (overrides config and HOST)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides config and PORT)")

	return cmd
}

// gateway is the assembled request path: resolver, backend, engine,
// model registry and HTTP server.
type gateway struct {
	server   *transporthttp.Server
	resolver *modelref.Resolver
	backend  provider.Provider
	registry *models.Registry
}

func newGateway(cfg *config.Config) (*gateway, error) {
	resolver := buildResolver(cfg)

	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating backend: %w", err)
	}

	eng, err := engine.New(backend, resolver, engine.Config{})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	registry, err := models.Load(cfg.Models.File)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("loading models: %w", err)
	}

	authMW, err := buildAuth(cfg)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("configuring auth: %w", err)
	}

	adapterCfg, err := adapterConfig(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(cfg.Server.Addr()),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithAdapterConfig(adapterCfg),
	}
	if authMW != nil {
		opts = append(opts, transporthttp.WithHTTPMiddleware(authMW))
	}

	return &gateway{
		server:   transporthttp.NewServer(eng, registry, opts...),
		resolver: resolver,
		backend:  backend,
		registry: registry,
	}, nil
}

func (g *gateway) Close() error {
	return g.backend.Close()
}

func runServe(out io.Writer, cfg *config.Config) error {
	g, err := newGateway(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	printBanner(out, cfg, g.resolver, g.backend.Name(), len(g.registry.Models()))
	slog.Info("server starting",
		"addr", cfg.Server.Addr(),
		"backend", g.backend.Name(),
		"auth", cfg.Auth.Type,
		"models", len(g.registry.Models()),
	)

	return g.server.ListenAndServe()
}

func printBanner(out io.Writer, cfg *config.Config, resolver *modelref.Resolver, backend string, modelCount int) {
	bold := color.New(color.FgGreen, color.Bold)
	bold.Fprintf(out, "%s %s\n", appName, version)
	fmt.Fprintf(out, "  listening on  %s\n", cfg.Server.Addr())
	fmt.Fprintf(out, "  backend       %s\n", backend)
	fmt.Fprintf(out, "  models        %d\n", modelCount)
	for _, p := range modelref.Providers() {
		status := color.YellowString("ambient")
		if resolver.Configured(p) {
			status = color.GreenString("configured")
		}
		fmt.Fprintf(out, "  %-13s %s\n", p, status)
	}
}
