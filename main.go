// thetadata-mcp serves the Theta Data REST API as MCP tools over stdio or
// streamable HTTP. Every tool is a one-to-one mapping of an endpoint from
// the bundled OpenAPI document; invocations are forwarded to a locally
// running Theta Terminal and the responses passed through unchanged.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thetadata/thetadata-mcp/pkg/client"
	"github.com/thetadata/thetadata-mcp/pkg/config"
	"github.com/thetadata/thetadata-mcp/pkg/openapi2mcp"
	"github.com/thetadata/thetadata-mcp/pkg/spec"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		baseURL     string
		timeoutSecs float64
		transport   string
		httpAddr    string
		httpPath    string
		specPath    string
	)

	cmd := &cobra.Command{
		Use:           "thetadata-mcp",
		Short:         "MCP server for the Theta Data market-data API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = time.Duration(timeoutSecs * float64(time.Second))
			}
			cfg.Transport = transport
			cfg.HTTPAddr = httpAddr
			cfg.HTTPPath = httpPath
			cfg.SpecPath = specPath
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", config.DefaultBaseURL, "base URL for the Theta Data API (env "+config.EnvBaseURL+")")
	cmd.Flags().Float64Var(&timeoutSecs, "timeout", config.DefaultTimeout.Seconds(), "request timeout in seconds (env "+config.EnvTimeout+")")
	cmd.Flags().StringVar(&transport, "transport", config.TransportStdio, "transport: stdio or http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "127.0.0.1:8080", "listen address for the http transport")
	cmd.Flags().StringVar(&httpPath, "http-path", "/mcp", "mount path for the http transport")
	cmd.Flags().StringVar(&specPath, "spec", "", "path to an OpenAPI document overriding the bundled one")

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	// stdout belongs to the stdio transport; all logging goes to stderr.
	zapCfg := zap.NewProductionConfig()
	logger, err := zapCfg.Build()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	doc, err := spec.Load(ctx, cfg.SpecPath)
	if err != nil {
		return err
	}

	c := client.New(cfg.BaseURL, cfg.Timeout, logger)
	srv, err := openapi2mcp.NewServer(doc, c, logger)
	if err != nil {
		return err
	}

	logger.Info("starting server",
		zap.String("transport", cfg.Transport),
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout))

	switch cfg.Transport {
	case config.TransportHTTP:
		return openapi2mcp.ServeStreamableHTTP(ctx, srv, cfg.HTTPAddr, cfg.HTTPPath, logger)
	default:
		return openapi2mcp.ServeStdio(ctx, srv)
	}
}
