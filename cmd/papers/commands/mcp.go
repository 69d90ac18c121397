package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/papers-cli/papers/internal/constants"
	papersmcp "github.com/papers-cli/papers/internal/mcp"
	"github.com/papers-cli/papers/internal/observability"
)

const (
	transportStdio = "stdio"
	transportSSE   = "sse"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type mcpOptions struct {
	transport   string
	addr        string
	baseURL     string
	metricsAddr string
	pageSize    int
}

// NewMCPCommand creates the mcp command.
func NewMCPCommand(version string) *cobra.Command {
	opts := &mcpOptions{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP tool server",
		Long: `Serve OpenAlex and, when a Zotero library is configured, Zotero as
Model Context Protocol tools. The stdio transport is meant to be launched by an
MCP client; the SSE transport listens on --addr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPCommand(cmd.Context(), opts, version)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "transport (stdio, sse)")
	cmd.Flags().StringVar(&opts.addr, "addr", "localhost:8080", "listen address for the sse transport")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "public base URL of the sse transport (default http://ADDR)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", constants.MCPDefaultPageSize, "default page size of list tools")

	return cmd
}

func runMCPCommand(ctx context.Context, opts *mcpOptions, version string) error {
	if opts.transport != transportStdio && opts.transport != transportSSE {
		return fmt.Errorf("%w: %q", constants.ErrUnsupportedProtocol, opts.transport)
	}

	logger := newLogger().With("mcp")

	var registry *prometheus.Registry

	if opts.metricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		metricsServer := serveMetrics(opts.metricsAddr, registry, logger)
		defer shutdown(metricsServer)
	}

	var metrics prometheus.Registerer
	if registry != nil {
		metrics = registry
	}

	openalex, err := newOpenAlexClient(ctx, metrics)
	if err != nil {
		return err
	}

	defer func() { _ = openalex.Close() }()

	serverOpts := []papersmcp.Option{
		papersmcp.WithVersion(version),
		papersmcp.WithLogger(logger),
		papersmcp.WithPageSize(opts.pageSize),
		papersmcp.WithSelections(selectionStore()),
	}

	if zoteroConfigured() {
		zotero, err := newZoteroClient(ctx, metrics)
		if err != nil {
			return err
		}

		defer func() { _ = zotero.Close() }()

		serverOpts = append(serverOpts, papersmcp.WithZotero(zotero))
	}

	server := papersmcp.NewServer(openalex, serverOpts...)

	if opts.transport == transportStdio {
		return server.ServeStdio()
	}

	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = "http://" + opts.addr
	}

	sse := server.NewSSEServer(baseURL)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = sse.Shutdown(shutdownCtx)
	}()

	logger.Info("MCP SSE server starting", map[string]interface{}{"address": opts.addr, "sse": baseURL + "/sse"})

	if err := sse.Start(opts.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving sse: %w", err)
	}

	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *observability.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.Info("metrics server starting", map[string]interface{}{"address": addr})

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
}
