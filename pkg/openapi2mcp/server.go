package openapi2mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/thetadata/thetadata-mcp/pkg/client"
)

const serverName = "thetadata"

// NewServer creates an MCP server with every operation from the document
// registered as a tool forwarding through c.
func NewServer(doc *openapi3.T, c *client.Client, logger *zap.Logger) (*mcp.Server, error) {
	ops, err := ExtractOperations(doc)
	if err != nil {
		return nil, err
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: doc.Info.Version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		Instructions: "Tools map one-to-one onto Theta Data REST endpoints. Each description starts with the minimum subscription tier ([FREE], [VALUE], [STANDARD], [PROFESSIONAL]) required to call it.",
	})

	if err := RegisterTools(srv, ops, c, logger); err != nil {
		return nil, err
	}
	return srv, nil
}

// ServeStdio runs the server over stdin/stdout until ctx is canceled.
func ServeStdio(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, &mcp.StdioTransport{})
}

// ServeStreamableHTTP serves the server over streamable HTTP at basePath.
// It blocks until ctx is canceled, then shuts down gracefully.
func ServeStreamableHTTP(ctx context.Context, srv *mcp.Server, addr, basePath string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if basePath == "" {
		basePath = "/mcp"
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	mux := http.NewServeMux()
	mux.Handle(basePath, handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("serving streamable HTTP",
			zap.String("addr", addr),
			zap.String("path", basePath))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down HTTP server")
		return httpSrv.Shutdown(shutdownCtx)
	}
}
