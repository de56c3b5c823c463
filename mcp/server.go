package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/pkdeals/config"
	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/pipeline"
	"github.com/lukman83/pkdeals/internal/storage"
)

const (
	serverName    = "pkdeals"
	serverVersion = "1.0.0"
)

// CrawlFunc runs one ingestion pass over the given brands.
type CrawlFunc func(ctx context.Context, brands []models.Brand, onStored func(*models.Product)) (pipeline.Stats, error)

// Deps are the application services the tools call into.
type Deps struct {
	Catalog *config.Catalog
	Store   storage.Store
	Crawl   CrawlFunc
}

func newServer(d Deps) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	registerTools(s, &tools{deps: d})
	return s
}

// Serve runs the MCP server on stdio.
func Serve(d Deps) error {
	return server.ServeStdio(newServer(d))
}
