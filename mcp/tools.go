package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/pkdeals/internal/classify"
	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/pipeline"
	"github.com/lukman83/pkdeals/internal/storage"
)

const defaultCrawlLimit = 20

type tools struct {
	deps Deps
}

func registerTools(s *server.MCPServer, t *tools) {
	// list_brands
	s.AddTool(mcp.NewTool("list_brands",
		mcp.WithDescription("List the storefront brands in the crawl catalog with their collections"),
	), t.handleListBrands)

	// crawl_brand
	s.AddTool(mcp.NewTool("crawl_brand",
		mcp.WithDescription("Crawl one brand's collections, store discounted products and return them"),
		mcp.WithString("brand",
			mcp.Required(),
			mcp.Description("Brand key from the catalog, e.g. khaadi"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum products to return (default: 20); all are stored"),
		),
	), t.handleCrawlBrand)

	// get_product
	s.AddTool(mcp.NewTool("get_product",
		mcp.WithDescription("Look up a stored product by its storefront URL"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page URL"),
		),
	), t.handleGetProduct)

	// classify_text
	s.AddTool(mcp.NewTool("classify_text",
		mcp.WithDescription("Detect gender and clothing category from a product title or tags"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Free text such as a product title"),
		),
	), t.handleClassifyText)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *tools) handleListBrands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.deps.Catalog == nil {
		return mcp.NewToolResultError("no brand catalog loaded"), nil
	}
	return jsonResult(t.deps.Catalog.Brands)
}

type crawlResult struct {
	Stats    pipeline.Stats    `json:"stats"`
	Products []*models.Product `json:"products"`
}

func (t *tools) handleCrawlBrand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("brand", "")
	if key == "" {
		return mcp.NewToolResultError("brand is required"), nil
	}
	limit := request.GetInt("limit", defaultCrawlLimit)
	if t.deps.Catalog == nil || t.deps.Crawl == nil {
		return mcp.NewToolResultError("crawling is not configured"), nil
	}

	brands, err := t.deps.Catalog.Select(key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		mu  sync.Mutex
		out []*models.Product
	)
	stats, err := t.deps.Crawl(ctx, brands, func(p *models.Product) {
		mu.Lock()
		defer mu.Unlock()
		if len(out) < limit {
			out = append(out, p)
		}
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("crawl error: %v", err)), nil
	}
	return jsonResult(crawlResult{Stats: stats, Products: out})
}

func (t *tools) handleGetProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	if t.deps.Store == nil {
		return mcp.NewToolResultError("no store configured"), nil
	}

	p, err := t.deps.Store.Get(ctx, url)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("product not found: " + url), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("store error: %v", err)), nil
	}
	return jsonResult(p)
}

type classification struct {
	Gender   string `json:"gender,omitempty"`
	Category string `json:"category,omitempty"`
}

func (t *tools) handleClassifyText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	return jsonResult(classification{
		Gender:   classify.DetectGender(text),
		Category: classify.DetectCategory(text),
	})
}
