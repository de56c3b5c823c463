package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/pkdeals/config"
	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/pipeline"
	"github.com/lukman83/pkdeals/internal/storage"
)

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return tc.Text
}

type memStore struct {
	storage.Store
	products map[string]*models.Product
}

func (m memStore) Get(_ context.Context, url string) (*models.Product, error) {
	if p, ok := m.products[url]; ok {
		return p, nil
	}
	return nil, storage.ErrNotFound
}

var catalog = &config.Catalog{Brands: []models.Brand{
	{Key: "khaadi", Platform: "shopify", Domain: "https://pk.khaadi.com", Name: "Khaadi",
		Collections: []models.Collection{{Handle: "sale"}}},
}}

func TestClassifyText(t *testing.T) {
	tl := &tools{}
	res, err := tl.handleClassifyText(context.Background(), call(map[string]any{"text": "Women Embroidered Kurti"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"gender":"women","category":"kurta"}`, text(t, res))

	res, err = tl.handleClassifyText(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListBrands(t *testing.T) {
	tl := &tools{deps: Deps{Catalog: catalog}}
	res, err := tl.handleListBrands(context.Background(), call(nil))
	require.NoError(t, err)

	var brands []models.Brand
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &brands))
	require.Len(t, brands, 1)
	assert.Equal(t, "khaadi", brands[0].Key)
}

func TestCrawlBrand(t *testing.T) {
	var crawled []models.Brand
	crawl := func(ctx context.Context, brands []models.Brand, onStored func(*models.Product)) (pipeline.Stats, error) {
		crawled = brands
		for _, u := range []string{"a", "b", "c"} {
			onStored(&models.Product{URL: "https://pk.khaadi.com/products/" + u})
		}
		return pipeline.Stats{Stored: 3}, nil
	}
	tl := &tools{deps: Deps{Catalog: catalog, Crawl: crawl}}

	res, err := tl.handleCrawlBrand(context.Background(), call(map[string]any{"brand": "khaadi", "limit": 2}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var out crawlResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.EqualValues(t, 3, out.Stats.Stored)
	assert.Len(t, out.Products, 2)
	require.Len(t, crawled, 1)
	assert.Equal(t, "Khaadi", crawled[0].Name)

	res, err = tl.handleCrawlBrand(context.Background(), call(map[string]any{"brand": "sapphire"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "brand not found")
}

func TestCrawlBrandReportsFailure(t *testing.T) {
	crawl := func(context.Context, []models.Brand, func(*models.Product)) (pipeline.Stats, error) {
		return pipeline.Stats{}, errors.New("store down")
	}
	tl := &tools{deps: Deps{Catalog: catalog, Crawl: crawl}}
	res, err := tl.handleCrawlBrand(context.Background(), call(map[string]any{"brand": "khaadi"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "store down")
}

func TestGetProduct(t *testing.T) {
	url := "https://pk.khaadi.com/products/a"
	tl := &tools{deps: Deps{Store: memStore{products: map[string]*models.Product{
		url: {URL: url, Title: "Lawn Shirt", DiscountPercent: 30},
	}}}}

	res, err := tl.handleGetProduct(context.Background(), call(map[string]any{"url": url}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), `"discount_percent": 30`)

	res, err = tl.handleGetProduct(context.Background(), call(map[string]any{"url": url + "-x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHTTPHandlerAuth(t *testing.T) {
	srv := httptest.NewServer(newHTTPHandler(newServer(Deps{Catalog: catalog}), "secret"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_token")
}
