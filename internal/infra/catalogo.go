package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cobrofacil/internal/model"
)

// CatalogoClient asks the catalog service for the products sold by a
// register in a time range.
type CatalogoClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewCatalogoClient(baseURL string, cb *CircuitBreaker) *CatalogoClient {
	return &CatalogoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cb:         cb,
	}
}

type resumenVentasResponse struct {
	Productos []model.VentaProducto `json:"productos"`
}

// ResumenVentas calls GET {base}/v1/ventas/resumen?caja=&desde=&hasta=.
func (c *CatalogoClient) ResumenVentas(ctx context.Context, caja string, desde, hasta time.Time) ([]model.VentaProducto, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, caja, desde, hasta)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.VentaProducto), nil
}

func (c *CatalogoClient) fetch(ctx context.Context, caja string, desde, hasta time.Time) ([]model.VentaProducto, error) {
	q := url.Values{}
	q.Set("caja", caja)
	q.Set("desde", desde.Format(time.RFC3339))
	q.Set("hasta", hasta.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/ventas/resumen?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalogo: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalogo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalogo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out resumenVentasResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("catalogo: decode response: %w", err)
	}
	if out.Productos == nil {
		out.Productos = []model.VentaProducto{}
	}
	return out.Productos, nil
}
