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

// MesasClient queries the table/billing system for tables whose invoice was
// issued but not yet paid. Calls go through a circuit breaker; an open
// breaker is reported as an error so that closes fail closed.
type MesasClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewMesasClient(baseURL string, timeout time.Duration, cb *CircuitBreaker) *MesasClient {
	return &MesasClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cb:         cb,
	}
}

// MesasImpagas calls GET {base}/v1/cajas/{caja}/mesas-impagas.
func (c *MesasClient) MesasImpagas(ctx context.Context, caja string) ([]model.MesaPendiente, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, caja)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.MesaPendiente), nil
}

func (c *MesasClient) fetch(ctx context.Context, caja string) ([]model.MesaPendiente, error) {
	endpoint := fmt.Sprintf("%s/v1/cajas/%s/mesas-impagas", c.baseURL, url.PathEscape(caja))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("mesas: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mesas: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mesas: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	mesas := []model.MesaPendiente{}
	if err := json.NewDecoder(resp.Body).Decode(&mesas); err != nil {
		return nil, fmt.Errorf("mesas: decode response: %w", err)
	}
	return mesas, nil
}
