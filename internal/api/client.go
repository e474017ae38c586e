// Package api is the device-side HTTP client for the central server.
// All endpoints speak the /api/v1 envelope and require a Bearer token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/checkout"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
)

// Envelope is the uniform response wrapper. Data stays raw until the
// caller knows what shape to expect.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
}

// Meta describes one page of a paginated listing.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// ProductPush carries a catalog row plus its current stock level in a
// single create call.
type ProductPush struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode"`
	Category      string  `json:"category,omitempty"`
	SellingPrice  float64 `json:"sellingPrice"`
	PurchasePrice float64 `json:"purchasePrice"`
	Quantity      int     `json:"quantity"`
}

// SalePush is one sale in a sync batch, items included.
type SalePush struct {
	ID          string            `json:"id"`
	TotalAmount float64           `json:"totalAmount"`
	CreatedAt   time.Time         `json:"createdAt"`
	Items       []models.SaleItem `json:"items"`
}

// Per-sale outcomes of a sync batch.
const (
	SaleSynced        = "synced"
	SaleAlreadySynced = "already_synced"
	SaleFailed        = "failed"
)

// SaleSyncResult reports the server's verdict on one pushed sale.
type SaleSyncResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// TokenFunc supplies the current Bearer token. Returning an empty
// string means the device is not paired yet.
type TokenFunc func(ctx context.Context) (string, error)

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenFunc
}

func NewClient(baseURL string, token TokenFunc) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		token:   token,
	}
}

var _ checkout.Remote = (*Client)(nil)

// Checkout runs a sale on the server and returns the recorded sale
// with its priced items.
func (c *Client) Checkout(ctx context.Context, items []checkout.Item) (*models.Sale, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/v1/sales/checkout", map[string]interface{}{"items": items})
	if err != nil {
		return nil, err
	}
	var sale models.Sale
	if err := json.Unmarshal(env.Data, &sale); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "decode checkout response", err)
	}
	return &sale, nil
}

// CreateProduct pushes one catalog row. A conflict error means the
// server already has this barcode or id; callers treat that as
// delivered.
func (c *Client) CreateProduct(ctx context.Context, p ProductPush) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/products", p)
	return err
}

// SetInventory overwrites the server-side quantity for a product with
// the device's absolute count.
func (c *Client) SetInventory(ctx context.Context, productID string, quantity int) error {
	body := map[string]interface{}{"productId": productID, "quantity": quantity}
	_, err := c.do(ctx, http.MethodPut, "/api/v1/inventory", body)
	return err
}

// SyncSales submits a batch of offline sales and returns the per-sale
// verdicts. The call itself only fails on transport or auth problems;
// individual bad sales come back as failed results.
func (c *Client) SyncSales(ctx context.Context, sales []SalePush) ([]SaleSyncResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/v1/sales/sync", map[string]interface{}{"sales": sales})
	if err != nil {
		return nil, err
	}
	var data struct {
		Results []SaleSyncResult `json:"results"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "decode sales sync response", err)
	}
	return data.Results, nil
}

// ListProducts fetches one catalog page from the server.
func (c *Client) ListProducts(ctx context.Context, page, limit int) ([]models.Product, *Meta, error) {
	path := fmt.Sprintf("/api/v1/products?page=%d&limit=%d", page, limit)
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, err
	}
	var products []models.Product
	if err := json.Unmarshal(env.Data, &products); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindUnknown, "decode products page", err)
	}
	return products, env.Meta, nil
}

// ListSales fetches one page of sales, items included.
func (c *Client) ListSales(ctx context.Context, page, limit int) ([]models.Sale, *Meta, error) {
	path := fmt.Sprintf("/api/v1/sales?page=%d&limit=%d", page, limit)
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, err
	}
	var sales []models.Sale
	if err := json.Unmarshal(env.Data, &sales); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindUnknown, "decode sales page", err)
	}
	return sales, env.Meta, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, "server unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, "read response", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
		return nil, apperr.Wrap(apperr.KindUnknown, "decode response", err)
	}

	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("server returned %d", resp.StatusCode)
		}
		return nil, apperr.New(kindForStatus(resp.StatusCode), msg)
	}
	return &env, nil
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest:
		return apperr.KindValidation
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindConflict
	default:
		return apperr.KindUnknown
	}
}
