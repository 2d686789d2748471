// Package zoho is the HTTP adapter for the Zoho Billing API.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	billingdomain "github.com/craftline/salesdesk/internal/billing/domain"
	"github.com/craftline/salesdesk/internal/config"
	"github.com/craftline/salesdesk/internal/observability/metrics"
	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Metrics *metrics.Metrics `optional:"true"`
}

// Client talks to Zoho Billing. Token refresh happens outside this service;
// the configured token is sent as-is.
type Client struct {
	log     *zap.Logger
	cfg     config.ZohoConfig
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient builds the Zoho adapter.
func NewClient(p Params) (billingdomain.Client, error) {
	cfg := p.Config.Zoho
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, billingdomain.ErrMissingConfig
	}

	return &Client{
		log:     p.Log.Named("billing.zoho"),
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
		metrics: p.Metrics,
	}, nil
}

// envelope is the common Zoho response wrapper. Code 0 means success.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) ListTaxes(ctx context.Context) (*taxdomain.Catalog, error) {
	var out struct {
		envelope
		Taxes []struct {
			TaxID         string  `json:"tax_id"`
			TaxName       string  `json:"tax_name"`
			TaxPercentage float64 `json:"tax_percentage"`
			TaxType       string  `json:"tax_type"`
		} `json:"taxes"`
	}
	if err := c.do(ctx, http.MethodGet, "/settings/taxes", nil, nil, &out, "list_taxes"); err != nil {
		return nil, err
	}

	records := make([]taxdomain.TaxRecord, 0, len(out.Taxes))
	for _, t := range out.Taxes {
		records = append(records, taxdomain.TaxRecord{
			TaxID:         t.TaxID,
			TaxName:       t.TaxName,
			TaxPercentage: t.TaxPercentage,
			TaxType:       t.TaxType,
		})
	}
	return taxdomain.NewCatalog(records), nil
}

func (c *Client) EnsureContact(ctx context.Context, req billingdomain.ContactRequest) (*billingdomain.Contact, error) {
	if existing, err := c.findContact(ctx, req); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	payload := map[string]any{
		"display_name": req.DisplayName,
		"email":        req.Email,
		"phone":        req.Phone,
		"billing_address": map[string]any{
			"address": req.Address,
			"city":    req.City,
			"state":   req.State,
			"zip":     req.Pincode,
		},
	}
	var out struct {
		envelope
		Customer billingdomain.Contact `json:"customer"`
	}
	if err := c.do(ctx, http.MethodPost, "/customers", nil, payload, &out, "create_contact"); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

func (c *Client) findContact(ctx context.Context, req billingdomain.ContactRequest) (*billingdomain.Contact, error) {
	query := url.Values{}
	switch {
	case strings.TrimSpace(req.Email) != "":
		query.Set("email", strings.TrimSpace(req.Email))
	case strings.TrimSpace(req.Phone) != "":
		query.Set("phone", strings.TrimSpace(req.Phone))
	default:
		return nil, nil
	}

	var out struct {
		envelope
		Customers []billingdomain.Contact `json:"customers"`
	}
	if err := c.do(ctx, http.MethodGet, "/customers", query, nil, &out, "find_contact"); err != nil {
		return nil, err
	}
	if len(out.Customers) == 0 {
		return nil, nil
	}
	return &out.Customers[0], nil
}

func (c *Client) EnsureItem(ctx context.Context, req billingdomain.ItemRequest) (*billingdomain.Item, error) {
	payload := map[string]any{
		"name":       req.Name,
		"rate":       req.Rate,
		"hsn_or_sac": req.HSNOrSAC,
		"tax_id":     req.TaxID,
	}
	var out struct {
		envelope
		Item billingdomain.Item `json:"item"`
	}
	if err := c.do(ctx, http.MethodPost, "/items", nil, payload, &out, "create_item"); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

func (c *Client) CreateInvoice(ctx context.Context, req billingdomain.InvoiceRequest) (*billingdomain.Invoice, error) {
	lines := make([]map[string]any, 0, len(req.Lines))
	for _, line := range req.Lines {
		entry := map[string]any{
			"name":        line.Name,
			"description": line.Description,
			"rate":        line.Rate,
			"quantity":    line.Quantity,
			"hsn_or_sac":  line.HSNOrSAC,
		}
		if line.ItemID != "" {
			entry["item_id"] = line.ItemID
		}
		if line.TaxID != "" && line.TaxID != taxdomain.TaxCodeNoTax {
			entry["tax_id"] = line.TaxID
		}
		lines = append(lines, entry)
	}

	payload := map[string]any{
		"customer_id":      req.CustomerID,
		"reference_number": req.ReferenceNumber,
		"place_of_supply":  req.PlaceOfSupply,
		"line_items":       lines,
	}
	var out struct {
		envelope
		Invoice billingdomain.Invoice `json:"invoice"`
	}
	if err := c.do(ctx, http.MethodPost, "/invoices", nil, payload, &out, "create_invoice"); err != nil {
		return nil, err
	}
	return &out.Invoice, nil
}

func (c *Client) MarkInvoiceSent(ctx context.Context, invoiceID string) error {
	var out envelope
	path := fmt.Sprintf("/invoices/%s/status/sent", url.PathEscape(invoiceID))
	return c.do(ctx, http.MethodPost, path, nil, nil, &out, "mark_sent")
}

func (c *Client) GetInvoicePDF(ctx context.Context, invoiceID string) ([]byte, error) {
	query := url.Values{}
	query.Set("accept", "pdf")
	path := fmt.Sprintf("/invoices/%s", url.PathEscape(invoiceID))

	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, "invoice_pdf", false)
		return nil, billingdomain.ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.record(ctx, "invoice_pdf", false)
		return nil, billingdomain.ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.record(ctx, "invoice_pdf", false)
		return nil, billingdomain.ErrRejected
	}

	c.record(ctx, "invoice_pdf", true)
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if query == nil {
		query = url.Values{}
	}
	if c.cfg.OrganizationID != "" {
		query.Set("organization_id", c.cfg.OrganizationID)
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.cfg.OAuthToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, operation, false)
		c.log.Warn("zoho request failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return billingdomain.ErrUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, operation, false)
		return billingdomain.ErrUnavailable
	}

	if resp.StatusCode == http.StatusNotFound {
		c.record(ctx, operation, false)
		return billingdomain.ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.record(ctx, operation, false)
		c.log.Warn("zoho rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
		)
		return billingdomain.ErrRejected
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.record(ctx, operation, false)
			return billingdomain.ErrRejected
		}
	}

	c.record(ctx, operation, true)
	return nil
}

func (c *Client) record(ctx context.Context, operation string, success bool) {
	c.metrics.RecordProviderCall(ctx, "zoho", operation, success)
}
