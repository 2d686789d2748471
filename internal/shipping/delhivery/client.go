// Package delhivery is the HTTP adapter for the Delhivery courier API.
package delhivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/craftline/salesdesk/internal/config"
	"github.com/craftline/salesdesk/internal/observability/metrics"
	"github.com/craftline/salesdesk/internal/ratelimit"
	shippingdomain "github.com/craftline/salesdesk/internal/shipping/domain"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Limiter *ratelimit.OutboundLimiter
	Metrics *metrics.Metrics `optional:"true"`
}

// Client talks to the Delhivery API. All calls go through the outbound
// limiter before hitting the network.
type Client struct {
	log     *zap.Logger
	cfg     config.DelhiveryConfig
	http    *http.Client
	limiter *ratelimit.OutboundLimiter
	metrics *metrics.Metrics
}

func NewClient(p Params) (shippingdomain.Client, error) {
	cfg := p.Config.Delhivery
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, shippingdomain.ErrMissingConfig
	}

	return &Client{
		log:     p.Log.Named("shipping.delhivery"),
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: p.Limiter,
		metrics: p.Metrics,
	}, nil
}

func (c *Client) CheckPincode(ctx context.Context, pincode string) (*shippingdomain.ServiceabilityResult, error) {
	pincode = strings.TrimSpace(pincode)

	query := url.Values{}
	query.Set("filter_codes", pincode)

	var out struct {
		DeliveryCodes []struct {
			PostalCode struct {
				Pin      json.Number `json:"pin"`
				City     string      `json:"city"`
				State    string      `json:"state_code"`
				PrePaid  string      `json:"pre_paid"`
				COD      string      `json:"cod"`
				District string      `json:"district"`
			} `json:"postal_code"`
		} `json:"delivery_codes"`
	}
	if err := c.get(ctx, "/c/api/pin-codes/json/", query, &out, "serviceability"); err != nil {
		return nil, err
	}

	if len(out.DeliveryCodes) == 0 {
		return &shippingdomain.ServiceabilityResult{Pincode: pincode}, nil
	}

	pc := out.DeliveryCodes[0].PostalCode
	return &shippingdomain.ServiceabilityResult{
		Pincode:     pincode,
		Serviceable: true,
		City:        pc.City,
		State:       pc.State,
		Prepaid:     strings.EqualFold(pc.PrePaid, "Y"),
		COD:         strings.EqualFold(pc.COD, "Y"),
	}, nil
}

func (c *Client) AllocateWaybills(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("count", strconv.Itoa(count))

	// The bulk endpoint answers with a comma separated string of numbers,
	// JSON-quoted.
	var raw string
	if err := c.get(ctx, "/waybill/api/bulk/json/", query, &raw, "allocate_waybills"); err != nil {
		return nil, err
	}

	parts := strings.Split(raw, ",")
	waybills := make([]string, 0, len(parts))
	for _, p := range parts {
		if wbn := strings.TrimSpace(p); wbn != "" {
			waybills = append(waybills, wbn)
		}
	}
	return waybills, nil
}

func (c *Client) CreateShipment(ctx context.Context, req shippingdomain.ShipmentRequest) (*shippingdomain.Shipment, error) {
	payload := map[string]any{
		"pickup_location": map[string]any{
			"name": c.cfg.PickupLocation,
		},
		"shipments": []map[string]any{
			{
				"order":          req.OrderReference,
				"invoice_number": req.InvoiceNumber,
				"payment_mode":   req.PaymentMode,
				"cod_amount":     req.CODAmount,
				"total_amount":   req.DeclaredValue,
				"name":           req.ConsigneeName,
				"add":            req.Address,
				"city":           req.City,
				"state":          req.State,
				"pin":            req.Pincode,
				"phone":          req.Phone,
				"weight":         req.WeightGrams,
				"client":         c.cfg.ClientName,
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	// Create takes a urlencoded form with the JSON payload under "data".
	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(data))

	var out struct {
		Success  bool `json:"success"`
		Packages []struct {
			Waybill string   `json:"waybill"`
			Status  string   `json:"status"`
			Remarks []string `json:"remarks"`
		} `json:"packages"`
	}
	if err := c.postForm(ctx, "/api/cmu/create.json", form, &out, "create_shipment"); err != nil {
		return nil, err
	}

	if !out.Success || len(out.Packages) == 0 {
		c.log.Warn("delhivery refused shipment", zap.String("order", req.OrderReference))
		return nil, shippingdomain.ErrRejected
	}

	pkg := out.Packages[0]
	if !strings.EqualFold(pkg.Status, "Success") || pkg.Waybill == "" {
		c.log.Warn("delhivery package not created",
			zap.String("order", req.OrderReference),
			zap.String("status", pkg.Status),
			zap.Strings("remarks", pkg.Remarks),
		)
		return nil, shippingdomain.ErrRejected
	}

	return &shippingdomain.Shipment{
		WaybillNumber:  pkg.Waybill,
		OrderReference: req.OrderReference,
		Status:         pkg.Status,
		Remarks:        strings.Join(pkg.Remarks, "; "),
	}, nil
}

func (c *Client) Track(ctx context.Context, waybillNumber string) (*shippingdomain.TrackingInfo, error) {
	query := url.Values{}
	query.Set("waybill", strings.TrimSpace(waybillNumber))

	var out struct {
		ShipmentData []struct {
			Shipment struct {
				AWB    string `json:"AWB"`
				Status struct {
					Status         string `json:"Status"`
					StatusType     string `json:"StatusType"`
					StatusLocation string `json:"StatusLocation"`
					StatusDateTime string `json:"StatusDateTime"`
					Instructions   string `json:"Instructions"`
				} `json:"Status"`
			} `json:"Shipment"`
		} `json:"ShipmentData"`
	}
	if err := c.get(ctx, "/api/v1/packages/json/", query, &out, "track"); err != nil {
		return nil, err
	}

	if len(out.ShipmentData) == 0 {
		return nil, shippingdomain.ErrNotFound
	}

	sh := out.ShipmentData[0].Shipment
	updatedAt, err := time.Parse("2006-01-02T15:04:05.999999", sh.Status.StatusDateTime)
	if err != nil {
		updatedAt = time.Now().UTC()
	}

	return &shippingdomain.TrackingInfo{
		WaybillNumber: sh.AWB,
		Status:        sh.Status.Status,
		StatusType:    sh.Status.StatusType,
		Location:      sh.Status.StatusLocation,
		Instructions:  sh.Status.Instructions,
		UpdatedAt:     updatedAt,
	}, nil
}

func (c *Client) FetchLabel(ctx context.Context, waybillNumber string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, "delhivery"); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("wbns", strings.TrimSpace(waybillNumber))
	query.Set("pdf", "true")

	req, err := c.newRequest(ctx, http.MethodGet, "/api/p/packing_slip", query, nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, "fetch_label", false)
		return nil, shippingdomain.ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.record(ctx, "fetch_label", false)
		return nil, shippingdomain.ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.record(ctx, "fetch_label", false)
		return nil, shippingdomain.ErrRejected
	}

	c.record(ctx, "fetch_label", true)
	return io.ReadAll(resp.Body)
}

func (c *Client) RequestPickup(ctx context.Context, req shippingdomain.PickupRequest) error {
	payload := map[string]any{
		"pickup_location":        c.cfg.PickupLocation,
		"pickup_date":            req.Date,
		"pickup_time":            req.Time,
		"expected_package_count": req.PackageCount,
	}
	var out map[string]any
	return c.postJSON(ctx, "/fm/request/new/", payload, &out, "request_pickup")
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Authorization", "Token "+c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any, operation string) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return c.do(ctx, req, out, operation)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any, operation string) error {
	body := strings.NewReader(form.Encode())
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body, "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	return c.do(ctx, req, out, operation)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, bytes.NewReader(buf), "application/json")
	if err != nil {
		return err
	}
	return c.do(ctx, req, out, operation)
}

func (c *Client) do(ctx context.Context, req *http.Request, out any, operation string) error {
	if err := c.limiter.Wait(ctx, "delhivery"); err != nil {
		return fmt.Errorf("delhivery %s: %w", operation, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, operation, false)
		c.log.Warn("delhivery request failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return shippingdomain.ErrUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, operation, false)
		return shippingdomain.ErrUnavailable
	}

	if resp.StatusCode == http.StatusNotFound {
		c.record(ctx, operation, false)
		return shippingdomain.ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.record(ctx, operation, false)
		c.log.Warn("delhivery rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
		)
		return shippingdomain.ErrRejected
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.record(ctx, operation, false)
			return shippingdomain.ErrRejected
		}
	}

	c.record(ctx, operation, true)
	return nil
}

func (c *Client) record(ctx context.Context, operation string, success bool) {
	c.metrics.RecordProviderCall(ctx, "delhivery", operation, success)
}
