package domain

import (
	"context"
	"errors"
	"time"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
	"github.com/craftline/salesdesk/pkg/db/pagination"
)

// RecalculateRequest is what the wizard sends on every edit that can move
// tax: a line change, a destination change, or a fresh catalog.
type RecalculateRequest struct {
	DestinationState string               `json:"destination_state"`
	Lines            []taxdomain.LineItem `json:"lines"`
}

type RecalculateResponse struct {
	IsInterstate bool                 `json:"is_interstate"`
	Lines        []taxdomain.LineItem `json:"lines"`
	Subtotal     float64              `json:"subtotal"`
	TaxTotal     float64              `json:"tax_total"`
	GrandTotal   float64              `json:"grand_total"`
}

type ValidateRequest struct {
	DestinationState string               `json:"destination_state"`
	Lines            []taxdomain.LineItem `json:"lines"`
}

type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Issues []taxdomain.Issue `json:"issues"`
}

type SubmitOrderRequest struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	ShippingAddress string `json:"shipping_address,omitempty"`
	ShippingCity    string `json:"shipping_city,omitempty"`
	ShippingState   string `json:"shipping_state"`
	ShippingPincode string `json:"shipping_pincode,omitempty"`

	PaymentMode string  `json:"payment_mode,omitempty"`
	CODAmount   float64 `json:"cod_amount,omitempty"`
	DeliveryFee float64 `json:"delivery_fee,omitempty"`

	Lines []taxdomain.LineItem `json:"lines"`
}

type ListOrderRequest struct {
	PageToken   string
	PageSize    int
	Status      OrderStatus
	PaymentMode string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []*Order `json:"orders"`
}

type CreateShipmentRequest struct {
	OrderID     string `json:"-"`
	WeightGrams int    `json:"weight_grams,omitempty"`
}

// SlipRenderer renders in-house shipment paperwork.
type SlipRenderer interface {
	PackingSlip(order *Order, lines []taxdomain.LineItem, waybills []*Waybill) ([]byte, error)
}

type Service interface {
	// TaxCatalog returns the live, family-classified tax catalog.
	TaxCatalog(ctx context.Context) (*taxdomain.Catalog, error)

	// RecalculateLines runs the resolver and reconciler over every line
	// for the given destination. Inputs are not mutated.
	RecalculateLines(ctx context.Context, req RecalculateRequest) (*RecalculateResponse, error)

	// ValidateOrder reports tax placement issues without changing anything.
	ValidateOrder(ctx context.Context, req ValidateRequest) (*ValidateResponse, error)

	// SubmitOrder validates, invoices through the billing collaborator and
	// persists the order. Orders with open issues are rejected.
	SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, req ListOrderRequest) (*ListOrderResponse, error)

	// CreateShipment books the courier shipment and persists the waybill.
	CreateShipment(ctx context.Context, req CreateShipmentRequest) (*Waybill, error)

	// GetTracking returns courier status for a waybill, refreshing from the
	// courier when the stored status is stale.
	GetTracking(ctx context.Context, waybillNumber string) (*Waybill, error)

	// RefreshTracking updates every non-terminal waybill from the courier.
	RefreshTracking(ctx context.Context) (int, error)

	// PackingSlip renders the in-house packing slip PDF for an order.
	PackingSlip(ctx context.Context, orderID string) ([]byte, error)

	// InvoicePDF downloads the billed invoice PDF for an invoiced order.
	InvoicePDF(ctx context.Context, orderID string) ([]byte, error)
}

// ValidationError carries the validator findings that blocked submission.
type ValidationError struct {
	Issues []taxdomain.Issue
}

func (e *ValidationError) Error() string {
	return "order_validation_failed"
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrNoLines             = errors.New("order_has_no_lines")
	ErrValidationFailed    = errors.New("order_validation_failed")
	ErrDuplicateSubmission = errors.New("order_submission_in_progress")
	ErrAlreadyShipped      = errors.New("order_already_shipped")
	ErrNotInvoiced         = errors.New("order_not_invoiced")
	ErrMissingCustomerName = errors.New("invalid_customer_name")
	ErrInvalidPaymentMode  = errors.New("invalid_payment_mode")
	ErrCatalogUnavailable  = errors.New("tax_catalog_unavailable")
)
