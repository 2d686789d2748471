package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusInvoiced  OrderStatus = "INVOICED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

const (
	PaymentModePrepaid = "Prepaid"
	PaymentModeCOD     = "COD"
)

type Order struct {
	ID snowflake.ID `gorm:"primaryKey" json:"id"`

	CustomerName  string `gorm:"not null" json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	ShippingAddress string `json:"shipping_address,omitempty"`
	ShippingCity    string `json:"shipping_city,omitempty"`
	ShippingState   string `json:"shipping_state,omitempty"`
	ShippingPincode string `json:"shipping_pincode,omitempty"`

	// No gorm default tag: the resolved value must always be written, a
	// default would make gorm skip the column whenever it is false.
	IsInterstate bool    `gorm:"not null" json:"is_interstate"`
	PaymentMode  string  `gorm:"not null;default:'Prepaid'" json:"payment_mode"`
	CODAmount    float64 `gorm:"not null;default:0" json:"cod_amount"`

	LineItems datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"line_items"`

	Subtotal   float64 `gorm:"not null;default:0" json:"subtotal"`
	TaxTotal   float64 `gorm:"not null;default:0" json:"tax_total"`
	GrandTotal float64 `gorm:"not null;default:0" json:"grand_total"`

	InvoiceID     string `json:"invoice_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`

	Status         OrderStatus `gorm:"not null;default:'DRAFT'" json:"status"`
	IdempotencyKey string      `json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Lines decodes the stored line items.
func (o *Order) Lines() ([]taxdomain.LineItem, error) {
	if len(o.LineItems) == 0 {
		return nil, nil
	}
	var lines []taxdomain.LineItem
	if err := json.Unmarshal(o.LineItems, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetLines encodes and stores the line items.
func (o *Order) SetLines(lines []taxdomain.LineItem) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	o.LineItems = datatypes.JSON(raw)
	return nil
}

type Waybill struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	WaybillNumber string       `gorm:"not null;uniqueIndex" json:"waybill_number"`
	OrderID       snowflake.ID `gorm:"not null;index" json:"order_id"`
	CourierStatus string       `gorm:"not null;default:'Manifested'" json:"courier_status"`
	Destination   string       `json:"destination,omitempty"`
	LastTrackedAt *time.Time   `json:"last_tracked_at,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Courier statuses that end a waybill's tracking lifecycle.
func IsTerminalCourierStatus(status string) bool {
	switch status {
	case "Delivered", "RTO", "Cancelled", "LOST":
		return true
	}
	return false
}
