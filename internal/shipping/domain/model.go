// Package domain defines the contract with the Delhivery shipping
// collaborator.
package domain

import "time"

// ServiceabilityResult reports whether a destination pincode can be
// served, and by which payment modes.
type ServiceabilityResult struct {
	Pincode     string `json:"pincode"`
	Serviceable bool   `json:"serviceable"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Prepaid     bool   `json:"prepaid"`
	COD         bool   `json:"cod"`
}

// ShipmentRequest creates one shipment for a confirmed order.
type ShipmentRequest struct {
	OrderReference string  `json:"order_reference"`
	InvoiceNumber  string  `json:"invoice_number,omitempty"`
	PaymentMode    string  `json:"payment_mode"`
	CODAmount      float64 `json:"cod_amount,omitempty"`
	DeclaredValue  float64 `json:"declared_value"`

	ConsigneeName string `json:"consignee_name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	Phone         string `json:"phone"`

	WeightGrams int `json:"weight_grams,omitempty"`
}

// Shipment is the created shipment as reported back by the courier.
type Shipment struct {
	WaybillNumber  string `json:"waybill_number"`
	OrderReference string `json:"order_reference"`
	Status         string `json:"status"`
	Remarks        string `json:"remarks,omitempty"`
}

// TrackingInfo is the latest known courier status for one waybill.
type TrackingInfo struct {
	WaybillNumber string    `json:"waybill_number"`
	Status        string    `json:"status"`
	StatusType    string    `json:"status_type,omitempty"`
	Location      string    `json:"location,omitempty"`
	Instructions  string    `json:"instructions,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PickupRequest schedules a courier pickup at the configured location.
type PickupRequest struct {
	Date         string `json:"pickup_date"`
	Time         string `json:"pickup_time"`
	PackageCount int    `json:"expected_package_count"`
}
