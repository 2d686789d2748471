// Package domain defines the request/response contract with the Zoho
// Billing collaborator. Only the shapes this service exchanges are modeled.
package domain

// Contact is a Zoho customer record.
type Contact struct {
	CustomerID  string `json:"customer_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// ContactRequest creates or matches a customer.
type ContactRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
}

// Item is a Zoho catalog item.
type Item struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	HSNOrSAC string  `json:"hsn_or_sac,omitempty"`
	TaxID    string  `json:"tax_id,omitempty"`
}

// ItemRequest creates a catalog item for a product sold the first time.
type ItemRequest struct {
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	HSNOrSAC string  `json:"hsn_or_sac,omitempty"`
	TaxID    string  `json:"tax_id,omitempty"`
}

// InvoiceLine is one submitted invoice line. Rate is the pre-tax unit rate
// already back-calculated and rounded to currency precision.
type InvoiceLine struct {
	ItemID      string  `json:"item_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	HSNOrSAC    string  `json:"hsn_or_sac,omitempty"`
	Rate        float64 `json:"rate"`
	Quantity    float64 `json:"quantity"`
	TaxID       string  `json:"tax_id,omitempty"`
}

// InvoiceRequest creates an invoice for an accepted order.
type InvoiceRequest struct {
	CustomerID      string        `json:"customer_id"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	PlaceOfSupply   string        `json:"place_of_supply,omitempty"`
	Lines           []InvoiceLine `json:"line_items"`
}

// Invoice is the created invoice as reported back by Zoho.
type Invoice struct {
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	Status        string  `json:"status"`
	SubTotal      float64 `json:"sub_total"`
	TaxTotal      float64 `json:"tax_total"`
	Total         float64 `json:"total"`
}
