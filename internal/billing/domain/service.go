package domain

import (
	"context"

	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

// Client is the Zoho Billing boundary. Implementations are HTTP adapters;
// the rest of the service depends only on this contract.
type Client interface {
	// ListTaxes fetches the live tax catalog. Family classification happens
	// in the tax domain, not here.
	ListTaxes(ctx context.Context) (*taxdomain.Catalog, error)

	// EnsureContact finds a customer by email or phone, creating one when
	// no match exists.
	EnsureContact(ctx context.Context, req ContactRequest) (*Contact, error)

	// EnsureItem creates the catalog item when the product has no linkage
	// yet. System charge lines never reach this call.
	EnsureItem(ctx context.Context, req ItemRequest) (*Item, error)

	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	MarkInvoiceSent(ctx context.Context, invoiceID string) error
	GetInvoicePDF(ctx context.Context, invoiceID string) ([]byte, error)
}
