package domain

import "context"

// Client is the courier boundary. Implementations are HTTP adapters.
type Client interface {
	// CheckPincode reports serviceability for a destination pincode.
	// Unknown pincodes come back with Serviceable false, not an error.
	CheckPincode(ctx context.Context, pincode string) (*ServiceabilityResult, error)

	// AllocateWaybills reserves count waybill numbers in bulk.
	AllocateWaybills(ctx context.Context, count int) ([]string, error)

	CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error)
	Track(ctx context.Context, waybillNumber string) (*TrackingInfo, error)
	FetchLabel(ctx context.Context, waybillNumber string) ([]byte, error)
	RequestPickup(ctx context.Context, req PickupRequest) error
}
