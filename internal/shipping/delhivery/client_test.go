package delhivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftline/salesdesk/internal/config"
	"github.com/craftline/salesdesk/internal/ratelimit"
	shippingdomain "github.com/craftline/salesdesk/internal/shipping/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Params{
		Log: zap.NewNop(),
		Config: config.Config{
			Delhivery: config.DelhiveryConfig{
				BaseURL:        srv.URL,
				APIToken:       "token-1",
				PickupLocation: "craftline-blr",
				ClientName:     "craftline",
			},
		},
		Limiter: ratelimit.NewOutboundLimiter(config.Config{}),
	})
	require.NoError(t, err)
	return client.(*Client)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Params{
		Log:     zap.NewNop(),
		Config:  config.Config{},
		Limiter: ratelimit.NewOutboundLimiter(config.Config{}),
	})
	assert.ErrorIs(t, err, shippingdomain.ErrMissingConfig)
}

func TestCheckPincodeServiceable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c/api/pin-codes/json/", r.URL.Path)
		assert.Equal(t, "560001", r.URL.Query().Get("filter_codes"))
		assert.Equal(t, "Token token-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"delivery_codes": []map[string]any{
				{"postal_code": map[string]any{
					"pin":        560001,
					"city":       "Bengaluru",
					"state_code": "Karnataka",
					"pre_paid":   "Y",
					"cod":        "N",
				}},
			},
		})
	}))

	res, err := client.CheckPincode(context.Background(), " 560001 ")
	require.NoError(t, err)
	assert.True(t, res.Serviceable)
	assert.True(t, res.Prepaid)
	assert.False(t, res.COD)
	assert.Equal(t, "Bengaluru", res.City)
}

func TestCheckPincodeUnknownIsNotAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"delivery_codes": []any{}})
	}))

	res, err := client.CheckPincode(context.Background(), "999999")
	require.NoError(t, err)
	assert.False(t, res.Serviceable)
	assert.Equal(t, "999999", res.Pincode)
}

func TestAllocateWaybills(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/waybill/api/bulk/json/", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		json.NewEncoder(w).Encode("1490110000011,1490110000022,1490110000033")
	}))

	waybills, err := client.AllocateWaybills(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1490110000011", "1490110000022", "1490110000033"}, waybills)
}

func TestCreateShipment(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/cmu/create.json", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "json", r.PostForm.Get("format"))

		var payload struct {
			PickupLocation struct {
				Name string `json:"name"`
			} `json:"pickup_location"`
			Shipments []map[string]any `json:"shipments"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("data")), &payload))
		assert.Equal(t, "craftline-blr", payload.PickupLocation.Name)
		require.Len(t, payload.Shipments, 1)
		assert.Equal(t, "ORD-1001", payload.Shipments[0]["order"])
		assert.Equal(t, "COD", payload.Shipments[0]["payment_mode"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"packages": []map[string]any{
				{"waybill": "1490110000011", "status": "Success", "remarks": []string{}},
			},
		})
	}))

	shipment, err := client.CreateShipment(context.Background(), shippingdomain.ShipmentRequest{
		OrderReference: "ORD-1001",
		PaymentMode:    "COD",
		CODAmount:      499,
		ConsigneeName:  "Asha",
		Pincode:        "560001",
	})
	require.NoError(t, err)
	assert.Equal(t, "1490110000011", shipment.WaybillNumber)
	assert.Equal(t, "ORD-1001", shipment.OrderReference)
}

func TestCreateShipmentRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"packages": []map[string]any{
				{"waybill": "", "status": "Fail", "remarks": []string{"pincode not serviceable"}},
			},
		})
	}))

	_, err := client.CreateShipment(context.Background(), shippingdomain.ShipmentRequest{
		OrderReference: "ORD-1002",
	})
	assert.ErrorIs(t, err, shippingdomain.ErrRejected)
}

func TestTrack(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/packages/json/", r.URL.Path)
		assert.Equal(t, "1490110000011", r.URL.Query().Get("waybill"))

		json.NewEncoder(w).Encode(map[string]any{
			"ShipmentData": []map[string]any{
				{"Shipment": map[string]any{
					"AWB": "1490110000011",
					"Status": map[string]any{
						"Status":         "In Transit",
						"StatusType":     "UD",
						"StatusLocation": "Bengaluru_Hub",
						"StatusDateTime": "2026-08-27T18:30:00.000000",
					},
				}},
			},
		})
	}))

	info, err := client.Track(context.Background(), "1490110000011")
	require.NoError(t, err)
	assert.Equal(t, "In Transit", info.Status)
	assert.Equal(t, "Bengaluru_Hub", info.Location)
	assert.Equal(t, 2026, info.UpdatedAt.Year())
}

func TestTrackUnknownWaybill(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ShipmentData": []any{}})
	}))

	_, err := client.Track(context.Background(), "0000000000000")
	assert.ErrorIs(t, err, shippingdomain.ErrNotFound)
}

func TestDoMapsHTTPErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.CheckPincode(context.Background(), "560001")
	assert.ErrorIs(t, err, shippingdomain.ErrRejected)
}

func TestRequestPickup(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fm/request/new/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"pickup_id": 42})
	}))

	err := client.RequestPickup(context.Background(), shippingdomain.PickupRequest{
		Date:         "2026-08-29",
		Time:         "11:00:00",
		PackageCount: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "craftline-blr", got["pickup_location"])
	assert.Equal(t, float64(5), got["expected_package_count"])
}
