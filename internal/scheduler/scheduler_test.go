package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftline/salesdesk/internal/clock"
	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

type refreshOnlyService struct{ mock.Mock }

func (m *refreshOnlyService) TaxCatalog(ctx context.Context) (*taxdomain.Catalog, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) RecalculateLines(ctx context.Context, req orderdomain.RecalculateRequest) (*orderdomain.RecalculateResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) ValidateOrder(ctx context.Context, req orderdomain.ValidateRequest) (*orderdomain.ValidateResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) SubmitOrder(ctx context.Context, req orderdomain.SubmitOrderRequest) (*orderdomain.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) GetOrder(ctx context.Context, id string) (*orderdomain.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) ListOrders(ctx context.Context, req orderdomain.ListOrderRequest) (*orderdomain.ListOrderResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) CreateShipment(ctx context.Context, req orderdomain.CreateShipmentRequest) (*orderdomain.Waybill, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) GetTracking(ctx context.Context, waybillNumber string) (*orderdomain.Waybill, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) RefreshTracking(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *refreshOnlyService) PackingSlip(ctx context.Context, orderID string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (m *refreshOnlyService) InvoicePDF(ctx context.Context, orderID string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func newTestScheduler(t *testing.T, orders orderdomain.Service) *Scheduler {
	t.Helper()
	sched, err := New(Params{
		Log:    zap.NewNop(),
		Orders: orders,
		Clock:  clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
		Config: Config{RunInterval: time.Minute, JobTimeout: time.Second},
	})
	require.NoError(t, err)
	return sched
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceRefreshesTracking(t *testing.T) {
	orders := &refreshOnlyService{}
	orders.On("RefreshTracking", mock.Anything).Return(3, nil)

	sched := newTestScheduler(t, orders)
	require.NoError(t, sched.RunOnce(context.Background()))
	orders.AssertCalled(t, "RefreshTracking", mock.Anything)
}

func TestRunOnceWrapsJobError(t *testing.T) {
	orders := &refreshOnlyService{}
	orders.On("RefreshTracking", mock.Anything).Return(0, errors.New("courier down"))

	sched := newTestScheduler(t, orders)
	err := sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracking_refresh")
}

func TestRunOnceSwallowsTimeout(t *testing.T) {
	orders := &refreshOnlyService{}
	orders.On("RefreshTracking", mock.Anything).Return(0, context.DeadlineExceeded)

	sched := newTestScheduler(t, orders)
	assert.NoError(t, sched.RunOnce(context.Background()))
}
