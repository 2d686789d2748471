package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/craftline/salesdesk/internal/billing/domain"
	"github.com/craftline/salesdesk/internal/config"
	"github.com/craftline/salesdesk/internal/observability/metrics"
	"github.com/craftline/salesdesk/internal/order/domain"
	"github.com/craftline/salesdesk/internal/ratelimit"
	shippingdomain "github.com/craftline/salesdesk/internal/shipping/domain"
	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
	taxservice "github.com/craftline/salesdesk/internal/tax/service"
	"github.com/craftline/salesdesk/pkg/db"
	"github.com/craftline/salesdesk/pkg/db/pagination"
)

// Tracking fresher than this is served from the store without a courier
// round trip.
const trackingFreshness = 10 * time.Minute

type Params struct {
	fx.In

	Log      *zap.Logger
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   config.Config
	Repo     domain.Repository
	Engine   *taxservice.Engine
	Billing  billingdomain.Client
	Shipping shippingdomain.Client
	Limiter  *ratelimit.OutboundLimiter
	Renderer domain.SlipRenderer
	Metrics  *metrics.Metrics `optional:"true"`
}

type svc struct {
	log      *zap.Logger
	db       *gorm.DB
	node     *snowflake.Node
	repo     domain.Repository
	engine   *taxservice.Engine
	billing  billingdomain.Client
	shipping shippingdomain.Client
	limiter  *ratelimit.OutboundLimiter
	renderer domain.SlipRenderer
	metrics  *metrics.Metrics
	catalog  *catalogCache
	home     taxdomain.HomeState
}

func New(p Params) domain.Service {
	log := p.Log.Named("order.service")
	homeName, homeCode := p.Config.HomeState()
	return &svc{
		log:      log,
		db:       p.DB,
		node:     p.Node,
		repo:     p.Repo,
		engine:   p.Engine,
		billing:  p.Billing,
		shipping: p.Shipping,
		limiter:  p.Limiter,
		renderer: p.Renderer,
		metrics:  p.Metrics,
		catalog:  newCatalogCache(log, p.Billing),
		home:     taxdomain.HomeState{Name: homeName, Code: homeCode},
	}
}

func (s *svc) TaxCatalog(ctx context.Context) (*taxdomain.Catalog, error) {
	return s.catalog.Catalog(ctx)
}

func (s *svc) RecalculateLines(ctx context.Context, req domain.RecalculateRequest) (*domain.RecalculateResponse, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	octx := taxdomain.NewOrderContext(req.DestinationState, s.home)
	lines := s.engine.RecalculateLines(req.Lines, octx, catalog)

	for i := range lines {
		if lines[i].TaxAutoCorrected && !req.Lines[i].TaxAutoCorrected {
			s.metrics.RecordTaxCorrection(ctx, string(octx.Family()))
		}
	}

	subtotal, taxTotal, grandTotal := totals(lines)
	return &domain.RecalculateResponse{
		IsInterstate: octx.IsInterstate,
		Lines:        lines,
		Subtotal:     subtotal,
		TaxTotal:     taxTotal,
		GrandTotal:   grandTotal,
	}, nil
}

func (s *svc) ValidateOrder(ctx context.Context, req domain.ValidateRequest) (*domain.ValidateResponse, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	octx := taxdomain.NewOrderContext(req.DestinationState, s.home)
	issues := s.engine.ValidateOrder(req.Lines, catalog, octx.IsInterstate)
	return &domain.ValidateResponse{
		Valid:  len(issues) == 0,
		Issues: issues,
	}, nil
}

func (s *svc) SubmitOrder(ctx context.Context, req domain.SubmitOrderRequest) (*domain.Order, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, domain.ErrMissingCustomerName
	}
	if len(req.Lines) == 0 {
		return nil, domain.ErrNoLines
	}

	paymentMode := req.PaymentMode
	if paymentMode == "" {
		paymentMode = domain.PaymentModePrepaid
	}
	if paymentMode != domain.PaymentModePrepaid && paymentMode != domain.PaymentModeCOD {
		return nil, domain.ErrInvalidPaymentMode
	}

	// Replay: an order already stored under this key is the answer.
	if existing, err := s.repo.FindOrderByIdempotencyKey(ctx, s.db, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if req.IdempotencyKey != "" {
		token, ok, err := s.limiter.TryLockSubmission(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrDuplicateSubmission
		}
		defer s.limiter.ReleaseSubmission(ctx, req.IdempotencyKey, token)
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	octx := taxdomain.NewOrderContext(req.ShippingState, s.home)
	lines := appendSystemCharges(req.Lines, req.DeliveryFee)
	lines = s.engine.RecalculateLines(lines, octx, catalog)

	if issues := s.engine.ValidateOrder(lines, catalog, octx.IsInterstate); len(issues) > 0 {
		return nil, &domain.ValidationError{Issues: issues}
	}

	contact, err := s.billing.EnsureContact(ctx, billingdomain.ContactRequest{
		DisplayName: req.CustomerName,
		Email:       req.CustomerEmail,
		Phone:       req.CustomerPhone,
		Address:     req.ShippingAddress,
		City:        req.ShippingCity,
		State:       req.ShippingState,
		Pincode:     req.ShippingPincode,
	})
	if err != nil {
		return nil, err
	}

	lines, err = s.ensureItems(ctx, lines)
	if err != nil {
		return nil, err
	}

	invoice, err := s.billing.CreateInvoice(ctx, billingdomain.InvoiceRequest{
		CustomerID:      contact.CustomerID,
		ReferenceNumber: req.IdempotencyKey,
		PlaceOfSupply:   req.ShippingState,
		Lines:           invoiceLines(lines),
	})
	if err != nil {
		return nil, err
	}

	if err := s.billing.MarkInvoiceSent(ctx, invoice.InvoiceID); err != nil {
		s.log.Warn("mark invoice sent failed",
			zap.String("invoice_id", invoice.InvoiceID),
			zap.Error(err),
		)
	}

	subtotal, taxTotal, grandTotal := totals(lines)
	order := &domain.Order{
		ID:              s.node.Generate(),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingPincode: req.ShippingPincode,
		IsInterstate:    octx.IsInterstate,
		PaymentMode:     paymentMode,
		CODAmount:       req.CODAmount,
		Subtotal:        subtotal,
		TaxTotal:        taxTotal,
		GrandTotal:      grandTotal,
		InvoiceID:       invoice.InvoiceID,
		InvoiceNumber:   invoice.InvoiceNumber,
		Status:          domain.StatusInvoiced,
		IdempotencyKey:  req.IdempotencyKey,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := order.SetLines(lines); err != nil {
		return nil, err
	}

	if err := s.repo.InsertOrder(ctx, s.db, order); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindOrderByIdempotencyKey(ctx, s.db, req.IdempotencyKey)
		}
		return nil, err
	}

	s.metrics.RecordOrderSubmitted(ctx, octx.IsInterstate)
	s.log.Info("order submitted",
		zap.Int64("order_id", order.ID.Int64()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Bool("interstate", octx.IsInterstate),
	)
	return order, nil
}

// ensureItems creates billing catalog items for product lines sold the
// first time. System charges and already-linked lines pass through.
func (s *svc) ensureItems(ctx context.Context, lines []taxdomain.LineItem) ([]taxdomain.LineItem, error) {
	out := make([]taxdomain.LineItem, len(lines))
	copy(out, lines)

	for i, line := range out {
		if line.IsSystemCharge() || line.CatalogItemID != "" || strings.TrimSpace(line.Name) == "" {
			continue
		}
		item, err := s.billing.EnsureItem(ctx, billingdomain.ItemRequest{
			Name:     line.Name,
			Rate:     taxservice.RoundCurrency(line.Rate),
			HSNOrSAC: line.HSNOrSAC,
			TaxID:    taxIDForInvoice(line),
		})
		if err != nil {
			return nil, err
		}
		out[i].CatalogItemID = item.ItemID
	}
	return out, nil
}

func (s *svc) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	order, err := s.repo.FindOrderByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *svc) ListOrders(ctx context.Context, req domain.ListOrderRequest) (*domain.ListOrderResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 20
	}

	orders, err := s.repo.ListOrders(ctx, s.db, domain.ListOrderFilter{
		Status:      req.Status,
		PaymentMode: req.PaymentMode,
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return nil, err
	}

	orders, pageInfo := pagination.BuildCursorPageInfo(orders, pageSize, func(o *domain.Order) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        o.ID.String(),
			CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	return &domain.ListOrderResponse{
		PageInfo: *pageInfo,
		Orders:   orders,
	}, nil
}

func (s *svc) CreateShipment(ctx context.Context, req domain.CreateShipmentRequest) (*domain.Waybill, error) {
	order, err := s.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case domain.StatusInvoiced, domain.StatusShipped:
	case domain.StatusDraft, domain.StatusCancelled:
		return nil, domain.ErrNotInvoiced
	default:
		return nil, domain.ErrAlreadyShipped
	}

	codAmount := 0.0
	if order.PaymentMode == domain.PaymentModeCOD {
		codAmount = order.CODAmount
		if codAmount == 0 {
			codAmount = order.GrandTotal
		}
	}

	shipment, err := s.shipping.CreateShipment(ctx, shippingdomain.ShipmentRequest{
		OrderReference: order.ID.String(),
		InvoiceNumber:  order.InvoiceNumber,
		PaymentMode:    order.PaymentMode,
		CODAmount:      codAmount,
		DeclaredValue:  order.GrandTotal,
		ConsigneeName:  order.CustomerName,
		Address:        order.ShippingAddress,
		City:           order.ShippingCity,
		State:          order.ShippingState,
		Pincode:        order.ShippingPincode,
		Phone:          order.CustomerPhone,
		WeightGrams:    req.WeightGrams,
	})
	if err != nil {
		return nil, err
	}

	waybill := &domain.Waybill{
		ID:            s.node.Generate(),
		WaybillNumber: shipment.WaybillNumber,
		OrderID:       order.ID,
		CourierStatus: "Manifested",
		Destination:   fmt.Sprintf("%s, %s", order.ShippingCity, order.ShippingState),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.repo.InsertWaybill(ctx, s.db, waybill); err != nil {
		return nil, err
	}

	if order.Status != domain.StatusShipped {
		order.Status = domain.StatusShipped
		if err := s.repo.UpdateOrder(ctx, s.db, order); err != nil {
			return nil, err
		}
	}

	s.metrics.RecordShipmentCreated(ctx)
	s.log.Info("shipment created",
		zap.Int64("order_id", order.ID.Int64()),
		zap.String("waybill", waybill.WaybillNumber),
	)
	return waybill, nil
}

func (s *svc) GetTracking(ctx context.Context, waybillNumber string) (*domain.Waybill, error) {
	waybill, err := s.repo.FindWaybillByNumber(ctx, s.db, strings.TrimSpace(waybillNumber))
	if err != nil {
		return nil, err
	}
	if waybill == nil {
		return nil, domain.ErrNotFound
	}

	if domain.IsTerminalCourierStatus(waybill.CourierStatus) {
		return waybill, nil
	}
	if waybill.LastTrackedAt != nil && time.Since(*waybill.LastTrackedAt) < trackingFreshness {
		return waybill, nil
	}

	if err := s.refreshWaybill(ctx, waybill); err != nil {
		// Serve the stored status when the courier is unreachable.
		s.log.Warn("tracking refresh failed",
			zap.String("waybill", waybill.WaybillNumber),
			zap.Error(err),
		)
	}
	return waybill, nil
}

func (s *svc) RefreshTracking(ctx context.Context) (int, error) {
	waybills, err := s.repo.ListActiveWaybills(ctx, s.db, 100)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, waybill := range waybills {
		if err := s.refreshWaybill(ctx, waybill); err != nil {
			s.log.Warn("tracking refresh failed",
				zap.String("waybill", waybill.WaybillNumber),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *svc) refreshWaybill(ctx context.Context, waybill *domain.Waybill) error {
	info, err := s.shipping.Track(ctx, waybill.WaybillNumber)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	waybill.CourierStatus = info.Status
	waybill.LastTrackedAt = &now

	if err := s.repo.UpdateWaybill(ctx, s.db, waybill); err != nil {
		return err
	}

	if info.Status == "Delivered" {
		order, err := s.repo.FindOrderByID(ctx, s.db, waybill.OrderID)
		if err == nil && order != nil && order.Status == domain.StatusShipped {
			order.Status = domain.StatusDelivered
			if err := s.repo.UpdateOrder(ctx, s.db, order); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *svc) PackingSlip(ctx context.Context, orderID string) ([]byte, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines, err := order.Lines()
	if err != nil {
		return nil, err
	}

	waybills, err := s.repo.ListWaybillsByOrder(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}

	return s.renderer.PackingSlip(order, lines, waybills)
}

func (s *svc) InvoicePDF(ctx context.Context, orderID string) ([]byte, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.InvoiceID == "" {
		return nil, domain.ErrNotInvoiced
	}

	return s.billing.GetInvoicePDF(ctx, order.InvoiceID)
}

// appendSystemCharges adds the generated fee lines the wizard shows as
// non-editable. They are owned by the system and never resolved against
// the tax catalog.
func appendSystemCharges(lines []taxdomain.LineItem, deliveryFee float64) []taxdomain.LineItem {
	out := make([]taxdomain.LineItem, len(lines))
	copy(out, lines)

	if deliveryFee > 0 {
		out = append(out, taxdomain.LineItem{
			Name:          "Delivery Charge",
			CatalogItemID: taxdomain.ItemLinkSystem,
			Quantity:      1,
			FinalPrice:    deliveryFee,
		})
	}
	return out
}

func invoiceLines(lines []taxdomain.LineItem) []billingdomain.InvoiceLine {
	out := make([]billingdomain.InvoiceLine, 0, len(lines))
	for _, line := range lines {
		invoiceLine := billingdomain.InvoiceLine{
			Name:     line.Name,
			HSNOrSAC: line.HSNOrSAC,
			Rate:     taxservice.RoundCurrency(line.Rate),
			Quantity: line.Quantity,
			TaxID:    taxIDForInvoice(line),
		}
		if !line.IsSystemCharge() {
			invoiceLine.ItemID = line.CatalogItemID
		}
		out = append(out, invoiceLine)
	}
	return out
}

func taxIDForInvoice(line taxdomain.LineItem) string {
	if !line.HasTax() {
		return ""
	}
	return line.TaxID
}

func totals(lines []taxdomain.LineItem) (subtotal, taxTotal, grandTotal float64) {
	for _, line := range lines {
		subtotal += line.ItemTotal
		taxTotal += line.TaxAmount
		grandTotal += line.FinalPrice * line.Quantity
	}
	return taxservice.RoundCurrency(subtotal),
		taxservice.RoundCurrency(taxTotal),
		taxservice.RoundCurrency(grandTotal)
}
