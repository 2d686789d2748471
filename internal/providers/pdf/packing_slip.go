// Package pdf renders in-house shipment paperwork.
package pdf

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appconfig "github.com/craftline/salesdesk/internal/config"
	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

type SlipRenderer struct {
	appName string
}

func New(cfg appconfig.Config) orderdomain.SlipRenderer {
	return &SlipRenderer{appName: cfg.AppName}
}

// PackingSlip renders one page per order: ship-to block, waybill numbers
// and the item table. Courier labels stay with the courier; this is the
// slip that goes inside the box.
func (r *SlipRenderer) PackingSlip(order *orderdomain.Order, lines []taxdomain.LineItem, waybills []*orderdomain.Waybill) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Packing Slip", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Order: "+order.ID.String(), props.Text{Top: 0}),
			text.New("Invoice: "+order.InvoiceNumber, props.Text{Top: 4}),
			text.New("Payment: "+paymentLabel(order), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Waybills: "+waybillNumbers(waybills), props.Text{Top: 0}),
			text.New("Date: "+order.CreatedAt.Format("02 Jan 2006"), props.Text{Top: 4}),
		),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Ship to", props.Text{Style: fontstyle.Bold}),
			text.New(order.CustomerName, props.Text{Top: 5}),
			text.New(order.ShippingAddress, props.Text{Top: 9}),
			text.New(destination(order), props.Text{Top: 17}),
			text.New(order.CustomerPhone, props.Text{Top: 21}),
		),
		col.New(6).Add(
			text.New("From", props.Text{Style: fontstyle.Bold}),
			text.New(r.appName, props.Text{Top: 5}),
		),
	)

	m.AddRow(8,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "HSN/SAC", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range lines {
		m.AddRow(10,
			text.NewCol(6, line.Name, props.Text{Size: 9}),
			text.NewCol(2, line.HSNOrSAC, props.Text{Size: 9}),
			text.NewCol(2, formatQty(line.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(line.FinalPrice*line.Quantity), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, formatAmount(order.GrandTotal), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func paymentLabel(order *orderdomain.Order) string {
	if order.PaymentMode == orderdomain.PaymentModeCOD {
		return fmt.Sprintf("COD (collect %s)", formatAmount(order.CODAmount))
	}
	return order.PaymentMode
}

func destination(order *orderdomain.Order) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{order.ShippingCity, order.ShippingState, order.ShippingPincode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func waybillNumbers(waybills []*orderdomain.Waybill) string {
	if len(waybills) == 0 {
		return "-"
	}
	numbers := make([]string, 0, len(waybills))
	for _, w := range waybills {
		numbers = append(numbers, w.WaybillNumber)
	}
	return strings.Join(numbers, ", ")
}

func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

func formatAmount(v float64) string {
	return fmt.Sprintf("Rs. %.2f", v)
}
