package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/craftline/salesdesk/pkg/db/pagination"
)

type ListOrderFilter struct {
	Status      OrderStatus
	PaymentMode string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	UpdateOrder(ctx context.Context, db *gorm.DB, order *Order) error
	FindOrderByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindOrderByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*Order, error)
	ListOrders(ctx context.Context, db *gorm.DB, filter ListOrderFilter, page pagination.Pagination) ([]*Order, error)

	InsertWaybill(ctx context.Context, db *gorm.DB, waybill *Waybill) error
	UpdateWaybill(ctx context.Context, db *gorm.DB, waybill *Waybill) error
	FindWaybillByNumber(ctx context.Context, db *gorm.DB, number string) (*Waybill, error)
	ListWaybillsByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*Waybill, error)
	ListActiveWaybills(ctx context.Context, db *gorm.DB, limit int) ([]*Waybill, error)
}
