package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/craftline/salesdesk/internal/order/domain"
	"github.com/craftline/salesdesk/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) UpdateOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	order.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(order).Error
}

func (r *repo) FindOrderByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindOrderByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*domain.Order, error) {
	if key == "" {
		return nil, nil
	}
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE idempotency_key = ?`,
		key,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) ListOrders(ctx context.Context, db *gorm.DB, filter domain.ListOrderFilter, page pagination.Pagination) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PaymentMode != "" {
		stmt = stmt.Where("payment_mode = ?", filter.PaymentMode)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where(
			"(created_at, id) < (?, ?)",
			createdAt,
			id.Int64(),
		)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 20
	}

	// Fetch one extra row to detect whether a next page exists.
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) InsertWaybill(ctx context.Context, db *gorm.DB, waybill *domain.Waybill) error {
	return db.WithContext(ctx).Create(waybill).Error
}

func (r *repo) UpdateWaybill(ctx context.Context, db *gorm.DB, waybill *domain.Waybill) error {
	waybill.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(waybill).Error
}

func (r *repo) FindWaybillByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.Waybill, error) {
	var waybill domain.Waybill
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM waybills WHERE waybill_number = ?`,
		number,
	).Scan(&waybill).Error
	if err != nil {
		return nil, err
	}
	if waybill.ID == 0 {
		return nil, nil
	}
	return &waybill, nil
}

func (r *repo) ListWaybillsByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*domain.Waybill, error) {
	var waybills []*domain.Waybill
	err := db.WithContext(ctx).
		Model(&domain.Waybill{}).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&waybills).Error
	if err != nil {
		return nil, err
	}
	return waybills, nil
}

func (r *repo) ListActiveWaybills(ctx context.Context, db *gorm.DB, limit int) ([]*domain.Waybill, error) {
	if limit <= 0 {
		limit = 100
	}
	var waybills []*domain.Waybill
	err := db.WithContext(ctx).
		Model(&domain.Waybill{}).
		Where("courier_status NOT IN ?", []string{"Delivered", "RTO", "Cancelled", "LOST"}).
		Order("last_tracked_at asc NULLS FIRST").
		Limit(limit).
		Find(&waybills).Error
	if err != nil {
		return nil, err
	}
	return waybills, nil
}
