package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/craftline/salesdesk/internal/config"
	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Dev and test databases take the gorm schema directly.
			return conn.AutoMigrate(
				&orderdomain.Order{},
				&orderdomain.Waybill{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
