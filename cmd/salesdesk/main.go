package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/craftline/salesdesk/internal/billing"
	"github.com/craftline/salesdesk/internal/clock"
	"github.com/craftline/salesdesk/internal/config"
	"github.com/craftline/salesdesk/internal/migration"
	"github.com/craftline/salesdesk/internal/observability"
	"github.com/craftline/salesdesk/internal/order"
	"github.com/craftline/salesdesk/internal/providers"
	"github.com/craftline/salesdesk/internal/ratelimit"
	"github.com/craftline/salesdesk/internal/scheduler"
	"github.com/craftline/salesdesk/internal/server"
	"github.com/craftline/salesdesk/internal/shipping"
	"github.com/craftline/salesdesk/internal/tax"
	"github.com/craftline/salesdesk/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain modules
		tax.Module,
		billing.Module,
		shipping.Module,
		ratelimit.Module,
		providers.Module,
		order.Module,
		scheduler.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
