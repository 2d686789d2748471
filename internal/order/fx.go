package order

import (
	"go.uber.org/fx"

	"github.com/craftline/salesdesk/internal/order/repository"
	"github.com/craftline/salesdesk/internal/order/service"
)

var Module = fx.Module("order",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
