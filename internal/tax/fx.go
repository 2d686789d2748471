package tax

import (
	"go.uber.org/fx"

	"github.com/craftline/salesdesk/internal/tax/service"
)

var Module = fx.Module("tax.engine",
	fx.Provide(service.NewEngine),
)
