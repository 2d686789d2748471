package shipping

import (
	"go.uber.org/fx"

	"github.com/craftline/salesdesk/internal/shipping/delhivery"
)

var Module = fx.Module("shipping",
	fx.Provide(delhivery.NewClient),
)
