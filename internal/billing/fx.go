package billing

import (
	"go.uber.org/fx"

	"github.com/craftline/salesdesk/internal/billing/zoho"
)

var Module = fx.Module("billing",
	fx.Provide(zoho.NewClient),
)
