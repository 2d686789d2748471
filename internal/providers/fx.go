package providers

import (
	"go.uber.org/fx"

	"github.com/craftline/salesdesk/internal/providers/pdf"
)

var Module = fx.Module("providers",
	fx.Provide(pdf.New),
)
