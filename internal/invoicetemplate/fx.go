package invoicetemplate

import (
	"github.com/openrentals/rentbill/internal/invoicetemplate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoicetemplate.service",
	fx.Provide(service.NewService),
)
