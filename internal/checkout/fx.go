package checkout

import (
	"github.com/rentkit/payflow/internal/amazonpay"
	"github.com/rentkit/payflow/internal/checkout/domain"
	"github.com/rentkit/payflow/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout",
	fx.Provide(func(c *amazonpay.Client) domain.Gateway { return c }),
	fx.Provide(service.NewService),
)
