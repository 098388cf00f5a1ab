package order

import (
	"github.com/rentkit/payflow/internal/order/domain"
	"github.com/rentkit/payflow/internal/order/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("order",
	fx.Provide(repository.Provide),
	fx.Provide(func() domain.StockRecomputer { return domain.NoopStockRecomputer{} }),
)
