package charge

import (
	"github.com/rentkit/payflow/internal/charge/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("charge",
	fx.Provide(repository.Provide),
)
