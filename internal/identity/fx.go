package identity

import (
	"github.com/rentkit/payflow/internal/identity/repository"
	"github.com/rentkit/payflow/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
