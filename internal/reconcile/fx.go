package reconcile

import (
	"context"

	"github.com/rentkit/payflow/internal/amazonpay"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile",
	fx.Provide(func(c *amazonpay.Client) Gateway { return c }),
	fx.Provide(NewNotificationHandler),
	fx.Provide(NewWorker),
	fx.Invoke(startWorker),
)

func startWorker(lc fx.Lifecycle, w *Worker) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go w.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
