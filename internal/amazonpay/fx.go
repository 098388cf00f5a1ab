package amazonpay

import (
	"github.com/rentkit/payflow/internal/config"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the processor client. The client is built once at process
// start and shared by every component.
var Module = fx.Module("amazonpay",
	fx.Provide(func(cfg config.Config, log *zap.Logger, m *obsmetrics.Metrics) *Client {
		return NewClient(cfg.AmazonPay, log, m)
	}),
)
