package alert

import (
	"github.com/rentkit/payflow/internal/config"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the operator alert notifier. A Slack webhook is used when
// configured; otherwise alerts go to the structured log only.
var Module = fx.Module("alert",
	fx.Provide(func(cfg config.Config, log *zap.Logger, m *obsmetrics.Metrics) Notifier {
		if cfg.SlackWebhook != "" {
			return NewSlackNotifier(cfg.SlackWebhook, log, m)
		}
		return NewLogNotifier(log, m)
	}),
)
