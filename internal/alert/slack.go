package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"go.uber.org/zap"
)

type slackNotifier struct {
	webhookURL string
	httpClient *http.Client
	log        *zap.Logger
	obsMetrics *obsmetrics.Metrics
}

// NewSlackNotifier posts alerts to a Slack incoming webhook and mirrors
// them to the log.
func NewSlackNotifier(webhookURL string, log *zap.Logger, m *obsmetrics.Metrics) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Named("alert.slack"),
		obsMetrics: m,
	}
}

func (n *slackNotifier) Notify(ctx context.Context, event Event) {
	n.obsMetrics.RecordAlert(string(event.Kind))
	n.log.Error(event.Message,
		zap.String("kind", string(event.Kind)),
		zap.String("order_id", event.OrderID.String()),
		zap.Error(event.Err),
	)

	body, err := json.Marshal(map[string]string{"text": event.text()})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.log.Warn("slack alert delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		n.log.Warn("slack alert delivery rejected", zap.Int("status", resp.StatusCode))
	}
}
