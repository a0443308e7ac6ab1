package metrics

import "time"

// NoopMetrics is a no-operation Recorder used when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordActivityIngested(result string)                             {}
func (n *NoopMetrics) RecordWebhookDelivery(event string, success bool)                 {}
func (n *NoopMetrics) RecordStreamConnected()                                           {}
func (n *NoopMetrics) RecordStreamDisconnected()                                        {}
func (n *NoopMetrics) RecordBroadcast(delivered, failed int)                            {}
func (n *NoopMetrics) RecordHTTPRequest(method, path, status string, dur time.Duration) {}
