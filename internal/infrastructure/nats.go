package infrastructure

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// InitNATS connects to NATS and makes sure the BACKTEST stream exists, which
// carries completed report payloads for the push gateway and any other
// consumer.
func InitNATS(url string, logger *zap.Logger) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, nil, err
	}

	cfg := &nats.StreamConfig{
		Name:     "BACKTEST",
		Subjects: []string{"backtest.report.*"},
	}
	if _, err := js.AddStream(cfg); err != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			logger.Warn("failed to create or update stream", zap.Error(err))
		}
	}

	return nc, js, nil
}
