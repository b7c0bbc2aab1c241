//! NATS result publishing
//!
//! Pushes finished run results onto a JetStream stream so downstream consumers
//! (dashboards, persistence workers) can pick them up.

package report

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"sentiment-backtest/services/engine"
)

const (
	streamName     = "BACKTEST"
	subjectPattern = "backtest.results.*.*"
)

// Publisher pushes strategy results onto NATS JetStream.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewPublisher connects to url and ensures the results stream exists.
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	// Create stream if it doesn't exist
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPattern},
	})
	if err != nil {
		// If stream exists, we might need to update it
		_, err = js.UpdateStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{subjectPattern},
		})
		if err != nil {
			logger.Warn("failed to create or update stream", zap.Error(err))
		}
	}

	return &Publisher{nc: nc, js: js, logger: logger}, nil
}

// Publish sends one result to backtest.results.<symbol>.<variant>.
func (p *Publisher) Publish(result *engine.StrategyResult) error {
	subject := subjectFor(result)
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if _, err := p.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	p.logger.Info("published result",
		zap.String("subject", subject),
		zap.String("strategy", result.StrategyName))
	return nil
}

// PublishAll sends every result, stopping at the first failure.
func (p *Publisher) PublishAll(results []*engine.StrategyResult) error {
	for _, result := range results {
		if err := p.Publish(result); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	p.nc.Close()
}

func subjectFor(result *engine.StrategyResult) string {
	return fmt.Sprintf("backtest.results.%s.%s", result.Symbol, result.Debug.StrategyVariant)
}
