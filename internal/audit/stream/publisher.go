// Package stream publishes audit entries to Kafka for SIEM and compliance
// consumers.
//
// Publishing is best-effort and asynchronous: entries are buffered on a
// channel and produced by a background loop. A full buffer drops the entry
// with a warning — the PostgreSQL audit store is the durable record, the
// stream is a convenience feed. Stream failures never fail a workflow
// operation.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"talentgate/internal/audit"
)

const inboxSize = 256

// Publisher streams audit entries to a Kafka topic.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	inbox  chan audit.Entry
}

// New connects a Kafka producer for the audit stream.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
		inbox:  make(chan audit.Entry, inboxSize),
	}, nil
}

// EnsureTopic creates the audit topic if it does not exist yet so a fresh
// environment works without manual broker setup.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	adm := kadm.NewClient(p.client)
	_, err := adm.CreateTopic(ctx, partitions, replicas, nil, p.topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	return nil
}

// Enqueue hands an entry to the background producer without blocking the
// caller. Entries are dropped, with a warning, when the buffer is full.
func (p *Publisher) Enqueue(entry audit.Entry) {
	select {
	case p.inbox <- entry:
	default:
		p.logger.Warn("audit stream buffer full, dropping entry",
			"action", string(entry.Action), "target_id", entry.TargetID)
	}
}

// Run consumes the inbox and produces to Kafka until the context is
// cancelled. Produce failures are logged, never propagated.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.client.Flush(context.Background())
			return ctx.Err()
		case entry := <-p.inbox:
			payload, err := json.Marshal(entry)
			if err != nil {
				p.logger.Error("marshal audit entry for stream", "error", err.Error())
				continue
			}
			record := &kgo.Record{Key: []byte(entry.TargetID), Value: payload}
			p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
				if err != nil {
					p.logger.Warn("audit stream produce failed",
						"action", string(entry.Action), "error", err.Error())
				}
			})
		}
	}
}

// Close flushes and releases the producer.
func (p *Publisher) Close() {
	p.client.Flush(context.Background())
	p.client.Close()
}
