package repository

import (
	"context"
	"time"

	"FinRatio/internal/domain/models"
	domrepo "FinRatio/internal/domain/repository"
	pkgkafka "FinRatio/pkg/kafka"
)

// batchProducer is the part of pkg/kafka.Producer the publisher uses.
type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// RatioMessage is the payload of one record on the ratios topic.
type RatioMessage struct {
	RunID       string        `json:"run_id"`
	Group       models.Group  `json:"group"`
	Ticker      string        `json:"ticker"`
	GeneratedAt time.Time     `json:"generated_at"`
	Record      models.Record `json:"record"`
}

// KafkaRatioPublisher sends one message per record, keyed by ticker so a ticker's history stays ordered.
type KafkaRatioPublisher struct {
	producer batchProducer
	topic    string
}

var _ domrepo.RatioPublisher = (*KafkaRatioPublisher)(nil)

func NewKafkaRatioPublisher(p batchProducer, topic string) *KafkaRatioPublisher {
	return &KafkaRatioPublisher{producer: p, topic: topic}
}

func (p *KafkaRatioPublisher) PublishReport(ctx context.Context, r *models.Report) error {
	var msgs []pkgkafka.Message
	for _, g := range models.Groups {
		for _, rec := range r.Records(g) {
			msgs = append(msgs, pkgkafka.Message{
				Key: []byte(rec.Symbol()),
				Value: RatioMessage{
					RunID:       r.RunID,
					Group:       g,
					Ticker:      rec.Symbol(),
					GeneratedAt: r.FinishedAt,
					Record:      rec,
				},
			})
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRatioPublisher) Close() error { return p.producer.Close() }
