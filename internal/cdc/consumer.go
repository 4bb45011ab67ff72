// Package cdc consumes change-data-capture events from Kafka and republishes
// each one as a structured log record.
package cdc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"authgate/internal/config"
	"authgate/internal/logging"
)

// Envelope — формат событий canal-json (TiCDC).
type Envelope struct {
	Database string           `json:"database"`
	Table    string           `json:"table"`
	Type     string           `json:"type"`
	TS       int64            `json:"ts"`
	Data     []map[string]any `json:"data"`
}

// Record — производная запись, одна на сообщение.
type Record struct {
	Action    string           `json:"action"`
	Database  string           `json:"database"`
	Table     string           `json:"table"`
	Partition int              `json:"partition"`
	TS        int64            `json:"ts"`
	Rows      []map[string]any `json:"rows"`
}

type Consumer struct {
	reader *kafka.Reader
	log    logging.Logger
}

func NewConsumer(cfg *config.Config, log logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroup,
		Topic:       cfg.KafkaTopic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxAttempts: 10,
		Dialer: &kafka.Dialer{
			Timeout:   3 * time.Second,
			DualStack: true,
		},
	})

	return &Consumer{reader: reader, log: log}
}

// Run читает топик до отмены контекста. Семантика at-least-once: оффсет
// коммитится после записи лога.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info(ctx, "subscribed to topic", "topic", c.reader.Config().Topic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		c.handle(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("commit offset: %w", err)
		}
	}
}

// handle логирует производную запись. Ошибка разбора касается одного
// сообщения и не останавливает поток.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	rec, err := decode(m)
	if err != nil {
		c.log.Error(ctx, "failed to parse message", "error", err, "partition", m.Partition, "offset", m.Offset)
		return
	}

	c.log.Info(ctx, "cdc event",
		"action", rec.Action,
		"database", rec.Database,
		"table", rec.Table,
		"partition", rec.Partition,
		"ts", rec.TS,
		"rows", rec.Rows,
	)
}

func decode(m kafka.Message) (*Record, error) {
	var evt Envelope
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		return nil, err
	}

	return &Record{
		Action:    evt.Type,
		Database:  evt.Database,
		Table:     evt.Table,
		Partition: m.Partition,
		TS:        evt.TS,
		Rows:      evt.Data,
	}, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
