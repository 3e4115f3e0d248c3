// Package events streams executed trades to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"stockit/config"
	"stockit/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type TradeExecuted struct {
	TransactionID uint                   `json:"transactionId"`
	UserID        uint                   `json:"userId"`
	Symbol        string                 `json:"symbol"`
	Type          models.TransactionType `json:"type"`
	Quantity      int64                  `json:"quantity"`
	Price         decimal.Decimal        `json:"price"`
	TotalAmount   decimal.Decimal        `json:"totalAmount"`
	ExecutedAt    time.Time              `json:"executedAt"`
}

func NewTradeExecuted(tx *models.Transaction) TradeExecuted {
	return TradeExecuted{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Symbol:        tx.Symbol,
		Type:          tx.Type,
		Quantity:      tx.Quantity,
		Price:         tx.Price,
		TotalAmount:   tx.TotalAmount,
		ExecutedAt:    tx.TransactionDate,
	}
}

type Publisher interface {
	PublishTrade(ctx context.Context, event TradeExecuted) error
	Close() error
}

// New returns a Kafka publisher, or a no-op one when no brokers are set.
func New(cfg config.KafkaConfig, log *slog.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info("kafka brokers not configured, trade events disabled")
		return Noop{}
	}
	return NewKafkaPublisher(cfg, log)
}

type KafkaPublisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) PublishTrade(ctx context.Context, event TradeExecuted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("can't marshal trade event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: payload,
		Time:  event.ExecutedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write trade event: %w", err)
	}

	p.log.Debug("trade event published", "transactionID", event.TransactionID, "topic", p.writer.Topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type Noop struct{}

func (Noop) PublishTrade(context.Context, TradeExecuted) error { return nil }

func (Noop) Close() error { return nil }
