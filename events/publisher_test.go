package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"stockit/config"
	"stockit/models"

	"github.com/shopspring/decimal"
)

func TestNewWithoutBrokersIsNoop(t *testing.T) {
	p := New(config.KafkaConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, ok := p.(Noop); !ok {
		t.Fatalf("expected Noop publisher, got %T", p)
	}
	if err := p.PublishTrade(context.Background(), TradeExecuted{}); err != nil {
		t.Errorf("Noop.PublishTrade returned %v", err)
	}
}

func TestNewWithBrokersUsesKafka(t *testing.T) {
	p := New(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "trades"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer p.Close()

	kp, ok := p.(*KafkaPublisher)
	if !ok {
		t.Fatalf("expected KafkaPublisher, got %T", p)
	}
	if kp.writer.Topic != "trades" {
		t.Errorf("expected topic trades, got %s", kp.writer.Topic)
	}
}

func TestTradeExecutedPayload(t *testing.T) {
	executed := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	event := NewTradeExecuted(&models.Transaction{
		ID:              11,
		UserID:          2,
		Symbol:          "AAPL",
		Type:            models.TransactionSell,
		Quantity:        15,
		Price:           decimal.NewFromInt(185),
		TotalAmount:     decimal.NewFromInt(2775),
		TransactionDate: executed,
	})

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got["type"] != "SELL" || got["symbol"] != "AAPL" || got["transactionId"] != float64(11) {
		t.Errorf("unexpected payload %s", raw)
	}
}
