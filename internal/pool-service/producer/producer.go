package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/pool-bet-platform/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de ciclo de vida do pool.
// Um writer por tópico, mesmos brokers.
type KafkaPublisher struct {
	Joined    *kafka.Writer
	Withdrawn *kafka.Writer
	Claimed   *kafka.Writer
}

func NewKafkaPublisher(joined, withdrawn, claimed *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Joined: joined, Withdrawn: withdrawn, Claimed: claimed}
}

func (p *KafkaPublisher) PublishPoolJoined(ctx context.Context, e events.PoolJoined) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Joined, e)
}

func (p *KafkaPublisher) PublishPoolWithdrawn(ctx context.Context, e events.PoolWithdrawn) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Withdrawn, e)
}

func (p *KafkaPublisher) PublishWinningsClaimed(ctx context.Context, e events.WinningsClaimed) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Claimed, e)
}

func write(ctx context.Context, w *kafka.Writer, v any) error {
	b, _ := json.Marshal(v)
	return w.WriteMessages(ctx, kafka.Message{Value: b})
}
