package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/pool-settlement/repo"
	sharedkafka "github.com/radieske/pool-bet-platform/internal/shared/kafka"
	"github.com/radieske/pool-bet-platform/pkg/contracts/events"
)

const resolveRetries = 3

// Resolver liquida pools abertos de um evento.
type Resolver interface {
	OpenPoolIDs(ctx context.Context, eventID string) ([]string, error)
	ResolvePool(ctx context.Context, poolID, outcome string) (repo.Resolution, error)
}

// Processor consome resultados de partidas e resolve os pools do evento.
// Resultados que falham após os retries vão para a DLQ e o offset avança;
// um evento ruim não pode travar a fila inteira.
type Processor struct {
	Log      *zap.Logger
	Reader   *kafka.Reader
	Repo     Resolver
	Resolved *kafka.Writer
	DLQ      *kafka.Writer

	OnConsumed func()       // métricas (counter++)
	OnSettled  func()       // métricas
	OnError    func(string) // métricas por estágio
}

// Run inicia o loop principal de consumo.
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.count(p.OnError, "read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var result events.MatchResult
		if err := json.Unmarshal(m.Value, &result); err != nil {
			p.Log.Warn("invalid match result", zap.Error(err))
			p.count(p.OnError, "decode")
			continue
		}

		if err := p.settleEvent(ctx, result); err != nil {
			p.Log.Error("settle event failed",
				zap.String("event_id", result.EventID), zap.Error(err))
			p.count(p.OnError, "settle")
			p.toDLQ(ctx, result.EventID, m.Value)
		}
	}
}

// settleEvent resolve todos os pools abertos do evento, um a um.
// Pools já resolvidos por uma entrega anterior são ignorados.
func (p *Processor) settleEvent(ctx context.Context, result events.MatchResult) error {
	poolIDs, err := p.Repo.OpenPoolIDs(ctx, result.EventID)
	if err != nil {
		return err
	}
	if len(poolIDs) == 0 {
		p.Log.Debug("no open pools for event", zap.String("event_id", result.EventID))
		return nil
	}

	var failed error
	for _, poolID := range poolIDs {
		res, err := p.resolveWithRetry(ctx, poolID, result.Outcome)
		if errors.Is(err, repo.ErrAlreadyResolved) {
			continue
		}
		if err != nil {
			failed = err
			continue
		}

		if p.OnSettled != nil {
			p.OnSettled()
		}
		p.Log.Info("pool settled",
			zap.String("pool_id", poolID),
			zap.String("outcome", res.Outcome),
			zap.Int64("pot_cents", res.PotCents),
			zap.Int("winners", res.Winners),
			zap.Int("losers", res.Losers),
		)

		b, _ := json.Marshal(events.PoolResolved{
			PoolID:     res.PoolID,
			EventID:    res.EventID,
			Outcome:    res.Outcome,
			PotCents:   res.PotCents,
			WinSplit:   res.WinSplit,
			Winners:    res.Winners,
			Losers:     res.Losers,
			ResolvedAt: time.Now().UTC(),
		})
		if p.Resolved != nil {
			if err := sharedkafka.WriteJSON(ctx, p.Resolved, res.PoolID, b); err != nil {
				p.Log.Warn("publish pool_resolved failed",
					zap.String("pool_id", poolID), zap.Error(err))
				p.count(p.OnError, "publish")
			}
		}
	}
	return failed
}

func (p *Processor) resolveWithRetry(ctx context.Context, poolID, outcome string) (repo.Resolution, error) {
	res, err := p.Repo.ResolvePool(ctx, poolID, outcome)
	for i := 0; err != nil && !errors.Is(err, repo.ErrAlreadyResolved) && i < resolveRetries; i++ {
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
		res, err = p.Repo.ResolvePool(ctx, poolID, outcome)
	}
	return res, err
}

func (p *Processor) toDLQ(ctx context.Context, key string, payload []byte) {
	if p.DLQ == nil {
		return
	}
	if err := sharedkafka.WriteJSON(ctx, p.DLQ, key, payload); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.count(p.OnError, "dlq")
	}
}

func (p *Processor) count(fn func(string), stage string) {
	if fn != nil {
		fn(stage)
	}
}
