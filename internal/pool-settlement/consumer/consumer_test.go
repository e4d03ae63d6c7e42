package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/pool-settlement/repo"
	"github.com/radieske/pool-bet-platform/pkg/contracts/events"
)

type fakeResolver struct {
	open     map[string][]string
	resolved []string
	failOn   map[string]int // pool -> quantas falhas antes de passar
}

func (f *fakeResolver) OpenPoolIDs(_ context.Context, eventID string) ([]string, error) {
	return f.open[eventID], nil
}

func (f *fakeResolver) ResolvePool(_ context.Context, poolID, outcome string) (repo.Resolution, error) {
	if n := f.failOn[poolID]; n > 0 {
		f.failOn[poolID] = n - 1
		return repo.Resolution{}, errors.New("transient db error")
	}
	for _, done := range f.resolved {
		if done == poolID {
			return repo.Resolution{}, repo.ErrAlreadyResolved
		}
	}
	f.resolved = append(f.resolved, poolID)
	return repo.Resolution{
		PoolID: poolID, EventID: "ev1", Outcome: outcome,
		PotCents: 42000, WinSplit: 70, Winners: 2, Losers: 3,
	}, nil
}

func matchResult(outcome string) events.MatchResult {
	return events.MatchResult{
		EventID: "ev1", Sport: "soccer", League: "La Liga",
		HomeTeam: "Barcelona", AwayTeam: "Real Madrid",
		Outcome: outcome, HomeScore: 2, AwayScore: 1,
		ConcludedAt: time.Now(), Source: "match-simulator",
	}
}

func TestSettleEventResolvesAllOpenPools(t *testing.T) {
	f := &fakeResolver{open: map[string][]string{"ev1": {"p1", "p2"}}}
	settled := 0
	p := &Processor{
		Log:       zap.NewNop(),
		Repo:      f,
		OnSettled: func() { settled++ },
	}

	require.NoError(t, p.settleEvent(context.Background(), matchResult("win")))
	assert.Equal(t, []string{"p1", "p2"}, f.resolved)
	assert.Equal(t, 2, settled)
}

// Segunda entrega do mesmo resultado: pools já resolvidos são ignorados.
func TestSettleEventIdempotentOnRedelivery(t *testing.T) {
	f := &fakeResolver{open: map[string][]string{"ev1": {"p1"}}}
	settled := 0
	p := &Processor{Log: zap.NewNop(), Repo: f, OnSettled: func() { settled++ }}

	require.NoError(t, p.settleEvent(context.Background(), matchResult("draw")))
	require.NoError(t, p.settleEvent(context.Background(), matchResult("draw")))
	assert.Equal(t, 1, settled)
}

// Falha transitória é absorvida pelo retry sem derrubar o lote.
func TestSettleEventRetriesTransientFailure(t *testing.T) {
	f := &fakeResolver{
		open:   map[string][]string{"ev1": {"p1"}},
		failOn: map[string]int{"p1": 2},
	}
	p := &Processor{Log: zap.NewNop(), Repo: f}

	require.NoError(t, p.settleEvent(context.Background(), matchResult("loss")))
	assert.Equal(t, []string{"p1"}, f.resolved)
}

func TestSettleEventNoOpenPools(t *testing.T) {
	f := &fakeResolver{open: map[string][]string{}}
	p := &Processor{Log: zap.NewNop(), Repo: f}
	require.NoError(t, p.settleEvent(context.Background(), matchResult("win")))
	assert.Empty(t, f.resolved)
}
