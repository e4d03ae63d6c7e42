package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/radieske/pool-bet-platform/internal/shared/economics"
)

var ErrAlreadyResolved = errors.New("pool already resolved")

// Resolution resume o resultado da liquidação de um pool.
type Resolution struct {
	PoolID   string
	EventID  string
	Outcome  string
	PotCents int64
	WinSplit int
	Winners  int
	Losers   int
}

// Postgres liquida pools a partir de resultados de partidas. A resolução
// roda em transação com lock no pool: apostas no resultado viram WON com
// payout proporcional, o resto vira LOST.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// OpenPoolIDs retorna os pools ainda abertos para um evento.
func (p *Postgres) OpenPoolIDs(ctx context.Context, eventID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id FROM pools WHERE event_id=$1 AND status='OPEN'`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResolvePool marca o pool como RESOLVED e grava o payout dos vencedores.
// Idempotente por status: um pool já resolvido devolve ErrAlreadyResolved
// e nada muda. Sem vencedores, todos os participantes viram LOST e o pote
// fica retido pela plataforma.
func (p *Postgres) ResolvePool(ctx context.Context, poolID, outcome string) (Resolution, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Resolution{}, err
	}
	defer tx.Rollback()

	var res Resolution
	var status string
	var totalStaked int64
	err = tx.QueryRowContext(ctx,
		`SELECT event_id, status, total_staked_cents, win_split FROM pools WHERE id=$1 FOR UPDATE`,
		poolID).Scan(&res.EventID, &status, &totalStaked, &res.WinSplit)
	if err != nil {
		return Resolution{}, err
	}
	if status != "OPEN" {
		return Resolution{}, ErrAlreadyResolved
	}
	res.PoolID = poolID
	res.Outcome = outcome
	res.PotCents = economics.WinnerPot(totalStaked, res.WinSplit)

	rows, err := tx.QueryContext(ctx,
		`SELECT id, bet_cents, bet_choice FROM pool_participants
		 WHERE pool_id=$1 AND status='JOINED' FOR UPDATE`, poolID)
	if err != nil {
		return Resolution{}, err
	}

	type stake struct {
		id    string
		cents int64
	}
	var winners, losers []stake
	for rows.Next() {
		var s stake
		var choice string
		if err := rows.Scan(&s.id, &s.cents, &choice); err != nil {
			rows.Close()
			return Resolution{}, err
		}
		if choice == outcome {
			winners = append(winners, s)
		} else {
			losers = append(losers, s)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Resolution{}, err
	}

	// o rateio distribui o pote inteiro: o resíduo de arredondamento vai
	// para o último vencedor, então sum(payout_cents) == pot_cents
	if len(winners) > 0 {
		bets := make([]int64, len(winners))
		for i, s := range winners {
			bets[i] = s.cents
		}
		payouts, perr := economics.SettlementPayouts(res.PotCents, bets)
		if perr != nil {
			return Resolution{}, perr
		}
		for i, s := range winners {
			if _, err = tx.ExecContext(ctx,
				`UPDATE pool_participants SET status='WON', payout_cents=$1 WHERE id=$2`,
				payouts[i], s.id); err != nil {
				return Resolution{}, err
			}
		}
		res.Winners = len(winners)
	}
	for _, s := range losers {
		if _, err = tx.ExecContext(ctx,
			`UPDATE pool_participants SET status='LOST' WHERE id=$1`, s.id); err != nil {
			return Resolution{}, err
		}
	}
	res.Losers = len(losers)

	if _, err = tx.ExecContext(ctx,
		`UPDATE pools SET status='RESOLVED', outcome=$1, updated_at = NOW() WHERE id=$2`,
		outcome, poolID); err != nil {
		return Resolution{}, err
	}

	return res, tx.Commit()
}

// Ping expõe o health check do banco.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
