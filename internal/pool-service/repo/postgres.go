package repo

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("pool not found")
	ErrPoolClosed        = errors.New("pool is not open")
	ErrCapacityExceeded  = errors.New("pool at max participants")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrBelowMinimum      = errors.New("bet below minimum deposit")
	ErrAlreadyJoined     = errors.New("user already in pool")
	ErrNotJoined         = errors.New("user not in pool")
	ErrNothingToClaim    = errors.New("nothing to claim")
)

// Postgres implementa a persistência de pools e participantes.
// Join/Withdraw rodam em transação com lock pessimista na linha do pool,
// mantendo sum(bet_cents) == total_staked_cents após cada mutação.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Init cria as tabelas quando ainda não existem.
func (p *Postgres) Init(ctx context.Context) error {
	const pools = `
	CREATE TABLE IF NOT EXISTS pools (
		id                 TEXT PRIMARY KEY,
		title              TEXT NOT NULL,
		sport              TEXT NOT NULL,
		league             TEXT NOT NULL,
		event_id           TEXT NOT NULL,
		owner_id           TEXT NOT NULL,
		min_deposit_cents  BIGINT NOT NULL CHECK (min_deposit_cents > 0),
		max_participants   INT NOT NULL CHECK (max_participants > 1),
		total_staked_cents BIGINT NOT NULL DEFAULT 0 CHECK (total_staked_cents >= 0),
		win_split          INT NOT NULL CHECK (win_split BETWEEN 60 AND 90),
		private            BOOLEAN NOT NULL DEFAULT FALSE,
		invite_code        TEXT,
		match_date         TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'OPEN',
		outcome            TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	if _, err := p.db.ExecContext(ctx, pools); err != nil {
		return fmt.Errorf("create pools: %w", err)
	}

	const participants = `
	CREATE TABLE IF NOT EXISTS pool_participants (
		id           TEXT PRIMARY KEY,
		pool_id      TEXT NOT NULL REFERENCES pools(id),
		user_id      TEXT NOT NULL,
		name         TEXT NOT NULL,
		bet_cents    BIGINT NOT NULL CHECK (bet_cents > 0),
		bet_choice   TEXT NOT NULL,
		owner        BOOLEAN NOT NULL DEFAULT FALSE,
		status       TEXT NOT NULL DEFAULT 'JOINED',
		payout_cents BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	if _, err := p.db.ExecContext(ctx, participants); err != nil {
		return fmt.Errorf("create pool_participants: %w", err)
	}
	return nil
}

// CreatePool insere um pool OPEN; pools privados recebem invite code gerado.
func (p *Postgres) CreatePool(ctx context.Context, pool *Pool) (string, error) {
	id := uuid.NewString()
	var invite any
	if pool.Private {
		pool.InviteCode = newInviteCode()
		invite = pool.InviteCode
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO pools (id, title, sport, league, event_id, owner_id, min_deposit_cents,
		                   max_participants, win_split, private, invite_code, match_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,'OPEN')`,
		id, pool.Title, pool.Sport, pool.League, pool.EventID, pool.OwnerID,
		pool.MinDepositCents, pool.MaxParticipants, pool.WinSplit, pool.Private,
		invite, pool.MatchDate,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

const poolColumns = `
	p.id, p.title, p.sport, p.league, p.event_id, p.owner_id, p.min_deposit_cents,
	p.max_participants, p.total_staked_cents, p.win_split, p.private,
	COALESCE(p.invite_code, ''), p.match_date, p.status, COALESCE(p.outcome, ''),
	(SELECT COUNT(*) FROM pool_participants pp WHERE pp.pool_id = p.id AND pp.status <> 'WITHDRAWN'),
	p.created_at, p.updated_at`

// ListPools retorna todos os pools, mais recentes primeiro.
// A filtragem por texto/esporte e a paginação acontecem no catálogo.
func (p *Postgres) ListPools(ctx context.Context) ([]Pool, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+poolColumns+` FROM pools p ORDER BY p.created_at DESC, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pool)
	}
	return out, rows.Err()
}

// ListUserPools retorna os pools em que o usuário entrou, com o status e
// os valores da participação dele, mais recentes primeiro. Inclui
// participações WITHDRAWN para histórico.
func (p *Postgres) ListUserPools(ctx context.Context, userID string) ([]Membership, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+poolColumns+`, pp.status, pp.bet_cents, pp.bet_choice, pp.payout_cents
		 FROM pools p JOIN pool_participants pp ON pp.pool_id = p.id
		 WHERE pp.user_id = $1
		 ORDER BY pp.created_at DESC, pp.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.Pool.ID, &m.Pool.Title, &m.Pool.Sport, &m.Pool.League,
			&m.Pool.EventID, &m.Pool.OwnerID, &m.Pool.MinDepositCents, &m.Pool.MaxParticipants,
			&m.Pool.TotalStakedCents, &m.Pool.WinSplit, &m.Pool.Private, &m.Pool.InviteCode,
			&m.Pool.MatchDate, &m.Pool.Status, &m.Pool.Outcome, &m.Pool.Participants,
			&m.Pool.CreatedAt, &m.Pool.UpdatedAt,
			&m.Status, &m.BetCents, &m.BetChoice, &m.PayoutCents); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetPool retorna o pool e seus participantes (inclui WITHDRAWN para histórico).
func (p *Postgres) GetPool(ctx context.Context, poolID string) (Pool, []Participant, error) {
	pool, err := scanPool(p.db.QueryRowContext(ctx,
		`SELECT `+poolColumns+` FROM pools p WHERE p.id=$1`, poolID))
	if err == sql.ErrNoRows {
		return Pool{}, nil, ErrNotFound
	}
	if err != nil {
		return Pool{}, nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, pool_id, user_id, name, bet_cents, bet_choice, owner, status, payout_cents, created_at
		FROM pool_participants WHERE pool_id=$1 ORDER BY created_at, id`, poolID)
	if err != nil {
		return Pool{}, nil, err
	}
	defer rows.Close()

	var parts []Participant
	for rows.Next() {
		var pt Participant
		if err := rows.Scan(&pt.ID, &pt.PoolID, &pt.UserID, &pt.Name, &pt.BetCents,
			&pt.BetChoice, &pt.Owner, &pt.Status, &pt.PayoutCents, &pt.CreatedAt); err != nil {
			return Pool{}, nil, err
		}
		parts = append(parts, pt)
	}
	return pool, parts, rows.Err()
}

// CheckJoin valida a entrada sem mutação nem lock. O Join repete as
// mesmas checagens sob lock; esta versão evita debitar a carteira de
// quem seria rejeitado de qualquer forma.
func (p *Postgres) CheckJoin(ctx context.Context, poolID, userID string, betCents int64, inviteCode string) error {
	pool, _, err := p.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	return validateJoin(pool, betCents, inviteCode, pool.Participants, p.isJoined(ctx, poolID, userID))
}

// Join insere o participante e atualiza o total do pool na mesma transação.
// Todas as validações rodam sob lock antes de qualquer escrita.
func (p *Postgres) Join(ctx context.Context, poolID string, part *Participant, inviteCode string) (Pool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Pool{}, err
	}
	defer tx.Rollback()

	pool, err := lockPool(ctx, tx, poolID)
	if err != nil {
		return Pool{}, err
	}

	var active int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pool_participants WHERE pool_id=$1 AND status <> 'WITHDRAWN'`,
		poolID).Scan(&active); err != nil {
		return Pool{}, err
	}

	var joined int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pool_participants WHERE pool_id=$1 AND user_id=$2 AND status='JOINED'`,
		poolID, part.UserID).Scan(&joined); err != nil {
		return Pool{}, err
	}

	if err = validateJoin(pool, part.BetCents, inviteCode, active, joined > 0); err != nil {
		return Pool{}, err
	}

	part.ID = uuid.NewString()
	part.PoolID = poolID
	part.Status = ParticipantJoined
	part.Owner = part.UserID == pool.OwnerID
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO pool_participants (id, pool_id, user_id, name, bet_cents, bet_choice, owner, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'JOINED')`,
		part.ID, poolID, part.UserID, part.Name, part.BetCents, part.BetChoice, part.Owner); err != nil {
		return Pool{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE pools SET total_staked_cents = total_staked_cents + $1, updated_at = NOW() WHERE id=$2`,
		part.BetCents, poolID); err != nil {
		return Pool{}, err
	}

	if err = tx.Commit(); err != nil {
		return Pool{}, err
	}

	pool.TotalStakedCents += part.BetCents
	pool.Participants = active + 1
	return pool, nil
}

// Withdraw marca o participante como WITHDRAWN e devolve o pool atualizado.
// Só é permitido enquanto o pool está OPEN.
func (p *Postgres) Withdraw(ctx context.Context, poolID, userID string) (Participant, Pool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Participant{}, Pool{}, err
	}
	defer tx.Rollback()

	pool, err := lockPool(ctx, tx, poolID)
	if err != nil {
		return Participant{}, Pool{}, err
	}
	if pool.Status != PoolOpen {
		return Participant{}, Pool{}, ErrPoolClosed
	}

	var part Participant
	err = tx.QueryRowContext(ctx, `
		SELECT id, pool_id, user_id, name, bet_cents, bet_choice, owner, status, payout_cents, created_at
		FROM pool_participants WHERE pool_id=$1 AND user_id=$2 AND status='JOINED'`,
		poolID, userID).Scan(&part.ID, &part.PoolID, &part.UserID, &part.Name, &part.BetCents,
		&part.BetChoice, &part.Owner, &part.Status, &part.PayoutCents, &part.CreatedAt)
	if err == sql.ErrNoRows {
		return Participant{}, Pool{}, ErrNotJoined
	}
	if err != nil {
		return Participant{}, Pool{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE pool_participants SET status='WITHDRAWN' WHERE id=$1`, part.ID); err != nil {
		return Participant{}, Pool{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE pools SET total_staked_cents = total_staked_cents - $1, updated_at = NOW() WHERE id=$2`,
		part.BetCents, poolID); err != nil {
		return Participant{}, Pool{}, err
	}

	if err = tx.Commit(); err != nil {
		return Participant{}, Pool{}, err
	}

	part.Status = ParticipantWithdrawn
	pool.TotalStakedCents -= part.BetCents
	return part, pool, nil
}

// Claim marca um participante WON como CLAIMED e retorna o prêmio bruto.
// Idempotência: um segundo resgate cai em ErrNothingToClaim.
func (p *Postgres) Claim(ctx context.Context, poolID, userID string) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var partID string
	var payout int64
	err = tx.QueryRowContext(ctx, `
		SELECT id, payout_cents FROM pool_participants
		WHERE pool_id=$1 AND user_id=$2 AND status='WON'
		FOR UPDATE`, poolID, userID).Scan(&partID, &payout)
	if err == sql.ErrNoRows {
		return 0, ErrNothingToClaim
	}
	if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE pool_participants SET status='CLAIMED' WHERE id=$1`, partID); err != nil {
		return 0, err
	}

	return payout, tx.Commit()
}

// Ping expõe o health check do banco.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) isJoined(ctx context.Context, poolID, userID string) bool {
	var n int
	_ = p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pool_participants WHERE pool_id=$1 AND user_id=$2 AND status='JOINED'`,
		poolID, userID).Scan(&n)
	return n > 0
}

// validateJoin concentra as regras de entrada; nenhuma mutação acontece
// antes de todas passarem.
func validateJoin(pool Pool, betCents int64, inviteCode string, active int, alreadyJoined bool) error {
	if pool.Status != PoolOpen {
		return ErrPoolClosed
	}
	if pool.Private && inviteCode != pool.InviteCode {
		return ErrInvalidInviteCode
	}
	if betCents < pool.MinDepositCents {
		return ErrBelowMinimum
	}
	if alreadyJoined {
		return ErrAlreadyJoined
	}
	if active >= pool.MaxParticipants {
		return ErrCapacityExceeded
	}
	return nil
}

func lockPool(ctx context.Context, tx *sql.Tx, poolID string) (Pool, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT p.id, p.title, p.sport, p.league, p.event_id, p.owner_id, p.min_deposit_cents,
		       p.max_participants, p.total_staked_cents, p.win_split, p.private,
		       COALESCE(p.invite_code, ''), p.match_date, p.status, COALESCE(p.outcome, ''),
		       0, p.created_at, p.updated_at
		FROM pools p WHERE p.id=$1 FOR UPDATE`, poolID)
	pool, err := scanPool(row)
	if err == sql.ErrNoRows {
		return Pool{}, ErrNotFound
	}
	return pool, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanPool(row rowScanner) (Pool, error) {
	var pool Pool
	err := row.Scan(&pool.ID, &pool.Title, &pool.Sport, &pool.League, &pool.EventID,
		&pool.OwnerID, &pool.MinDepositCents, &pool.MaxParticipants, &pool.TotalStakedCents,
		&pool.WinSplit, &pool.Private, &pool.InviteCode, &pool.MatchDate, &pool.Status,
		&pool.Outcome, &pool.Participants, &pool.CreatedAt, &pool.UpdatedAt)
	return pool, err
}

// newInviteCode gera um código de 6 caracteres para pools privados.
func newInviteCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
