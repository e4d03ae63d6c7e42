package repo

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/shared/economics"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNotFound          = errors.New("not found")
)

// Postgres implementa operações de carteira em banco.
// Toda mutação roda em transação com lock pessimista na linha da carteira,
// de forma que operações concorrentes do mesmo usuário serializem e o
// saldo nunca fique negativo. Cada mutação registra uma linha no extrato.
type Postgres struct {
	db    *sql.DB
	snaps *Snapshots // projeção wallet_<userId> no Redis; opcional
	log   *zap.Logger
}

func NewPostgres(db *sql.DB, snaps *Snapshots, log *zap.Logger) *Postgres {
	if log == nil {
		log = zap.NewNop()
	}
	return &Postgres{db: db, snaps: snaps, log: log}
}

// Init cria as tabelas quando ainda não existem.
func (p *Postgres) Init(ctx context.Context) error {
	const wallets = `
	CREATE TABLE IF NOT EXISTS wallets (
		id            TEXT PRIMARY KEY,
		user_id       TEXT UNIQUE NOT NULL,
		address       TEXT NOT NULL,
		balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
		dak_tokens    BIGINT NOT NULL DEFAULT 0,
		version       BIGINT NOT NULL DEFAULT 1
	);`
	if _, err := p.db.ExecContext(ctx, wallets); err != nil {
		return fmt.Errorf("create wallets: %w", err)
	}

	const transactions = `
	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id           TEXT PRIMARY KEY,
		wallet_id    TEXT NOT NULL REFERENCES wallets(id),
		kind         TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		fee_cents    BIGINT NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT 'completed',
		description  TEXT NOT NULL DEFAULT '',
		dest_address TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	if _, err := p.db.ExecContext(ctx, transactions); err != nil {
		return fmt.Errorf("create wallet_transactions: %w", err)
	}
	return nil
}

// GetOrCreateWallet retorna a carteira de um usuário, criando-a se não existir.
// Usa transação para garantir atomicidade.
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (Wallet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Wallet{}, err
	}
	defer tx.Rollback()

	w, err := scanWallet(tx.QueryRowContext(ctx,
		`SELECT id, user_id, address, balance_cents, dak_tokens FROM wallets WHERE user_id=$1`, userID))
	if err == sql.ErrNoRows {
		w = Wallet{
			ID:      uuid.NewString(),
			UserID:  userID,
			Address: newAddress(),
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, address, balance_cents, dak_tokens, version) VALUES($1,$2,$3,0,0,1)`,
			w.ID, w.UserID, w.Address); err != nil {
			return Wallet{}, err
		}
	} else if err != nil {
		return Wallet{}, err
	}

	if err = tx.Commit(); err != nil {
		return Wallet{}, err
	}

	p.saveSnapshot(ctx, w)
	return w, nil
}

// ApplyDelta soma um delta assinado ao saldo (positivo credita, negativo
// debita) e registra a operação no extrato. Resultado negativo é rejeitado
// com ErrInsufficientFunds, sem nenhuma mutação parcial.
func (p *Postgres) ApplyDelta(ctx context.Context, userID string, deltaCents int64, description string) (Wallet, error) {
	if deltaCents == 0 {
		return Wallet{}, ErrInvalidAmount
	}

	kind := "deposit"
	amount := deltaCents
	if deltaCents < 0 {
		kind = "withdraw"
		amount = -deltaCents
	}
	return p.mutate(ctx, userID, deltaCents, 0, kind, amount, description, "")
}

// Deposit credita saldo na carteira do usuário.
func (p *Postgres) Deposit(ctx context.Context, userID string, amountCents int64, description string) (Wallet, error) {
	if amountCents <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	return p.mutate(ctx, userID, amountCents, 0, "deposit", amountCents, description, "")
}

// Withdraw debita valor + taxa fixa para um endereço externo.
// Rejeita com ErrInsufficientFunds quando o saldo não cobre valor e taxa.
func (p *Postgres) Withdraw(ctx context.Context, userID string, amountCents int64, destAddress string) (Wallet, int64, error) {
	total, err := economics.WalletWithdrawalTotal(amountCents, economics.WalletWithdrawFeeCents)
	if err != nil {
		return Wallet{}, 0, ErrInvalidAmount
	}

	w, err := p.mutate(ctx, userID, -total, economics.WalletWithdrawFeeCents,
		"withdraw", amountCents, "wallet withdrawal", destAddress)
	if err != nil {
		return Wallet{}, 0, err
	}
	return w, economics.WalletWithdrawFeeCents, nil
}

// AwardTokens credita DAK tokens (saldo de recompensa, não sacável).
func (p *Postgres) AwardTokens(ctx context.Context, userID string, tokens int64) (Wallet, error) {
	if tokens <= 0 {
		return Wallet{}, ErrInvalidAmount
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Wallet{}, err
	}
	defer tx.Rollback()

	var id string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET dak_tokens = dak_tokens + $1, version = version + 1 WHERE id=$2`, tokens, id); err != nil {
		return Wallet{}, err
	}

	w, err := scanWallet(tx.QueryRowContext(ctx,
		`SELECT id, user_id, address, balance_cents, dak_tokens FROM wallets WHERE id=$1`, id))
	if err != nil {
		return Wallet{}, err
	}

	if err = tx.Commit(); err != nil {
		return Wallet{}, err
	}
	p.saveSnapshot(ctx, w)
	return w, nil
}

// ListTransactions retorna o extrato do usuário, mais recente primeiro.
func (p *Postgres) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	const q = `
		SELECT t.id, t.kind, t.amount_cents, t.fee_cents, t.status, t.description,
		       COALESCE(t.dest_address, ''), t.created_at
		FROM wallet_transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC`
	rows, err := p.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Kind, &t.AmountCents, &t.FeeCents, &t.Status,
			&t.Description, &t.DestAddress, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Ping expõe o health check do banco.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// mutate aplica o delta no saldo e insere a linha do extrato na mesma
// transação. deltaCents é o efeito no saldo; amountCents é o valor exibido
// no extrato (sem a taxa, no caso de saque).
func (p *Postgres) mutate(ctx context.Context, userID string, deltaCents, feeCents int64,
	kind string, amountCents int64, description, destAddress string) (Wallet, error) {

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Wallet{}, err
	}
	defer tx.Rollback()

	var id string
	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&id, &balance)
	if err == sql.ErrNoRows {
		return Wallet{}, ErrNotFound
	}
	if err != nil {
		return Wallet{}, err
	}

	if balance+deltaCents < 0 {
		return Wallet{}, ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		deltaCents, id); err != nil {
		return Wallet{}, err
	}

	var dest any
	if destAddress != "" {
		dest = destAddress
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions(id, wallet_id, kind, amount_cents, fee_cents, status, description, dest_address)
		VALUES($1,$2,$3,$4,$5,'completed',$6,$7)`,
		uuid.NewString(), id, kind, amountCents, feeCents, description, dest); err != nil {
		return Wallet{}, err
	}

	w, err := scanWallet(tx.QueryRowContext(ctx,
		`SELECT id, user_id, address, balance_cents, dak_tokens FROM wallets WHERE id=$1`, id))
	if err != nil {
		return Wallet{}, err
	}

	if err = tx.Commit(); err != nil {
		return Wallet{}, err
	}
	p.saveSnapshot(ctx, w)
	return w, nil
}

// saveSnapshot grava a projeção wallet_<userId> no Redis após o commit.
// O banco é a fonte de verdade: falha de Redis gera aviso, nunca erro,
// senão uma operação já commitada pareceria ter falhado para o chamador.
func (p *Postgres) saveSnapshot(ctx context.Context, w Wallet) {
	if p.snaps == nil {
		return
	}
	err := p.snaps.Save(ctx, w.UserID, Snapshot{
		WalletAddress: w.Address,
		WalletBalance: w.BalanceCents,
		DakTokens:     w.DakTokens,
	})
	if err != nil {
		p.log.Warn("wallet snapshot save failed",
			zap.String("user_id", w.UserID), zap.Error(err))
	}
}

type rowScanner interface{ Scan(dest ...any) error }

func scanWallet(row rowScanner) (Wallet, error) {
	var w Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Address, &w.BalanceCents, &w.DakTokens)
	return w, err
}

// newAddress gera um endereço hex no formato 0x + 40 caracteres.
func newAddress() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return "0x" + hex.EncodeToString(b)
}
