package repo

import "time"

// Wallet é o modelo persistido no Postgres.
// DakTokens é o saldo secundário de créditos de recompensa (não sacável).
type Wallet struct {
	ID           string
	UserID       string
	Address      string
	BalanceCents int64
	DakTokens    int64
}

// Transaction é uma linha imutável do extrato (append-only).
type Transaction struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // "deposit" | "withdraw"
	AmountCents int64     `json:"amount_cents"`
	FeeCents    int64     `json:"fee_cents,omitempty"`
	Status      string    `json:"status"` // "completed" | "pending" | "failed"
	Description string    `json:"description"`
	DestAddress string    `json:"dest_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
