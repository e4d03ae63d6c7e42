package events

type PoolJoined struct {
	PoolID      string `json:"pool_id"`
	UserID      string `json:"user_id"`
	EventID     string `json:"event_id"`
	BetChoice   string `json:"bet_choice"` // "win" | "draw" | "loss"
	BetCents    int64  `json:"bet_cents"`
	TotalStaked int64  `json:"total_staked_cents"` // total do pool após a entrada
	DebitRef    string `json:"debit_ref"`          // external_ref usado no débito da carteira
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
