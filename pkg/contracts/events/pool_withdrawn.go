package events

type PoolWithdrawn struct {
	PoolID      string `json:"pool_id"`
	UserID      string `json:"user_id"`
	BetCents    int64  `json:"bet_cents"`
	FeeCents    int64  `json:"fee_cents"`
	NetCents    int64  `json:"net_cents"` // devolvido à carteira após a taxa
	TotalStaked int64  `json:"total_staked_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
