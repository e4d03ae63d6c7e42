package events

type WinningsClaimed struct {
	PoolID        string `json:"pool_id"`
	UserID        string `json:"user_id"`
	WinningsCents int64  `json:"winnings_cents"`
	FeeCents      int64  `json:"fee_cents"`
	NetCents      int64  `json:"net_cents"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
