package events

import "time"

// Evento emitido pelo pool-settlement-worker após resolver um pool.
type PoolResolved struct {
	PoolID     string    `json:"poolId"`
	EventID    string    `json:"eventId"`
	Outcome    string    `json:"outcome"` // resultado vencedor: "win" | "draw" | "loss"
	PotCents   int64     `json:"pot_cents"`
	WinSplit   int       `json:"win_split"`
	Winners    int       `json:"winners"`
	Losers     int       `json:"losers"`
	ResolvedAt time.Time `json:"resolvedAt"`
}
