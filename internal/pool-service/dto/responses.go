package dto

// PoolSummary é a projeção usada na listagem e no cache do catálogo.
type PoolSummary struct {
	PoolID           string `json:"poolId"`
	Title            string `json:"title"`
	Sport            string `json:"sport"`
	League           string `json:"league"`
	MinDepositCents  int64  `json:"min_deposit_cents"`
	Participants     int    `json:"participants"`
	MaxParticipants  int    `json:"max_participants"`
	TotalStakedCents int64  `json:"total_staked_cents"`
	WinSplit         int    `json:"win_split"`
	Private          bool   `json:"private"`
	MatchDate        string `json:"matchDate"`
	Status           string `json:"status"` // OPEN | RESOLVED
}

type PoolListResponse struct {
	Pools    []PoolSummary `json:"pools"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	HasMore  bool          `json:"hasMore"`
}

// ParticipantView inclui os valores derivados exibidos no detalhe do pool.
type ParticipantView struct {
	UserID               string `json:"userId"`
	Name                 string `json:"name"`
	BetCents             int64  `json:"bet_cents"`
	BetChoice            string `json:"bet_choice"`
	Owner                bool   `json:"owner"`
	Status               string `json:"status"` // JOINED | WITHDRAWN | WON | LOST | CLAIMED
	SharePercent         string `json:"share_percent"`
	PotentialPayoutCents int64  `json:"potential_payout_cents"`
	PayoutCents          int64  `json:"payout_cents,omitempty"` // preenchido após resolução
}

type PoolDetailsResponse struct {
	PoolSummary
	OwnerID      string            `json:"ownerId"`
	EventID      string            `json:"eventId"`
	InviteCode   string            `json:"invite_code,omitempty"` // só para o dono de pool privado
	ShareURL     string            `json:"share_url"`
	Participants []ParticipantView `json:"participants"`
}

// MyPoolEntry é um pool visto pela ótica da participação do usuário.
type MyPoolEntry struct {
	PoolSummary
	MyStatus             string `json:"my_status"` // JOINED | WITHDRAWN | WON | LOST | CLAIMED
	MyBetCents           int64  `json:"my_bet_cents"`
	MyBetChoice          string `json:"my_bet_choice"`
	MyPayoutCents        int64  `json:"my_payout_cents,omitempty"`        // após resolução
	PotentialPayoutCents int64  `json:"potential_payout_cents,omitempty"` // enquanto JOINED
}

type MyPoolsResponse struct {
	UserID string        `json:"userId"`
	Pools  []MyPoolEntry `json:"pools"`
}

type CreatePoolResponse struct {
	PoolID     string `json:"poolId"`
	InviteCode string `json:"invite_code,omitempty"`
	ShareURL   string `json:"share_url"`
}

type JoinPoolResponse struct {
	PoolID               string `json:"poolId"`
	Status               string `json:"status"` // JOINED
	TotalStakedCents     int64  `json:"total_staked_cents"`
	SharePercent         string `json:"share_percent"`
	PotentialPayoutCents int64  `json:"potential_payout_cents"`
}

type WithdrawFromPoolResponse struct {
	PoolID   string `json:"poolId"`
	Status   string `json:"status"` // WITHDRAWN
	FeeCents int64  `json:"fee_cents"`
	NetCents int64  `json:"net_cents"`
}

type ClaimResponse struct {
	PoolID        string `json:"poolId"`
	Status        string `json:"status"` // CLAIMED
	WinningsCents int64  `json:"winnings_cents"`
	FeeCents      int64  `json:"fee_cents"`
	NetCents      int64  `json:"net_cents"`
}
