package dto

type CreatePoolRequest struct {
	UserID          string `json:"userId"`
	Title           string `json:"title"`
	Sport           string `json:"sport"`
	League          string `json:"league"`
	EventID         string `json:"eventId"`
	MinDepositCents int64  `json:"min_deposit_cents"`
	MaxParticipants int    `json:"max_participants"`
	WinSplit        int    `json:"win_split"` // faixa aceita: 60..90
	Private         bool   `json:"private"`
	MatchDate       string `json:"match_date"` // "2024-01-15"
}

type JoinPoolRequest struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	BetCents   int64  `json:"bet_cents"`
	BetChoice  string `json:"bet_choice"`            // "win" | "draw" | "loss"
	InviteCode string `json:"invite_code,omitempty"` // obrigatório em pools privados
}

type WithdrawFromPoolRequest struct {
	UserID string `json:"userId"`
}

type ClaimRequest struct {
	UserID string `json:"userId"`
}
