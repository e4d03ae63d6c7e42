package repo

import "time"

// Status de pool
const (
	PoolOpen     = "OPEN"
	PoolResolved = "RESOLVED"
)

// Status de participante. JOINED -> WITHDRAWN em saída antecipada;
// JOINED -> WON|LOST na resolução; WON -> CLAIMED após o resgate.
const (
	ParticipantJoined    = "JOINED"
	ParticipantWithdrawn = "WITHDRAWN"
	ParticipantWon       = "WON"
	ParticipantLost      = "LOST"
	ParticipantClaimed   = "CLAIMED"
)

// Escolhas de aposta válidas (perspectiva do mandante)
const (
	ChoiceWin  = "win"
	ChoiceDraw = "draw"
	ChoiceLoss = "loss"
)

// Pool é o modelo persistido no Postgres.
// InviteCode fica vazio em pools públicos.
type Pool struct {
	ID               string
	Title            string
	Sport            string
	League           string
	EventID          string
	OwnerID          string
	MinDepositCents  int64
	MaxParticipants  int
	TotalStakedCents int64
	WinSplit         int
	Private          bool
	InviteCode       string
	MatchDate        string
	Status           string
	Outcome          string // preenchido após resolução
	Participants     int    // participantes ativos (JOINED/WON/LOST/CLAIMED)
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Participant pertence a exatamente um pool.
type Participant struct {
	ID          string
	PoolID      string
	UserID      string
	Name        string
	BetCents    int64
	BetChoice   string
	Owner       bool
	Status      string
	PayoutCents int64 // bruto, antes da taxa de resgate
	CreatedAt   time.Time
}

// Membership é a visão de um pool pela ótica de um participante,
// usada na listagem "meus pools".
type Membership struct {
	Pool        Pool
	Status      string
	BetCents    int64
	BetChoice   string
	PayoutCents int64
}

func ValidChoice(c string) bool {
	return c == ChoiceWin || c == ChoiceDraw || c == ChoiceLoss
}
