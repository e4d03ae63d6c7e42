package dto

// LiveMatch é o estado transmitido por WebSocket durante a simulação.
type LiveMatch struct {
	EventID   string `json:"eventId"`
	Sport     string `json:"sport"`
	League    string `json:"league"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
	Minute    int    `json:"minute"`
	Status    string `json:"status"` // LIVE | FINISHED
}

const (
	StatusLive     = "LIVE"
	StatusFinished = "FINISHED"
)

// Outcome traduz o placar para a perspectiva do mandante.
func (m LiveMatch) Outcome() string {
	switch {
	case m.HomeScore > m.AwayScore:
		return "win"
	case m.HomeScore == m.AwayScore:
		return "draw"
	default:
		return "loss"
	}
}
