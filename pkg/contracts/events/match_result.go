package events

import "time"

// Evento publicado no tópico "match_results" quando uma partida termina.
type MatchResult struct {
	EventID     string    `json:"event_id"`
	Sport       string    `json:"sport"`
	League      string    `json:"league"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	Outcome     string    `json:"outcome"` // "win" | "draw" | "loss" (perspectiva do mandante)
	HomeScore   int       `json:"home_score"`
	AwayScore   int       `json:"away_score"`
	ConcludedAt time.Time `json:"concluded_at"`
	Source      string    `json:"source"` // "match-simulator"
}
