package topics

const (
	// Partidas
	MatchResults = "match_results"

	// Pools
	PoolJoined      = "pool_joined"
	PoolWithdrawn   = "pool_withdrawn"
	PoolResolved    = "pool_resolved"
	WinningsClaimed = "winnings_claimed"

	// DLQs
	MatchResultsDLQ = "match_results_dlq"
)
