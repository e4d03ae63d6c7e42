package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Todos os eventos de ciclo de vida carregam o timestamp em ms no mesmo
// campo; o publisher preenche TsUnixMs antes de escrever no Kafka.
func TestPoolLifecycleEventsCarryTsUnixMs(t *testing.T) {
	cases := map[string]any{
		"pool_joined":      PoolJoined{TsUnixMs: 1700000000000},
		"pool_withdrawn":   PoolWithdrawn{TsUnixMs: 1700000000000},
		"winnings_claimed": WinningsClaimed{TsUnixMs: 1700000000000},
	}
	for name, payload := range cases {
		b, err := json.Marshal(payload)
		require.NoError(t, err, name)
		assert.Contains(t, string(b), `"ts_unix_ms":1700000000000`, name)
	}
}
