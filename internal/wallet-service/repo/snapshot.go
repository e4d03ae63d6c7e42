package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Snapshot é a projeção da carteira gravada no Redis após cada operação.
// O formato JSON (nomes e ordem dos campos) é contrato: leitura após
// escrita devolve exatamente os mesmos bytes.
type Snapshot struct {
	WalletAddress string `json:"walletAddress"`
	WalletBalance int64  `json:"walletBalance"` // em cents
	DakTokens     int64  `json:"dakTokens"`
}

// Snapshots grava e lê projeções de carteira no Redis, chaveadas por usuário.
type Snapshots struct {
	R   *redis.Client
	TTL time.Duration // 0 = sem expiração
}

func NewSnapshots(r *redis.Client) *Snapshots { return &Snapshots{R: r} }

func snapshotKey(userID string) string { return "wallet_" + userID }

func (s *Snapshots) Save(ctx context.Context, userID string, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, snapshotKey(userID), b, s.TTL).Err()
}

// Load retorna a projeção gravada; ok=false quando não existe.
func (s *Snapshots) Load(ctx context.Context, userID string) (Snapshot, bool, error) {
	b, err := s.R.Get(ctx, snapshotKey(userID)).Bytes()
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}
