package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/pool-service/dto"
	"github.com/radieske/pool-bet-platform/internal/pool-service/repo"
	"github.com/radieske/pool-bet-platform/internal/pool-service/wallet"
	"github.com/radieske/pool-bet-platform/pkg/contracts/events"
)

// fakeRepo reproduz as regras de join/withdraw/claim em memória,
// com as mesmas validações do repositório real.
type fakeRepo struct {
	pools map[string]*repo.Pool
	parts map[string][]*repo.Participant
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{pools: map[string]*repo.Pool{}, parts: map[string][]*repo.Participant{}}
}

func (f *fakeRepo) addPool(p repo.Pool) *repo.Pool {
	if p.Status == "" {
		p.Status = repo.PoolOpen
	}
	f.pools[p.ID] = &p
	return f.pools[p.ID]
}

func (f *fakeRepo) CreatePool(_ context.Context, pool *repo.Pool) (string, error) {
	pool.ID = "p" + pool.Title
	pool.Status = repo.PoolOpen
	if pool.Private {
		pool.InviteCode = "ABC123"
	}
	f.pools[pool.ID] = pool
	return pool.ID, nil
}

func (f *fakeRepo) ListPools(_ context.Context) ([]repo.Pool, error) {
	out := make([]repo.Pool, 0, len(f.pools))
	for _, p := range f.pools {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) GetPool(_ context.Context, poolID string) (repo.Pool, []repo.Participant, error) {
	p, ok := f.pools[poolID]
	if !ok {
		return repo.Pool{}, nil, repo.ErrNotFound
	}
	var parts []repo.Participant
	for _, pt := range f.parts[poolID] {
		parts = append(parts, *pt)
	}
	return *p, parts, nil
}

func (f *fakeRepo) ListUserPools(_ context.Context, userID string) ([]repo.Membership, error) {
	var out []repo.Membership
	for poolID, parts := range f.parts {
		for _, pt := range parts {
			if pt.UserID != userID {
				continue
			}
			out = append(out, repo.Membership{
				Pool:        *f.pools[poolID],
				Status:      pt.Status,
				BetCents:    pt.BetCents,
				BetChoice:   pt.BetChoice,
				PayoutCents: pt.PayoutCents,
			})
		}
	}
	return out, nil
}

func (f *fakeRepo) CheckJoin(_ context.Context, poolID, userID string, betCents int64, inviteCode string) error {
	return f.validate(poolID, userID, betCents, inviteCode)
}

func (f *fakeRepo) Join(_ context.Context, poolID string, part *repo.Participant, inviteCode string) (repo.Pool, error) {
	if err := f.validate(poolID, part.UserID, part.BetCents, inviteCode); err != nil {
		return repo.Pool{}, err
	}
	p := f.pools[poolID]
	part.PoolID = poolID
	part.Status = repo.ParticipantJoined
	f.parts[poolID] = append(f.parts[poolID], part)
	p.TotalStakedCents += part.BetCents
	p.Participants++
	return *p, nil
}

func (f *fakeRepo) Withdraw(_ context.Context, poolID, userID string) (repo.Participant, repo.Pool, error) {
	p, ok := f.pools[poolID]
	if !ok {
		return repo.Participant{}, repo.Pool{}, repo.ErrNotFound
	}
	if p.Status != repo.PoolOpen {
		return repo.Participant{}, repo.Pool{}, repo.ErrPoolClosed
	}
	for _, pt := range f.parts[poolID] {
		if pt.UserID == userID && pt.Status == repo.ParticipantJoined {
			pt.Status = repo.ParticipantWithdrawn
			p.TotalStakedCents -= pt.BetCents
			p.Participants--
			return *pt, *p, nil
		}
	}
	return repo.Participant{}, repo.Pool{}, repo.ErrNotJoined
}

func (f *fakeRepo) Claim(_ context.Context, poolID, userID string) (int64, error) {
	for _, pt := range f.parts[poolID] {
		if pt.UserID == userID && pt.Status == repo.ParticipantWon {
			pt.Status = repo.ParticipantClaimed
			return pt.PayoutCents, nil
		}
	}
	return 0, repo.ErrNothingToClaim
}

func (f *fakeRepo) validate(poolID, userID string, betCents int64, inviteCode string) error {
	p, ok := f.pools[poolID]
	if !ok {
		return repo.ErrNotFound
	}
	if p.Status != repo.PoolOpen {
		return repo.ErrPoolClosed
	}
	if p.Private && inviteCode != p.InviteCode {
		return repo.ErrInvalidInviteCode
	}
	if betCents < p.MinDepositCents {
		return repo.ErrBelowMinimum
	}
	active := 0
	for _, pt := range f.parts[poolID] {
		if pt.Status == repo.ParticipantJoined && pt.UserID == userID {
			return repo.ErrAlreadyJoined
		}
		if pt.Status != repo.ParticipantWithdrawn {
			active++
		}
	}
	if active >= p.MaxParticipants {
		return repo.ErrCapacityExceeded
	}
	return nil
}

// fakeWallet registra débitos e créditos; balance limita os débitos.
type fakeWallet struct {
	balance int64
	debits  []int64
	credits []int64
	tokens  int64
	failOn  string
}

func (f *fakeWallet) Debit(_ context.Context, _ string, cents int64, _ string) error {
	if f.failOn == "debit" || f.balance < cents {
		return wallet.ErrInsufficientFunds
	}
	f.balance -= cents
	f.debits = append(f.debits, cents)
	return nil
}

func (f *fakeWallet) Credit(_ context.Context, _ string, cents int64, _ string) error {
	f.balance += cents
	f.credits = append(f.credits, cents)
	return nil
}

func (f *fakeWallet) AwardTokens(_ context.Context, _ string, tokens int64) error {
	f.tokens += tokens
	return nil
}

type fakePublisher struct {
	joined    []events.PoolJoined
	withdrawn []events.PoolWithdrawn
	claimed   []events.WinningsClaimed
}

func (f *fakePublisher) PublishPoolJoined(_ context.Context, e events.PoolJoined) error {
	f.joined = append(f.joined, e)
	return nil
}

func (f *fakePublisher) PublishPoolWithdrawn(_ context.Context, e events.PoolWithdrawn) error {
	f.withdrawn = append(f.withdrawn, e)
	return nil
}

func (f *fakePublisher) PublishWinningsClaimed(_ context.Context, e events.WinningsClaimed) error {
	f.claimed = append(f.claimed, e)
	return nil
}

func newTestServer(r *fakeRepo, w *fakeWallet, p *fakePublisher) http.Handler {
	return NewServer(zap.NewNop(), r, w, p, nil, 0, 10).Router()
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func openPool(f *fakeRepo) *repo.Pool {
	return f.addPool(repo.Pool{
		ID:              "p1",
		Title:           "Lakers vs Celtics",
		Sport:           "basketball",
		League:          "NBA",
		EventID:         "ev1",
		OwnerID:         "owner",
		MinDepositCents: 1000,
		MaxParticipants: 4,
		WinSplit:        70,
		MatchDate:       "2026-09-01",
	})
}

func TestJoinDebitsWalletAndPublishes(t *testing.T) {
	f := newFakeRepo()
	openPool(f)
	w := &fakeWallet{balance: 10000}
	p := &fakePublisher{}
	srv := newTestServer(f, w, p)

	rec := post(t, srv, "/v1/pools/p1/join", dto.JoinPoolRequest{
		UserID: "u1", Name: "Ana", BetCents: 5000, BetChoice: "win",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.JoinPoolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5000), resp.TotalStakedCents)
	assert.Equal(t, "100.0", resp.SharePercent)
	assert.Equal(t, int64(3500), resp.PotentialPayoutCents) // 5000 * 70%

	assert.Equal(t, int64(5000), w.balance)
	assert.Equal(t, int64(5), w.tokens) // 1 por $10
	require.Len(t, p.joined, 1)
	assert.Equal(t, "ev1", p.joined[0].EventID)
}

func TestJoinInsufficientFundsNoMutation(t *testing.T) {
	f := newFakeRepo()
	openPool(f)
	w := &fakeWallet{balance: 100}
	srv := newTestServer(f, w, &fakePublisher{})

	rec := post(t, srv, "/v1/pools/p1/join", dto.JoinPoolRequest{
		UserID: "u1", BetCents: 5000, BetChoice: "win",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.parts["p1"])
	assert.Equal(t, int64(100), w.balance)
}

func TestJoinBelowMinimumSkipsDebit(t *testing.T) {
	f := newFakeRepo()
	openPool(f)
	w := &fakeWallet{balance: 10000}
	srv := newTestServer(f, w, &fakePublisher{})

	rec := post(t, srv, "/v1/pools/p1/join", dto.JoinPoolRequest{
		UserID: "u1", BetCents: 500, BetChoice: "win",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, w.debits)
}

func TestJoinPrivatePoolRequiresInvite(t *testing.T) {
	f := newFakeRepo()
	f.addPool(repo.Pool{
		ID: "p2", Title: "Private", Sport: "soccer", EventID: "ev2", OwnerID: "owner",
		MinDepositCents: 1000, MaxParticipants: 4, WinSplit: 70,
		Private: true, InviteCode: "ABC123",
	})
	w := &fakeWallet{balance: 10000}
	srv := newTestServer(f, w, &fakePublisher{})

	rec := post(t, srv, "/v1/pools/p2/join", dto.JoinPoolRequest{
		UserID: "u1", BetCents: 2000, BetChoice: "draw", InviteCode: "WRONG",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(t, srv, "/v1/pools/p2/join", dto.JoinPoolRequest{
		UserID: "u1", BetCents: 2000, BetChoice: "draw", InviteCode: "ABC123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJoinCapacity(t *testing.T) {
	f := newFakeRepo()
	p := openPool(f)
	p.MaxParticipants = 2
	w := &fakeWallet{balance: 100000}
	srv := newTestServer(f, w, &fakePublisher{})

	for i, user := range []string{"u1", "u2"} {
		rec := post(t, srv, "/v1/pools/p1/join", dto.JoinPoolRequest{
			UserID: user, BetCents: 2000, BetChoice: "win",
		})
		require.Equal(t, http.StatusOK, rec.Code, "join %d", i)
	}

	rec := post(t, srv, "/v1/pools/p1/join", dto.JoinPoolRequest{
		UserID: "u3", BetCents: 2000, BetChoice: "win",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, w.credits) // rejeitado antes do débito, sem compensação
}

// Saída de pool aberto: taxa de 5% retida, líquido creditado na carteira.
func TestWithdrawFromPoolAppliesRateFee(t *testing.T) {
	f := newFakeRepo()
	openPool(f)
	w := &fakeWallet{balance: 10000}
	p := &fakePublisher{}
	srv := newTestServer(f, w, p)

	post(t, srv, "/v1/pools/p1/join", dto.JoinPoolRequest{
		UserID: "u1", BetCents: 8000, BetChoice: "win",
	})
	rec := post(t, srv, "/v1/pools/p1/withdraw", dto.WithdrawFromPoolRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.WithdrawFromPoolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(400), resp.FeeCents) // 5% de $80
	assert.Equal(t, int64(7600), resp.NetCents)
	assert.Equal(t, resp.FeeCents+resp.NetCents, int64(8000))

	assert.Equal(t, int64(0), f.pools["p1"].TotalStakedCents)
	require.Len(t, p.withdrawn, 1)
}

func TestWithdrawNotJoined(t *testing.T) {
	f := newFakeRepo()
	openPool(f)
	srv := newTestServer(f, &fakeWallet{}, &fakePublisher{})

	rec := post(t, srv, "/v1/pools/p1/withdraw", dto.WithdrawFromPoolRequest{UserID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Resgate de prêmio: taxa fixa de $2.50 e líquido creditado; segundo
// resgate é rejeitado.
func TestClaimOnceOnly(t *testing.T) {
	f := newFakeRepo()
	pool := openPool(f)
	pool.Status = repo.PoolResolved
	f.parts["p1"] = []*repo.Participant{{
		UserID: "u1", BetCents: 5000, BetChoice: "win",
		Status: repo.ParticipantWon, PayoutCents: 9000,
	}}
	w := &fakeWallet{}
	p := &fakePublisher{}
	srv := newTestServer(f, w, p)

	rec := post(t, srv, "/v1/pools/p1/claim", dto.ClaimRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ClaimResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(9000), resp.WinningsCents)
	assert.Equal(t, int64(250), resp.FeeCents)
	assert.Equal(t, int64(8750), resp.NetCents)
	assert.Equal(t, int64(8750), w.balance)
	require.Len(t, p.claimed, 1)

	rec = post(t, srv, "/v1/pools/p1/claim", dto.ClaimRequest{UserID: "u1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int64(8750), w.balance)
}

func TestListPoolsFilterAndPaging(t *testing.T) {
	f := newFakeRepo()
	f.addPool(repo.Pool{ID: "a", Title: "Lakers Night", Sport: "basketball", League: "NBA"})
	f.addPool(repo.Pool{ID: "b", Title: "Clasico", Sport: "soccer", League: "La Liga"})
	f.addPool(repo.Pool{ID: "c", Title: "Heat vs Lakers", Sport: "basketball", League: "NBA"})
	srv := newTestServer(f, &fakeWallet{}, &fakePublisher{})

	rec := get(t, srv, "/v1/pools?q=lakers&sport=basketball&page=1&pageSize=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.PoolListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Pools, 1)
	assert.True(t, resp.HasMore)
}

func TestGetPoolHidesInviteFromNonOwner(t *testing.T) {
	f := newFakeRepo()
	f.addPool(repo.Pool{
		ID: "p3", Title: "Private", Sport: "soccer", OwnerID: "owner",
		MinDepositCents: 1000, MaxParticipants: 4, WinSplit: 70,
		Private: true, InviteCode: "ABC123",
	})
	srv := newTestServer(f, &fakeWallet{}, &fakePublisher{})

	var resp dto.PoolDetailsResponse
	rec := get(t, srv, "/v1/pools/p3?userId=other")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.InviteCode)

	rec = get(t, srv, "/v1/pools/p3?userId=owner")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ABC123", resp.InviteCode)
}

// A listagem "meus pools" mostra cada participação com status e valores
// próprios; pools alheios ficam de fora.
func TestListUserPools(t *testing.T) {
	f := newFakeRepo()
	openPool(f)
	resolved := f.addPool(repo.Pool{
		ID: "p9", Title: "Decided", Sport: "soccer", EventID: "ev9", OwnerID: "owner",
		MinDepositCents: 1000, MaxParticipants: 4, WinSplit: 70,
		Status: repo.PoolResolved, TotalStakedCents: 10000, Outcome: "win",
	})
	f.parts["p9"] = []*repo.Participant{
		{UserID: "u1", BetCents: 4000, BetChoice: "win", Status: repo.ParticipantWon, PayoutCents: 7000},
		{UserID: "u2", BetCents: 6000, BetChoice: "draw", Status: repo.ParticipantLost},
	}
	w := &fakeWallet{balance: 10000}
	srv := newTestServer(f, w, &fakePublisher{})

	post(t, srv, "/v1/pools/p1/join", dto.JoinPoolRequest{
		UserID: "u1", Name: "Ana", BetCents: 5000, BetChoice: "win",
	})

	rec := get(t, srv, "/v1/users/u1/pools")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.MyPoolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Pools, 2)

	byPool := map[string]dto.MyPoolEntry{}
	for _, e := range resp.Pools {
		byPool[e.PoolID] = e
	}

	joined := byPool["p1"]
	assert.Equal(t, repo.ParticipantJoined, joined.MyStatus)
	assert.Equal(t, int64(5000), joined.MyBetCents)
	assert.Equal(t, int64(3500), joined.PotentialPayoutCents) // 5000 * 70%

	won := byPool["p9"]
	assert.Equal(t, repo.ParticipantWon, won.MyStatus)
	assert.Equal(t, int64(7000), won.MyPayoutCents)
	assert.Equal(t, resolved.Outcome, "win")

	// u3 não entrou em nada
	rec = get(t, srv, "/v1/users/u3/pools")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Pools)
}

func TestCreatePoolValidatesWinSplit(t *testing.T) {
	f := newFakeRepo()
	srv := newTestServer(f, &fakeWallet{}, &fakePublisher{})

	rec := post(t, srv, "/v1/pools", dto.CreatePoolRequest{
		UserID: "owner", Title: "Bad Split", Sport: "soccer", EventID: "ev9",
		MinDepositCents: 1000, MaxParticipants: 4, WinSplit: 95,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, srv, "/v1/pools", dto.CreatePoolRequest{
		UserID: "owner", Title: "Good Split", Sport: "soccer", EventID: "ev9",
		MinDepositCents: 1000, MaxParticipants: 4, WinSplit: 70,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}
