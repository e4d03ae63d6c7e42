package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/pool-service/catalog"
	"github.com/radieske/pool-bet-platform/internal/pool-service/dto"
	"github.com/radieske/pool-bet-platform/internal/pool-service/repo"
	"github.com/radieske/pool-bet-platform/internal/pool-service/wallet"
	"github.com/radieske/pool-bet-platform/internal/shared/economics"
	"github.com/radieske/pool-bet-platform/internal/shared/metrics"
	"github.com/radieske/pool-bet-platform/pkg/contracts/events"
)

// Um DAK token de recompensa a cada $10 apostados ao entrar num pool.
const tokensPerThousandCents = 1

// Repository define as operações de persistência usadas pelos handlers.
type Repository interface {
	CreatePool(ctx context.Context, pool *repo.Pool) (string, error)
	ListPools(ctx context.Context) ([]repo.Pool, error)
	GetPool(ctx context.Context, poolID string) (repo.Pool, []repo.Participant, error)
	ListUserPools(ctx context.Context, userID string) ([]repo.Membership, error)
	CheckJoin(ctx context.Context, poolID, userID string, betCents int64, inviteCode string) error
	Join(ctx context.Context, poolID string, part *repo.Participant, inviteCode string) (repo.Pool, error)
	Withdraw(ctx context.Context, poolID, userID string) (repo.Participant, repo.Pool, error)
	Claim(ctx context.Context, poolID, userID string) (int64, error)
}

// WalletClient cobre os movimentos de carteira disparados pelo pool-service.
type WalletClient interface {
	Debit(ctx context.Context, userID string, cents int64, description string) error
	Credit(ctx context.Context, userID string, cents int64, description string) error
	AwardTokens(ctx context.Context, userID string, tokens int64) error
}

// Publisher emite os eventos de ciclo de vida no Kafka.
type Publisher interface {
	PublishPoolJoined(ctx context.Context, e events.PoolJoined) error
	PublishPoolWithdrawn(ctx context.Context, e events.PoolWithdrawn) error
	PublishWinningsClaimed(ctx context.Context, e events.WinningsClaimed) error
}

// CatalogCache guarda a projeção da listagem; nil desliga o cache.
type CatalogCache interface {
	GetCatalog(ctx context.Context, dst any) (bool, error)
	SetCatalog(ctx context.Context, v any, ttl time.Duration) error
	InvalidateCatalog(ctx context.Context) error
}

type Server struct {
	log             *zap.Logger
	repo            Repository
	wcli            WalletClient
	publ            Publisher
	cache           CatalogCache
	catalogTTL      time.Duration
	defaultPageSize int
}

func NewServer(log *zap.Logger, r Repository, w WalletClient, p Publisher, c CatalogCache, catalogTTL time.Duration, defaultPageSize int) *Server {
	return &Server{log: log, repo: r, wcli: w, publ: p, cache: c, catalogTTL: catalogTTL, defaultPageSize: defaultPageSize}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/pools", s.listPools)
	r.Post("/v1/pools", s.createPool)
	r.Get("/v1/pools/{id}", s.getPool)
	r.Get("/v1/users/{id}/pools", s.listUserPools)
	r.Post("/v1/pools/{id}/join", s.joinPool)
	r.Post("/v1/pools/{id}/withdraw", s.withdrawFromPool)
	r.Post("/v1/pools/{id}/claim", s.claimWinnings)
	return r
}

// listPools filtra e pagina o catálogo. A projeção completa vem do cache
// quando disponível; filtro e janela são aplicados por requisição.
func (s *Server) listPools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	sport := r.URL.Query().Get("sport")
	if sport == "" {
		sport = catalog.SportAll
	}
	page := intParam(r, "page", 1)
	pageSize := intParam(r, "pageSize", s.defaultPageSize)

	summaries, err := s.loadCatalog(r.Context())
	if err != nil {
		s.fail(w, "list pools", err)
		return
	}

	filtered := catalog.Filter(summaries, q, sport)
	window, err := catalog.Page(filtered, page, pageSize)
	if err != nil {
		http.Error(w, "invalid page params", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, dto.PoolListResponse{
		Pools:    window,
		Page:     page,
		PageSize: pageSize,
		HasMore:  catalog.HasMore(len(filtered), page, pageSize),
	})
}

func (s *Server) loadCatalog(ctx context.Context) ([]dto.PoolSummary, error) {
	var cached []dto.PoolSummary
	if s.cache != nil {
		if ok, _ := s.cache.GetCatalog(ctx, &cached); ok {
			return cached, nil
		}
	}

	pools, err := s.repo.ListPools(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.PoolSummary, 0, len(pools))
	for _, p := range pools {
		summaries = append(summaries, poolSummary(p))
	}
	if s.cache != nil {
		_ = s.cache.SetCatalog(ctx, summaries, s.catalogTTL)
	}
	return summaries, nil
}

// listUserPools responde "em quais pools estou": cada pool em que o
// usuário entrou, com o status e os valores da participação dele.
func (s *Server) listUserPools(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	memberships, err := s.repo.ListUserPools(r.Context(), userID)
	if err != nil {
		s.fail(w, "list user pools", err)
		return
	}

	out := dto.MyPoolsResponse{UserID: userID, Pools: make([]dto.MyPoolEntry, 0, len(memberships))}
	for _, m := range memberships {
		entry := dto.MyPoolEntry{
			PoolSummary:   poolSummary(m.Pool),
			MyStatus:      m.Status,
			MyBetCents:    m.BetCents,
			MyBetChoice:   m.BetChoice,
			MyPayoutCents: m.PayoutCents,
		}
		if m.Status == repo.ParticipantJoined && m.Pool.TotalStakedCents > 0 {
			entry.PotentialPayoutCents, _ = economics.PotentialPayout(
				m.Pool.TotalStakedCents, m.Pool.WinSplit, m.BetCents)
		}
		out.Pools = append(out.Pools, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPool(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Title == "" || req.Sport == "" || req.EventID == "" ||
		req.MinDepositCents <= 0 || req.MaxParticipants <= 1 || !economics.ValidWinSplit(req.WinSplit) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	pool := &repo.Pool{
		Title:           req.Title,
		Sport:           req.Sport,
		League:          req.League,
		EventID:         req.EventID,
		OwnerID:         req.UserID,
		MinDepositCents: req.MinDepositCents,
		MaxParticipants: req.MaxParticipants,
		WinSplit:        req.WinSplit,
		Private:         req.Private,
		MatchDate:       req.MatchDate,
	}
	id, err := s.repo.CreatePool(r.Context(), pool)
	if err != nil {
		s.fail(w, "create pool", err)
		return
	}
	s.invalidateCatalog(r.Context())

	writeJSON(w, http.StatusCreated, dto.CreatePoolResponse{
		PoolID:     id,
		InviteCode: pool.InviteCode,
		ShareURL:   shareURL(id, pool.InviteCode),
	})
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "id")
	pool, parts, err := s.repo.GetPool(r.Context(), poolID)
	if err != nil {
		s.fail(w, "get pool", err)
		return
	}

	// invite code só aparece para o dono
	invite := ""
	if pool.Private && r.URL.Query().Get("userId") == pool.OwnerID {
		invite = pool.InviteCode
	}

	views := make([]dto.ParticipantView, 0, len(parts))
	for _, pt := range parts {
		views = append(views, participantView(pool, pt))
	}

	writeJSON(w, http.StatusOK, dto.PoolDetailsResponse{
		PoolSummary:  poolSummary(pool),
		OwnerID:      pool.OwnerID,
		EventID:      pool.EventID,
		InviteCode:   invite,
		ShareURL:     shareURL(pool.ID, invite),
		Participants: views,
	})
}

// joinPool debita a carteira antes de registrar a entrada. Se o registro
// falhar depois do débito, o valor volta por um crédito de compensação.
func (s *Server) joinPool(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "id")
	var req dto.JoinPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.BetCents <= 0 || !repo.ValidChoice(req.BetChoice) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// pré-validação sem lock: evita debitar quem seria rejeitado
	if err := s.repo.CheckJoin(r.Context(), poolID, req.UserID, req.BetCents, req.InviteCode); err != nil {
		s.fail(w, "join pool", err)
		return
	}

	debitDesc := "pool join: " + poolID
	if err := s.wcli.Debit(r.Context(), req.UserID, req.BetCents, debitDesc); err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			metrics.WalletRejections.WithLabelValues("insufficient_funds").Inc()
			http.Error(w, "insufficient funds", http.StatusConflict)
			return
		}
		s.fail(w, "join pool debit", err)
		return
	}

	part := &repo.Participant{
		UserID:    req.UserID,
		Name:      req.Name,
		BetCents:  req.BetCents,
		BetChoice: req.BetChoice,
	}
	pool, err := s.repo.Join(r.Context(), poolID, part, req.InviteCode)
	if err != nil {
		// compensação: o débito já aconteceu, o registro não
		if cerr := s.wcli.Credit(r.Context(), req.UserID, req.BetCents, "pool join refund: "+poolID); cerr != nil {
			s.log.Error("compensating credit failed",
				zap.String("pool_id", poolID), zap.String("user_id", req.UserID), zap.Error(cerr))
		}
		s.fail(w, "join pool", err)
		return
	}
	metrics.PoolJoins.Inc()
	s.invalidateCatalog(r.Context())

	if tokens := req.BetCents / 1000 * tokensPerThousandCents; tokens > 0 {
		if err := s.wcli.AwardTokens(r.Context(), req.UserID, tokens); err != nil {
			s.log.Warn("token award failed", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}

	_ = s.publ.PublishPoolJoined(r.Context(), events.PoolJoined{
		PoolID:      poolID,
		UserID:      req.UserID,
		EventID:     pool.EventID,
		BetChoice:   req.BetChoice,
		BetCents:    req.BetCents,
		TotalStaked: pool.TotalStakedCents,
		DebitRef:    debitDesc,
	})

	share, _ := economics.SharePercent(req.BetCents, pool.TotalStakedCents)
	payout, _ := economics.PotentialPayout(pool.TotalStakedCents, pool.WinSplit, req.BetCents)
	writeJSON(w, http.StatusOK, dto.JoinPoolResponse{
		PoolID:               poolID,
		Status:               repo.ParticipantJoined,
		TotalStakedCents:     pool.TotalStakedCents,
		SharePercent:         share,
		PotentialPayoutCents: payout,
	})
}

// withdrawFromPool remove o participante de um pool aberto e devolve o
// valor líquido após a taxa percentual de saída.
func (s *Server) withdrawFromPool(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "id")
	var req dto.WithdrawFromPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	part, pool, err := s.repo.Withdraw(r.Context(), poolID, req.UserID)
	if err != nil {
		s.fail(w, "withdraw from pool", err)
		return
	}

	net, fee, err := economics.NetWithdrawal(part.BetCents, economics.PoolWithdrawFeeRate)
	if err != nil {
		s.fail(w, "withdraw from pool", err)
		return
	}
	if err := s.wcli.Credit(r.Context(), req.UserID, net, "pool withdrawal: "+poolID); err != nil {
		s.log.Error("withdraw credit failed",
			zap.String("pool_id", poolID), zap.String("user_id", req.UserID), zap.Error(err))
		s.fail(w, "withdraw credit", err)
		return
	}
	metrics.PoolWithdrawals.Inc()
	s.invalidateCatalog(r.Context())

	_ = s.publ.PublishPoolWithdrawn(r.Context(), events.PoolWithdrawn{
		PoolID:      poolID,
		UserID:      req.UserID,
		BetCents:    part.BetCents,
		FeeCents:    fee,
		NetCents:    net,
		TotalStaked: pool.TotalStakedCents,
	})

	writeJSON(w, http.StatusOK, dto.WithdrawFromPoolResponse{
		PoolID:   poolID,
		Status:   repo.ParticipantWithdrawn,
		FeeCents: fee,
		NetCents: net,
	})
}

// claimWinnings credita o prêmio líquido de um participante vencedor.
func (s *Server) claimWinnings(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "id")
	var req dto.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	winnings, err := s.repo.Claim(r.Context(), poolID, req.UserID)
	if err != nil {
		s.fail(w, "claim winnings", err)
		return
	}

	net, err := economics.NetClaim(winnings, economics.ClaimFeeCents)
	if err != nil {
		s.fail(w, "claim winnings", err)
		return
	}
	if err := s.wcli.Credit(r.Context(), req.UserID, net, "winnings claim: "+poolID); err != nil {
		s.log.Error("claim credit failed",
			zap.String("pool_id", poolID), zap.String("user_id", req.UserID), zap.Error(err))
		s.fail(w, "claim credit", err)
		return
	}

	_ = s.publ.PublishWinningsClaimed(r.Context(), events.WinningsClaimed{
		PoolID:        poolID,
		UserID:        req.UserID,
		WinningsCents: winnings,
		FeeCents:      economics.ClaimFeeCents,
		NetCents:      net,
	})

	writeJSON(w, http.StatusOK, dto.ClaimResponse{
		PoolID:        poolID,
		Status:        repo.ParticipantClaimed,
		WinningsCents: winnings,
		FeeCents:      economics.ClaimFeeCents,
		NetCents:      net,
	})
}

// fail mapeia erros de domínio para status HTTP
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "pool not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrPoolClosed):
		http.Error(w, "pool is not open", http.StatusConflict)
	case errors.Is(err, repo.ErrCapacityExceeded):
		http.Error(w, "pool is full", http.StatusConflict)
	case errors.Is(err, repo.ErrAlreadyJoined):
		http.Error(w, "already joined", http.StatusConflict)
	case errors.Is(err, repo.ErrInvalidInviteCode):
		http.Error(w, "invalid invite code", http.StatusForbidden)
	case errors.Is(err, repo.ErrBelowMinimum):
		http.Error(w, "bet below minimum deposit", http.StatusBadRequest)
	case errors.Is(err, repo.ErrNotJoined):
		http.Error(w, "not a participant", http.StatusNotFound)
	case errors.Is(err, repo.ErrNothingToClaim):
		http.Error(w, "nothing to claim", http.StatusConflict)
	default:
		s.log.Error("pool op failed", zap.String("op", op), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) invalidateCatalog(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateCatalog(ctx)
	}
}

func poolSummary(p repo.Pool) dto.PoolSummary {
	return dto.PoolSummary{
		PoolID:           p.ID,
		Title:            p.Title,
		Sport:            p.Sport,
		League:           p.League,
		MinDepositCents:  p.MinDepositCents,
		Participants:     p.Participants,
		MaxParticipants:  p.MaxParticipants,
		TotalStakedCents: p.TotalStakedCents,
		WinSplit:         p.WinSplit,
		Private:          p.Private,
		MatchDate:        p.MatchDate,
		Status:           p.Status,
	}
}

// participantView projeta os valores derivados exibidos no detalhe.
// Quem saiu do pool não entra no rateio.
func participantView(pool repo.Pool, pt repo.Participant) dto.ParticipantView {
	view := dto.ParticipantView{
		UserID:      pt.UserID,
		Name:        pt.Name,
		BetCents:    pt.BetCents,
		BetChoice:   pt.BetChoice,
		Owner:       pt.Owner,
		Status:      pt.Status,
		PayoutCents: pt.PayoutCents,
	}
	if pt.Status != repo.ParticipantWithdrawn && pool.TotalStakedCents > 0 {
		view.SharePercent, _ = economics.SharePercent(pt.BetCents, pool.TotalStakedCents)
		view.PotentialPayoutCents, _ = economics.PotentialPayout(pool.TotalStakedCents, pool.WinSplit, pt.BetCents)
	}
	return view
}

func shareURL(poolID, inviteCode string) string {
	u := "/pools/" + poolID
	if inviteCode != "" {
		u += "?invite=" + inviteCode
	}
	return u
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
