package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/shared/metrics"
	"github.com/radieske/pool-bet-platform/internal/wallet-service/dto"
	"github.com/radieske/pool-bet-platform/internal/wallet-service/repo"
)

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, userID string) (repo.Wallet, error)
	Deposit(ctx context.Context, userID string, amountCents int64, description string) (repo.Wallet, error)
	Withdraw(ctx context.Context, userID string, amountCents int64, destAddress string) (repo.Wallet, int64, error)
	ApplyDelta(ctx context.Context, userID string, deltaCents int64, description string) (repo.Wallet, error)
	AwardTokens(ctx context.Context, userID string, tokens int64) (repo.Wallet, error)
	ListTransactions(ctx context.Context, userID string) ([]repo.Transaction, error)
}

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log  *zap.Logger
	repo Repo
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)                 // GET ?userId=...
	mux.HandleFunc("/wallet/deposit", s.deposit)           // POST
	mux.HandleFunc("/wallet/withdraw", s.withdraw)         // POST
	mux.HandleFunc("/wallet/credit", s.credit)             // POST (interno)
	mux.HandleFunc("/wallet/debit", s.debit)               // POST (interno)
	mux.HandleFunc("/wallet/tokens", s.awardTokens)        // POST (interno)
	mux.HandleFunc("/wallet/transactions", s.transactions) // GET ?userId=...
	return mux
}

// getWallet retorna (ou cria) a carteira do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	wallet, err := s.repo.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		s.fail(w, "get wallet", err)
		return
	}
	writeJSON(w, walletResponse(wallet))
}

// deposit adiciona saldo à carteira do usuário
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	desc := req.Description
	if desc == "" {
		desc = "wallet top-up"
	}
	wallet, err := s.repo.Deposit(r.Context(), req.UserID, req.AmountCents, desc)
	if err != nil {
		s.fail(w, "deposit", err)
		return
	}
	metrics.WalletOps.WithLabelValues("deposit").Inc()
	writeJSON(w, walletResponse(wallet))
}

// withdraw debita valor + taxa fixa para um endereço externo
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 || !validAddress(req.DestAddress) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	wallet, fee, err := s.repo.Withdraw(r.Context(), req.UserID, req.AmountCents, req.DestAddress)
	if err != nil {
		s.fail(w, "withdraw", err)
		return
	}
	metrics.WalletOps.WithLabelValues("withdraw").Inc()
	writeJSON(w, dto.WithdrawResponse{
		UserID:             req.UserID,
		BalanceCents:       wallet.BalanceCents,
		FeeCents:           fee,
		TotalDeductedCents: req.AmountCents + fee,
	})
}

// credit aplica um delta positivo (devolução de pool, prêmio)
func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
	s.applyDelta(w, r, +1, "credit")
}

// debit aplica um delta negativo (stake de pool)
func (s *Server) debit(w http.ResponseWriter, r *http.Request) {
	s.applyDelta(w, r, -1, "debit")
}

func (s *Server) applyDelta(w http.ResponseWriter, r *http.Request, sign int64, op string) {
	var req dto.DeltaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 || req.Description == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	wallet, err := s.repo.ApplyDelta(r.Context(), req.UserID, sign*req.AmountCents, req.Description)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	metrics.WalletOps.WithLabelValues(op).Inc()
	writeJSON(w, walletResponse(wallet))
}

// awardTokens credita DAK tokens de recompensa
func (s *Server) awardTokens(w http.ResponseWriter, r *http.Request) {
	var req dto.AwardTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Tokens <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	wallet, err := s.repo.AwardTokens(r.Context(), req.UserID, req.Tokens)
	if err != nil {
		s.fail(w, "tokens", err)
		return
	}
	writeJSON(w, walletResponse(wallet))
}

// transactions retorna o extrato do usuário, mais recente primeiro
func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	txs, err := s.repo.ListTransactions(r.Context(), userID)
	if err != nil {
		s.fail(w, "transactions", err)
		return
	}

	out := dto.TransactionsResponse{UserID: userID, Transactions: make([]dto.Transaction, 0, len(txs))}
	for _, t := range txs {
		out.Transactions = append(out.Transactions, dto.Transaction{
			ID:          t.ID,
			Kind:        t.Kind,
			AmountCents: t.AmountCents,
			FeeCents:    t.FeeCents,
			Status:      t.Status,
			Description: t.Description,
			DestAddress: t.DestAddress,
			Date:        t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, out)
}

// fail mapeia erros de domínio para status HTTP; nada aqui derruba o processo
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repo.ErrInsufficientFunds):
		metrics.WalletRejections.WithLabelValues("insufficient_funds").Inc()
		http.Error(w, "insufficient funds", http.StatusConflict)
	case errors.Is(err, repo.ErrInvalidAmount):
		http.Error(w, "invalid amount", http.StatusBadRequest)
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "wallet not found", http.StatusNotFound)
	default:
		s.log.Error("wallet op failed", zap.String("op", op), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func walletResponse(w repo.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		UserID:       w.UserID,
		WalletID:     w.ID,
		Address:      w.Address,
		BalanceCents: w.BalanceCents,
		DakTokens:    w.DakTokens,
	}
}

// validAddress aceita endereços hex no formato 0x + 40 caracteres
func validAddress(addr string) bool {
	if len(addr) != 42 || addr[0] != '0' || addr[1] != 'x' {
		return false
	}
	for _, c := range addr[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
