package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
	"github.com/radieske/pelada-bet-platform/internal/wallet-service/dto"
	"github.com/radieske/pelada-bet-platform/internal/wallet-service/repo"
)

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error)
	Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error)
	Credit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, applied bool, err error)
	Reserve(ctx context.Context, userID string, amount int64, externalRef string) (reservationID string, err error)
	Commit(ctx context.Context, userID, externalRef string) error
	Refund(ctx context.Context, userID, externalRef string) error
	Ledger(ctx context.Context, userID string, limit int) ([]repo.LedgerEntry, error)
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
	mux.HandleFunc("GET /wallet", s.getWallet)        // ?userId=...
	mux.HandleFunc("GET /wallet/ledger", s.getLedger) // ?userId=...&limit=
	mux.HandleFunc("POST /wallet/deposit", s.deposit)
	mux.HandleFunc("POST /wallet/credit", s.credit)
	mux.HandleFunc("POST /wallet/reserve", s.reserve)
	mux.HandleFunc("POST /wallet/commit", s.commit)
	mux.HandleFunc("POST /wallet/refund", s.refund)
	return mux
}

// getWallet retorna (ou cria) a carteira e saldo do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "userId is required")
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		httpx.Internal(w, s.log, "get wallet failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.WalletResponse{UserID: userID, WalletID: walletID, BalanceCents: bal})
}

func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "userId is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.repo.Ledger(r.Context(), userID, limit)
	if err != nil {
		httpx.Internal(w, s.log, "ledger failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

// deposit adiciona saldo à carteira do usuário
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	walletID, bal, err := s.repo.Deposit(r.Context(), req.UserID, req.AmountCents, req.ExternalRef)
	if err != nil {
		httpx.Internal(w, s.log, "deposit failed", err)
		return
	}
	s.log.Info("deposit", zap.String("userId", req.UserID), zap.Int64("amount_cents", req.AmountCents))
	httpx.WriteJSON(w, http.StatusOK, dto.WalletResponse{UserID: req.UserID, WalletID: walletID, BalanceCents: bal})
}

// credit paga um prêmio de aposta; repetir o mesmo external_ref não credita de novo
func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreditRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	walletID, bal, applied, err := s.repo.Credit(r.Context(), req.UserID, req.AmountCents, req.ExternalRef)
	if err != nil {
		httpx.Internal(w, s.log, "credit failed", err)
		return
	}
	if applied {
		s.log.Info("payout credited",
			zap.String("userId", req.UserID),
			zap.String("external_ref", req.ExternalRef),
			zap.Int64("amount_cents", req.AmountCents),
		)
	}
	httpx.WriteJSON(w, http.StatusOK, dto.CreditResponse{
		WalletResponse: dto.WalletResponse{UserID: req.UserID, WalletID: walletID, BalanceCents: bal},
		Applied:        applied,
	})
}

// reserve cria uma reserva de saldo (bloqueio) para o usuário
func (s *Server) reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	resID, err := s.repo.Reserve(r.Context(), req.UserID, req.AmountCents, req.ExternalRef)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "wallet not found")
		return
	case errors.Is(err, repo.ErrInsufficientFunds):
		httpx.WriteError(w, http.StatusConflict, "INSUFFICIENT_FUNDS", err.Error())
		return
	case err != nil:
		httpx.Internal(w, s.log, "reserve failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.ReservationResponse{ReservationID: resID, Status: repo.ReservationPending})
}

// commit efetiva uma reserva de saldo
func (s *Server) commit(w http.ResponseWriter, r *http.Request) {
	var req dto.CommitRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	s.resolve(w, s.repo.Commit(r.Context(), req.UserID, req.ExternalRef), repo.ReservationCommitted)
}

// refund desfaz uma reserva de saldo, devolvendo o valor ao usuário
func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	s.resolve(w, s.repo.Refund(r.Context(), req.UserID, req.ExternalRef), repo.ReservationRefunded)
}

func (s *Server) resolve(w http.ResponseWriter, err error, status string) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "reservation not found")
	case err != nil:
		httpx.Internal(w, s.log, "reservation update failed", err)
	default:
		httpx.WriteJSON(w, http.StatusOK, dto.StatusResponse{Status: status})
	}
}
