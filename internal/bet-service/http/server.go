package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/bet-service/conflict"
	"github.com/radieske/pelada-bet-platform/internal/bet-service/dto"
	"github.com/radieske/pelada-bet-platform/internal/bet-service/odds"
	"github.com/radieske/pelada-bet-platform/internal/bet-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
	"github.com/radieske/pelada-bet-platform/internal/shared/wallet"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

// oddTolerance absorve o arredondamento de duas casas entre cliente e cache
const oddTolerance = 0.005

type Repo interface {
	CreateSlip(ctx context.Context, s *repo.Slip) (string, error)
	DeleteSlip(ctx context.Context, id string) error
	GetSlip(ctx context.Context, id string) (repo.Slip, error)
	ListByUser(ctx context.Context, userID string) ([]repo.Slip, error)
}

type OddsSource interface {
	CurrentOdd(ctx context.Context, matchID, token string) (float64, error)
}

type Wallet interface {
	Reserve(ctx context.Context, userID string, cents int64, externalRef string) (string, error)
	Refund(ctx context.Context, userID, externalRef string) error
}

type Publisher interface {
	PublishSlipPlaced(ctx context.Context, e events.SlipPlaced) error
}

type Server struct {
	log    *zap.Logger
	repo   Repo
	odds   OddsSource
	wallet Wallet
	publ   Publisher
	ws     http.HandlerFunc

	// OnPlaced é chamado a cada tentativa de aposta (result = PLACED ou o código do erro)
	OnPlaced func(result string)
}

func NewServer(log *zap.Logger, r Repo, o OddsSource, w Wallet, p Publisher, ws http.HandlerFunc) *Server {
	return &Server{log: log, repo: r, odds: o, wallet: w, publ: p, ws: ws}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /slips", s.placeSlip)
	mux.HandleFunc("POST /slips/check", s.checkLeg)
	mux.HandleFunc("GET /slips", s.listSlips) // ?userId=...
	mux.HandleFunc("GET /slips/{id}", s.getSlip)
	if s.ws != nil {
		mux.HandleFunc("GET /ws", s.ws)
	}
	return mux
}

// releaseReservation estorna uma reserva de resultado incerto. ErrNotFound
// significa que ela nunca foi criada.
func (s *Server) releaseReservation(ctx context.Context, userID, slipID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.wallet.Refund(ctx, userID, slipID); err != nil && !errors.Is(err, wallet.ErrNotFound) {
		s.log.Warn("refund after failed reserve failed", zap.String("slip_id", slipID), zap.Error(err))
	}
}

func (s *Server) observe(result string) {
	if s.OnPlaced != nil {
		s.OnPlaced(result)
	}
}

func (s *Server) reject(w http.ResponseWriter, status int, code, msg string, detail any) {
	s.observe(code)
	if detail != nil {
		httpx.WriteDetail(w, status, code, msg, detail)
		return
	}
	httpx.WriteError(w, status, code, msg)
}

// placeSlip valida as seleções, grava o bilhete e reserva o valor apostado
func (s *Server) placeSlip(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceSlipRequest
	if !httpx.Decode(w, r, &req) {
		s.observe("VALIDATION")
		return
	}
	ctx := r.Context()

	// 1) Interpreta os tokens e checa conflitos entre as seleções
	legs := make([]conflict.Leg, len(req.Legs))
	for i, l := range req.Legs {
		leg, err := conflict.NewLeg(l.MatchID, l.Detail)
		if err != nil {
			s.reject(w, http.StatusUnprocessableEntity, "INVALID_DETAIL", fmt.Sprintf("legs[%d]: %v", i, err), nil)
			return
		}
		legs[i] = leg
	}
	if i, c := conflict.CheckSlip(legs); c != nil {
		s.reject(w, http.StatusConflict, "BET_CONFLICT", c.Message, dto.ConflictDetail{LegIndex: i, Conflict: c})
		return
	}

	// 2) Valida a odd atual no cache
	for i, l := range req.Legs {
		cur, err := s.odds.CurrentOdd(ctx, l.MatchID, l.Detail)
		switch {
		case errors.Is(err, odds.ErrMarketClosed):
			s.reject(w, http.StatusConflict, "MARKET_CLOSED", fmt.Sprintf("legs[%d]: market %s is not open", i, l.Detail), nil)
			return
		case err != nil:
			s.log.Error("odds lookup failed", zap.String("match_id", l.MatchID), zap.Error(err))
			s.reject(w, http.StatusServiceUnavailable, "ODDS_UNAVAILABLE", "odds unavailable, try again", nil)
			return
		case math.Abs(cur-l.Odd) > oddTolerance:
			s.reject(w, http.StatusConflict, "ODD_CHANGED", fmt.Sprintf("legs[%d]: odd changed", i),
				dto.OddChangedDetail{LegIndex: i, Seen: l.Odd, Current: cur})
			return
		}
	}

	// 3) Grava bilhete + seleções numa transação
	slip := repo.Slip{
		UserID:     req.UserID,
		Type:       repo.SlipType(len(req.Legs)),
		StakeCents: req.StakeCents,
		Odd:        combinedOdd(req.Legs),
	}
	for _, l := range req.Legs {
		slip.Legs = append(slip.Legs, repo.Leg{MatchID: l.MatchID, Detail: l.Detail, Odd: l.Odd})
	}
	slipID, err := s.repo.CreateSlip(ctx, &slip)
	if err != nil {
		s.observe("INTERNAL")
		httpx.Internal(w, s.log, "create slip failed", err)
		return
	}

	// 4) Reserva saldo via wallet (external_ref = slipID); sem reserva o bilhete é desfeito
	if _, err := s.wallet.Reserve(ctx, req.UserID, req.StakeCents, slipID); err != nil {
		if derr := s.repo.DeleteSlip(ctx, slipID); derr != nil {
			s.log.Error("rollback slip failed", zap.String("slip_id", slipID), zap.Error(derr))
		}
		switch {
		case errors.Is(err, wallet.ErrInsufficientFunds):
			s.reject(w, http.StatusConflict, "INSUFFICIENT_FUNDS", "insufficient funds", nil)
		case errors.Is(err, wallet.ErrNotFound):
			s.reject(w, http.StatusNotFound, "WALLET_NOT_FOUND", "wallet not found", nil)
		default:
			// resposta perdida: a reserva pode ter sido feita, então estorna
			s.log.Error("wallet reserve failed", zap.String("slip_id", slipID), zap.Error(err))
			s.releaseReservation(ctx, req.UserID, slipID)
			s.reject(w, http.StatusBadGateway, "WALLET_UNAVAILABLE", "wallet reserve failed", nil)
		}
		return
	}

	// 5) Publica evento slip_placed
	ev := events.SlipPlaced{
		SlipID:      slipID,
		UserID:      req.UserID,
		Type:        slip.Type,
		StakeCents:  req.StakeCents,
		Odd:         slip.Odd,
		ReservedRef: slipID,
	}
	for _, l := range slip.Legs {
		ev.Legs = append(ev.Legs, events.SlipLeg{LegID: l.ID, MatchID: l.MatchID, Detail: l.Detail, Odd: l.Odd})
	}
	if err := s.publ.PublishSlipPlaced(ctx, ev); err != nil {
		s.log.Warn("publish slip_placed failed", zap.String("slip_id", slipID), zap.Error(err))
	}

	s.observe("PLACED")
	s.log.Info("slip placed",
		zap.String("slip_id", slipID),
		zap.String("userId", req.UserID),
		zap.String("type", slip.Type),
		zap.Int("legs", len(slip.Legs)),
		zap.Float64("odd", slip.Odd),
	)
	httpx.WriteJSON(w, http.StatusCreated, dto.PlaceSlipResponse{
		SlipID: slipID,
		Status: slip.Status,
		Type:   slip.Type,
		Odd:    slip.Odd,
	})
}

// combinedOdd é o produto das odds, com duas casas
func combinedOdd(legs []dto.LegRequest) float64 {
	odd := decimal.NewFromInt(1)
	for _, l := range legs {
		odd = odd.Mul(decimal.NewFromFloat(l.Odd))
	}
	return odd.Round(2).InexactFloat64()
}

// checkLeg é a checagem consultiva de uma seleção contra o bilhete em montagem
func (s *Server) checkLeg(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	proposed, err := conflict.NewLeg(req.Proposed.MatchID, req.Proposed.Detail)
	if err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "INVALID_DETAIL", "proposed: "+err.Error())
		return
	}
	existing := make([]conflict.Leg, 0, len(req.Existing))
	for i, ref := range req.Existing {
		leg, err := conflict.NewLeg(ref.MatchID, ref.Detail)
		if err != nil {
			httpx.WriteError(w, http.StatusUnprocessableEntity, "INVALID_DETAIL", fmt.Sprintf("existing[%d]: %v", i, err))
			return
		}
		existing = append(existing, leg)
	}

	c := conflict.Check(proposed, existing)
	httpx.WriteJSON(w, http.StatusOK, dto.CheckResponse{OK: c == nil, Conflict: c})
}

func (s *Server) getSlip(w http.ResponseWriter, r *http.Request) {
	slip, err := s.repo.GetSlip(r.Context(), r.PathValue("id"))
	if errors.Is(err, repo.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "slip not found")
		return
	}
	if err != nil {
		httpx.Internal(w, s.log, "get slip failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slip)
}

func (s *Server) listSlips(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "userId is required")
		return
	}
	slips, err := s.repo.ListByUser(r.Context(), userID)
	if err != nil {
		httpx.Internal(w, s.log, "list slips failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slips)
}
