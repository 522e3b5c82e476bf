// Package gateway é a porta de entrada pública: repassa /api/* para os
// serviços com CORS e limite de requisições por IP.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
)

// Options são os destinos e as políticas do gateway
type Options struct {
	LeagueURL string
	BetURL    string
	WalletURL string

	AllowOrigins      []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func proxy(to string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q", to)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", u.Host), zap.String("path", r.URL.Path), zap.Error(err))
		httpx.WriteError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream unavailable")
	}
	return rp, nil
}

// NewRouter monta o roteador do gateway
func NewRouter(opts Options, log *zap.Logger) (http.Handler, error) {
	routes := []struct {
		prefix string
		to     string
	}{
		{"/api/league", opts.LeagueURL}, // league-service
		{"/api/bets", opts.BetURL},      // bet-service (inclui /ws)
		{"/api/wallet", opts.WalletURL}, // wallet-service
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	r.Use(c.Handler)
	if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
		r.Use(RateLimit(opts.RateLimitRequests, opts.RateLimitWindow))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	for _, rt := range routes {
		rp, err := proxy(rt.to, log)
		if err != nil {
			return nil, err
		}
		r.Mount(rt.prefix, http.StripPrefix(rt.prefix, rp))
	}
	return r, nil
}
