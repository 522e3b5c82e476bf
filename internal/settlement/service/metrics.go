package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics são os contadores da liquidação. Um *Metrics nil não registra nada.
type Metrics struct {
	Legs           *prometheus.CounterVec
	Slips          *prometheus.CounterVec
	PayoutCents    prometheus.Counter
	Matches        *prometheus.CounterVec
	WriteFailures  *prometheus.CounterVec
	RatingFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Legs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "settlement_legs_total", Help: "seleções resolvidas por status"},
			[]string{"status"},
		),
		Slips: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "settlement_slips_total", Help: "bilhetes fechados por status"},
			[]string{"status"},
		),
		PayoutCents: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "settlement_payout_cents_total", Help: "prêmios creditados em centavos"},
		),
		Matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "settlement_matches_total", Help: "partidas processadas (settled|resumed)"},
			[]string{"result"},
		),
		WriteFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "settlement_write_failures_total", Help: "falhas de escrita por etapa"},
			[]string{"stage"},
		),
		RatingFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "settlement_rating_failures_total", Help: "notas que não foram regravadas"},
		),
	}
	reg.MustRegister(m.Legs, m.Slips, m.PayoutCents, m.Matches, m.WriteFailures, m.RatingFailures)
	return m
}

func (m *Metrics) leg(status string) {
	if m != nil {
		m.Legs.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) slip(status string, payout int64) {
	if m == nil {
		return
	}
	m.Slips.WithLabelValues(status).Inc()
	if payout > 0 && status == "GANHO" {
		m.PayoutCents.Add(float64(payout))
	}
}

func (m *Metrics) match(result string) {
	if m != nil {
		m.Matches.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) failed(stage string) {
	if m != nil {
		m.WriteFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ratingFailures(n int) {
	if m != nil && n > 0 {
		m.RatingFailures.Add(float64(n))
	}
}
