package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the bot's Prometheus counters.
type Recorder struct {
	questionsIssued *prometheus.CounterVec
	premiumDenied   prometheus.Counter
	answers         *prometheus.CounterVec
	payments        *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		questionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codespark",
			Name:      "questions_issued_total",
			Help:      "Quiz questions sent to users.",
		}, []string{"premium"}),
		premiumDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codespark",
			Name:      "premium_denied_total",
			Help:      "Premium questions withheld from non-premium users.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codespark",
			Name:      "answers_total",
			Help:      "Evaluated answers by result.",
		}, []string{"result"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codespark",
			Name:      "payments_total",
			Help:      "Payment notifications by match result.",
		}, []string{"result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codespark",
			Name:      "broadcast_deliveries_total",
			Help:      "Broadcast sends by status.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(r.questionsIssued, r.premiumDenied, r.answers, r.payments, r.deliveries)
	}
	return r
}

// Nop returns an unregistered recorder, handy for tests.
func Nop() *Recorder {
	return New(nil)
}

func (r *Recorder) QuestionIssued(premium bool) {
	r.questionsIssued.WithLabelValues(strconv.FormatBool(premium)).Inc()
}

func (r *Recorder) PremiumDenied() {
	r.premiumDenied.Inc()
}

// Answer records an evaluated answer; result is "correct", "wrong" or "missing".
func (r *Recorder) Answer(result string) {
	r.answers.WithLabelValues(result).Inc()
}

func (r *Recorder) Payment(matched bool) {
	result := "unmatched"
	if matched {
		result = "matched"
	}
	r.payments.WithLabelValues(result).Inc()
}

func (r *Recorder) Delivery(ok bool) {
	status := "failed"
	if ok {
		status = "delivered"
	}
	r.deliveries.WithLabelValues(status).Inc()
}
