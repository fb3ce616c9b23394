package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LedgerEntries     *prometheus.CounterVec
	RepaymentsPosted  prometheus.Counter
	SplitsAccepted    prometheus.Counter
	RequestsCancelled prometheus.Counter
	LoansActivated    prometheus.Counter
	IntegrityFaults   prometheus.Counter
	SweepRuns         *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LedgerEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparklend_ledger_entries_total",
			Help: "Wallet ledger entries posted, by transaction type.",
		}, []string{"type"}),
		RepaymentsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sparklend_repayments_posted_total",
			Help: "Repayments accepted against loans.",
		}),
		SplitsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sparklend_splits_accepted_total",
			Help: "Lender splits accepted on loan requests.",
		}),
		RequestsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "sparklend_requests_cancelled_total",
			Help: "Loan requests cancelled, explicit or by expiry.",
		}),
		LoansActivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "sparklend_loans_activated_total",
			Help: "Loans created from fully funded requests.",
		}),
		IntegrityFaults: factory.NewCounter(prometheus.CounterOpts{
			Name: "sparklend_wallet_integrity_faults_total",
			Help: "Wallets whose balances diverged from their ledger replay.",
		}),
		SweepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparklend_sweep_runs_total",
			Help: "Sweeper job executions, by job and outcome.",
		}, []string{"job", "outcome"}),
	}
}
