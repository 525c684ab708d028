package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	operations   *prometheus.CounterVec
	totalStaked  prometheus.Gauge
	interestPaid prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_operations_total",
				Help: "Count of staking operations by name and outcome.",
			}, []string{"op", "outcome"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_total_staked",
				Help: "Aggregate principal currently staked across all accounts.",
			}),
			interestPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_interest_paid_total",
				Help: "Cumulative interest paid out to stakers.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.operations,
			stakingRegistry.totalStaked,
			stakingRegistry.interestPaid,
		)
	})
	return stakingRegistry
}

// ObserveOperation records a completed operation attempt.
func (m *StakingMetrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// SetTotalStaked refreshes the total-staked gauge. Values beyond float64
// precision are clamped by the conversion; the gauge is an operational signal,
// not an accounting source.
func (m *StakingMetrics) SetTotalStaked(total *big.Int) {
	if m == nil || total == nil {
		return
	}
	value, _ := new(big.Float).SetInt(total).Float64()
	m.totalStaked.Set(value)
}

// AddInterestPaid accumulates a successful interest payout.
func (m *StakingMetrics) AddInterestPaid(paid *big.Int) {
	if m == nil || paid == nil || paid.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(paid).Float64()
	m.interestPaid.Add(value)
}
