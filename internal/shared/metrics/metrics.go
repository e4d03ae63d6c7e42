package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de negócio compartilhadas entre os serviços da plataforma.
// Cada serviço registra apenas as que utiliza via MustRegister.
var (
	PoolJoins = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pool_joins_total",
		Help: "Total de entradas em pools confirmadas",
	})

	PoolWithdrawals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pool_withdrawals_total",
		Help: "Total de saídas antecipadas de pools",
	})

	WalletOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_operations_total",
		Help: "Operações de carteira por tipo",
	}, []string{"op"})

	WalletRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_rejections_total",
		Help: "Operações de carteira rejeitadas por motivo",
	}, []string{"reason"})

	PoolsSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pools_settled_total",
		Help: "Pools resolvidos pelo settlement worker",
	})

	SettlementErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_errors_total",
		Help: "Erros do settlement worker por estágio",
	}, []string{"stage"})
)
