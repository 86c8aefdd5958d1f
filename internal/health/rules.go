package health

import "redis-server/internal/metrics"

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       HealthStatus
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// ---------- RULES ----------

// CommandErrorRateRule flags a high share of rejected commands, which
// usually means a client speaks the protocol wrong.
func CommandErrorRateRule(snapshot map[string]int64) RuleResult {
	errorCount := snapshot[string(metrics.CommandErrorsTotal)]
	commands := snapshot[string(metrics.CommandsTotal)]

	// Triggers at roughly 5% of executed commands.
	if errorCount > 0 && errorCount*20 >= commands {
		return RuleResult{
			Triggered:      true,
			Signal:         "High rate of invalid commands",
			Recommendation: "Check client protocol compatibility",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// MissRateRule flags reads that almost never find their key, pointing at
// wrong key naming or lifetimes shorter than the access pattern.
func MissRateRule(snapshot map[string]int64) RuleResult {
	gets := snapshot[string(metrics.StoreGetsTotal)]
	misses := snapshot[string(metrics.StoreMissesTotal)]

	if gets >= 100 && misses*10 >= gets*9 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Reads are almost always missing",
			Recommendation: "Review key naming and expiration settings",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// ExpiredChurnRule flags a workload whose writes mostly die of expiry,
// which usually means the configured lifetimes are shorter than intended.
func ExpiredChurnRule(snapshot map[string]int64) RuleResult {
	sets := snapshot[string(metrics.StoreSetsTotal)]
	expired := snapshot[string(metrics.StoreExpiredTotal)]

	if sets >= 100 && expired*2 >= sets {
		return RuleResult{
			Triggered:      true,
			Signal:         "Keys are expiring at a high rate",
			Recommendation: "Review TTL settings if data disappears unexpectedly",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// RejectedConnectionsRule flags clients turned away at the connection
// limit.
func RejectedConnectionsRule(snapshot map[string]int64) RuleResult {
	rejected := snapshot[string(metrics.ConnectionsRejectedTotal)]

	if rejected > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Connections rejected at the client limit",
			Recommendation: "Raise max-clients or look for connection leaks",
			Severity:       StatusCritical,
		}
	}
	return RuleResult{}
}
