package health

import (
	"strings"

	"redis-server/internal/logs"
	"redis-server/internal/metrics"
)

// Analyzer converts metrics + logs into a health report.
type Analyzer struct {
	metrics *metrics.Registry
	logger  *logs.Logger
	rules   []Rule
}

// NewAnalyzer creates an analyzer with the default rule set.
func NewAnalyzer(
	reg *metrics.Registry,
	logger *logs.Logger,
) *Analyzer {
	return &Analyzer{
		metrics: reg,
		logger:  logger,
		rules: []Rule{
			CommandErrorRateRule,
			MissRateRule,
			ExpiredChurnRule,
			RejectedConnectionsRule,
		},
	}
}

// Analyze evaluates metrics and recent logs and returns a health report.
func (a *Analyzer) Analyze() HealthReport {
	snapshot := a.metrics.Snapshot()

	var (
		signals         = []string{}
		recommendations = []string{}
		status          = StatusOK
	)

	/* ---------- METRICS-BASED RULES ---------- */

	for _, rule := range a.rules {
		result := rule(snapshot)
		if !result.Triggered {
			continue
		}

		signals = append(signals, result.Signal)
		recommendations = append(recommendations, result.Recommendation)

		// Escalate status
		if result.Severity == StatusCritical {
			status = StatusCritical
		} else if result.Severity == StatusDegraded && status == StatusOK {
			status = StatusDegraded
		}
	}

	/* ---------- LOG-BASED SIGNALS ---------- */

	logEntries := a.logger.GetLast(100)

	acceptFailures := 0
	panicCount := 0

	for _, entry := range logEntries {
		if entry.Level == logs.ERROR &&
			strings.Contains(entry.Message, "accept") {
			acceptFailures++
		}

		if entry.Level == logs.ERROR &&
			strings.Contains(entry.Message, "panic") {
			panicCount++
		}
	}

	if acceptFailures >= 3 {
		signals = append(signals,
			"Repeated accept failures detected in logs",
		)
		recommendations = append(recommendations,
			"Check file descriptor limits and listener health",
		)
		if status == StatusOK {
			status = StatusDegraded
		}
	}

	if panicCount > 0 {
		signals = append(signals,
			"Handler panics detected in logs",
		)
		recommendations = append(recommendations,
			"Inspect stack traces and stabilize error handling",
		)
		status = StatusCritical
	}

	/* ---------- SUMMARY ---------- */

	summary := "Server is healthy"
	if status != StatusOK {
		summary = "Server health issues detected"
	}

	return HealthReport{
		OverallStatus:   status,
		Summary:         summary,
		Signals:         signals,
		Recommendations: recommendations,
	}
}
