package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Stats into a prometheus.Collector, exported as
// counters (monotonic since process start, matching Stats' own
// semantics) rather than gauges.
type Collector struct {
	stats *Stats

	rulesAdded           *prometheus.Desc
	rulesDeleted         *prometheus.Desc
	ruleAddErrors        *prometheus.Desc
	ruleDeleteErrors     *prometheus.Desc
	queriesTotal         *prometheus.Desc
	matchesTotal         *prometheus.Desc
	complexityRejections *prometheus.Desc
}

// NewCollector wraps stats for registration with a prometheus.Registry.
func NewCollector(stats *Stats) *Collector {
	ns := "rulematch"
	return &Collector{
		stats: stats,
		rulesAdded: prometheus.NewDesc(
			ns+"_rules_added_total", "Total rules successfully compiled into the machine.", nil, nil),
		rulesDeleted: prometheus.NewDesc(
			ns+"_rules_deleted_total", "Total rules successfully removed from the machine.", nil, nil),
		ruleAddErrors: prometheus.NewDesc(
			ns+"_rule_add_errors_total", "Total AddPatternRule calls that returned an error.", nil, nil),
		ruleDeleteErrors: prometheus.NewDesc(
			ns+"_rule_delete_errors_total", "Total DeletePatternRule calls that returned an error.", nil, nil),
		queriesTotal: prometheus.NewDesc(
			ns+"_queries_total", "Total Match calls evaluated.", nil, nil),
		matchesTotal: prometheus.NewDesc(
			ns+"_matches_total", "Total rule names returned across all Match calls.", nil, nil),
		complexityRejections: prometheus.NewDesc(
			ns+"_complexity_rejections_total", "Total queries short-circuited by a complexity-budget check.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.rulesAdded
	ch <- c.rulesDeleted
	ch <- c.ruleAddErrors
	ch <- c.ruleDeleteErrors
	ch <- c.queriesTotal
	ch <- c.matchesTotal
	ch <- c.complexityRejections
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.rulesAdded, prometheus.CounterValue, float64(snap.RulesAdded))
	ch <- prometheus.MustNewConstMetric(c.rulesDeleted, prometheus.CounterValue, float64(snap.RulesDeleted))
	ch <- prometheus.MustNewConstMetric(c.ruleAddErrors, prometheus.CounterValue, float64(snap.RuleAddErrors))
	ch <- prometheus.MustNewConstMetric(c.ruleDeleteErrors, prometheus.CounterValue, float64(snap.RuleDeleteErrors))
	ch <- prometheus.MustNewConstMetric(c.queriesTotal, prometheus.CounterValue, float64(snap.QueriesTotal))
	ch <- prometheus.MustNewConstMetric(c.matchesTotal, prometheus.CounterValue, float64(snap.MatchesTotal))
	ch <- prometheus.MustNewConstMetric(c.complexityRejections, prometheus.CounterValue, float64(snap.ComplexityRejections))
}
