package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Collector accessors for the external test package.

func RunsTotal(p *Pipeline) *prometheus.CounterVec { return p.metrics.runs }

func SubsetsScored(p *Pipeline) prometheus.Counter { return p.metrics.subsetsScored }

func DifferencingOrder(p *Pipeline) *prometheus.GaugeVec { return p.metrics.differencing }

func HoldoutRMSE(p *Pipeline) prometheus.Gauge { return p.metrics.holdoutRMSE }
