package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/booklend-go/internal/infra/buildinfo"
)

// BuildCollector exports booklend_build_info, a constant 1 labelled with
// the binary's version information.
type BuildCollector struct {
	desc *prometheus.Desc
	info buildinfo.Info
}

// NewBuildCollector creates a BuildCollector for the running binary.
func NewBuildCollector() *BuildCollector {
	return &BuildCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "build_info"),
			"Build information for the booklend client.",
			[]string{"version", "commit", "go_version"},
			nil,
		),
		info: buildinfo.Get(),
	}
}

// Describe implements prometheus.Collector.
func (c *BuildCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *BuildCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, 1,
		c.info.Version, c.info.Commit, c.info.GoVersion)
}
