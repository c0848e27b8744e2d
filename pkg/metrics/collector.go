package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"plantguide/pkg/narration"
)

var narrationStates = []narration.State{narration.Idle, narration.Speaking, narration.Paused}

// collector reads live values at scrape time.
type collector struct {
	src Sources

	apiSuccess *prometheus.Desc
	apiFailure *prometheus.Desc
	fallbacks  *prometheus.Desc
	canceled   *prometheus.Desc
	state      *prometheus.Desc
	sessions   *prometheus.Desc
	pending    *prometheus.Desc
	plants     *prometheus.Desc
}

func newCollector(src Sources) *collector {
	provider := []string{"provider"}
	return &collector{
		src: src,
		apiSuccess: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "provider", "api_success_total"),
			"Successful calls per external provider.",
			provider, nil,
		),
		apiFailure: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "provider", "api_failures_total"),
			"Failed calls per external provider.",
			provider, nil,
		),
		fallbacks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "provider", "fallbacks_total"),
			"Provider results replaced by a local fallback.",
			provider, nil,
		),
		canceled: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "provider", "canceled_total"),
			"Provider calls abandoned by the caller.",
			provider, nil,
		),
		state: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "narration", "state"),
			"1 for the current narration state.",
			[]string{"state"}, nil,
		),
		sessions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "narration", "sessions_total"),
			"Narration sessions started or stopped.",
			nil, nil,
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "narration", "translation_pending"),
			"1 while a translation is in flight.",
			nil, nil,
		),
		plants: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "catalog", "plants"),
			"Plants in the loaded catalog.",
			nil, nil,
		),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.apiSuccess
	ch <- c.apiFailure
	ch <- c.fallbacks
	ch <- c.canceled
	ch <- c.state
	ch <- c.sessions
	ch <- c.pending
	ch <- c.plants
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	if c.src.Tracker != nil {
		for name, st := range c.src.Tracker.Snapshot() {
			ch <- prometheus.MustNewConstMetric(c.apiSuccess, prometheus.CounterValue, float64(st.APISuccess), name)
			ch <- prometheus.MustNewConstMetric(c.apiFailure, prometheus.CounterValue, float64(st.APIFailures), name)
			ch <- prometheus.MustNewConstMetric(c.fallbacks, prometheus.CounterValue, float64(st.Fallbacks), name)
			ch <- prometheus.MustNewConstMetric(c.canceled, prometheus.CounterValue, float64(st.Canceled), name)
		}
	}

	if c.src.Narration != nil {
		st := c.src.Narration()
		for _, s := range narrationStates {
			v := 0.0
			if st.State == s {
				v = 1
			}
			ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, s.String())
		}
		ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.CounterValue, float64(st.Session))
		pending := 0.0
		if st.Pending {
			pending = 1
		}
		ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, pending)
	}

	if c.src.Plants != nil {
		ch <- prometheus.MustNewConstMetric(c.plants, prometheus.GaugeValue, float64(c.src.Plants()))
	}
}
