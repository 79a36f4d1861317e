package metrics

// Option defines some options to the metrics initialization
type Option func(*settings)

type settings struct {
	namespace   string
	constLabels map[string]string
	buckets     []float64
}

func defaultSettings() *settings {
	return &settings{
		namespace: DefaultNamespace,
		// cleanup runs last from sub-second to tens of minutes
		buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
	}
}

// WithNamespace prefixes all metric names (defaults to "autokit")
func WithNamespace(ns string) Option {
	return func(s *settings) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithConstLabels adds labels to every metric, e.g. the host or the job name
func WithConstLabels(labels map[string]string) Option {
	return func(s *settings) {
		s.constLabels = labels
	}
}

// WithDurationBuckets overrides the histogram buckets for run durations, in seconds
func WithDurationBuckets(buckets []float64) Option {
	return func(s *settings) {
		if len(buckets) > 0 {
			s.buckets = buckets
		}
	}
}
