package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func preloadLabelValues(m *PrometheusMetrics) {
	preloadLabelValuesForCounter(m.Requests.RequestStatus, map[string][]string{
		OpKey:     Ops,
		StatusKey: {TotalsVal, ErrorVal, BadRequestVal, RateLimitedVal},
	})
	preloadLabelValuesForCounter(m.Backend.Errors, map[string][]string{OpKey: Ops})
	preloadLabelValuesForCounter(m.Connections.ConnectionsErrors, map[string][]string{ConnErrorKey: {CloseVal, AcceptVal}})
}

func preloadLabelValuesForCounter(counter *prometheus.CounterVec, labelsWithValues map[string][]string) {
	registerLabelPermutations(labelsWithValues, func(labels prometheus.Labels) {
		counter.With(labels)
	})
}

func registerLabelPermutations(labelsWithValues map[string][]string, register func(prometheus.Labels)) {
	if len(labelsWithValues) == 0 {
		return
	}

	keys := make([]string, 0, len(labelsWithValues))
	values := make([][]string, 0, len(labelsWithValues))
	for k, v := range labelsWithValues {
		keys = append(keys, k)
		values = append(values, v)
	}

	labels := prometheus.Labels{}
	registerLabelPermutationsRecursive(keys, values, labels, register)
}

func registerLabelPermutationsRecursive(keys []string, values [][]string, labels prometheus.Labels, register func(prometheus.Labels)) {
	label := keys[0]
	isLeaf := len(keys) == 1

	if isLeaf {
		for _, v := range values[0] {
			labels[label] = v
			register(cloneLabels(labels))
		}
	} else {
		for _, v := range values[0] {
			labels[label] = v
			registerLabelPermutationsRecursive(keys[1:], values[1:], labels, register)
		}
	}
}

func cloneLabels(labels prometheus.Labels) prometheus.Labels {
	clone := prometheus.Labels{}
	for k, v := range labels {
		clone[k] = v
	}
	return clone
}
