package prom

import (
	"sync"

	xhttp "github.com/andescargo/tracking-gateway/pkg/http"
	"github.com/andescargo/tracking-gateway/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	registerOnce sync.Once
	namespace    = "tracking"

	Enabled = false

	packagesCreated   prometheus.Counter
	statusTransitions *prometheus.CounterVec
	trackingLookups   *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
)

var defaultLabels prometheus.Labels

// Create registers the gateway's metric set. Safe to call once per process;
// metric helpers are no-ops until it has run.
func Create(host string, env string, nameSpace string) error {
	var err error
	registerOnce.Do(func() {
		if nameSpace != "" {
			namespace = nameSpace
		}
		defaultLabels = prometheus.Labels{"env": env, "instance": host}

		packagesCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "packages",
			Name:        "created_total",
			ConstLabels: defaultLabels,
		})
		statusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "packages",
			Name:        "status_transitions_total",
			ConstLabels: defaultLabels,
		}, []string{"status"})
		trackingLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "packages",
			Name:        "tracking_lookups_total",
			ConstLabels: defaultLabels,
		}, []string{"cache"})
		notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "notifier",
			Name:        "dispatched_total",
			ConstLabels: defaultLabels,
		}, []string{"status"})
		requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: defaultLabels,
		}, []string{"method", "path", "status"})

		for _, c := range []prometheus.Collector{
			packagesCreated, statusTransitions, trackingLookups, notifications, requestDuration,
		} {
			if e := prometheus.Register(c); e != nil && err == nil {
				err = e
			}
		}
		Enabled = err == nil
	})
	return err
}

func IncPackagesCreated() {
	if Enabled {
		packagesCreated.Inc()
	}
}

func IncStatusTransition(status string) {
	if Enabled {
		statusTransitions.WithLabelValues(status).Inc()
	}
}

func IncTrackingLookup(cache string) {
	if Enabled {
		trackingLookups.WithLabelValues(cache).Inc()
	}
}

func IncNotificationDispatched(status string) {
	if Enabled {
		notifications.WithLabelValues(status).Inc()
	}
}

func ObserveRequestDuration(method, path, status string, seconds float64) {
	if Enabled {
		requestDuration.WithLabelValues(method, path, status).Observe(seconds)
	}
}

// ListenAndServer exposes the prometheus handler on its own side port.
func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}
