package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tuffhub",
		Name:      "version_publish_total",
		Help:      "Published plugin versions by channel.",
	}, []string{"channel"})

	downloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tuffhub",
		Name:      "package_download_total",
		Help:      "Package downloads by channel.",
	}, []string{"channel"})

	installTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tuffhub",
		Name:      "plugin_install_total",
		Help:      "Reported plugin installs.",
	})
)
