package metrics_config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/dominant-strategies/go-gossip/log"
)

// Enabled is checked by the constructor functions for all of the
// standard metrics. If it is false, the constructors return nil and callers
// skip recording.
var enabled = true

func EnableMetrics() {
	enabled = true
}

func DisableMetrics() {
	enabled = false
}

func MetricsEnabled() bool {
	return enabled
}

// StartProcessMetrics serves the default registry on the given port at /metrics
// and refreshes the process gauges on every scrape.
func StartProcessMetrics(port int) {
	// Short circuit if the metrics system is disabled
	if !enabled {
		return
	}

	gaugesMap := make(map[string]*prometheus.GaugeVec)
	gaugesMap["cpu"] = NewGaugeVec("cpu_usage", "The average CPU usage of the process")
	gaugesMap["mem"] = NewGaugeVec("mem_usage", "The current memory usage of the process")

	go initializeHttpMetrics(port, gaugesMap)
}

// NewGaugeVec registers a gauge vector keyed by a single "label" label
func NewGaugeVec(name string, help string) *prometheus.GaugeVec {
	if !enabled {
		return nil
	}
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{"label"})
	prometheus.MustRegister(gaugeVec)
	return gaugeVec
}

// NewCounterVec registers a counter vector keyed by a single "label" label
func NewCounterVec(name string, help string) *prometheus.CounterVec {
	if !enabled {
		return nil
	}
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, []string{"label"})
	prometheus.MustRegister(counterVec)
	return counterVec
}

func initializeHttpMetrics(port int, metricsMap map[string]*prometheus.GaugeVec) {
	http.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			updateMetrics(metricsMap)
			promhttp.Handler().ServeHTTP(w, r)
		}),
	))
	addr := fmt.Sprintf(":%d", port)
	log.Global.WithField("addr", addr).Info("Serving metrics")
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Global.WithField("err", err).Error("Metrics server stopped")
	}
}

func updateMetrics(metricsMap map[string]*prometheus.GaugeVec) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Global.WithField("err", err).Error("Failed to get process")
		return
	}

	collectCPUMetrics(metricsMap["cpu"], proc)
	collectMemoryMetrics(metricsMap["mem"], proc)
}

func collectCPUMetrics(cpuGaugeVec *prometheus.GaugeVec, proc *process.Process) {
	if cpuGaugeVec == nil {
		return
	}
	percent, err := proc.CPUPercent()
	if err != nil {
		log.Global.WithField("err", err).Error("Failed to get CPU percent")
	} else {
		cpuGaugeVec.WithLabelValues("process").Set(percent)
	}

	threads, err := proc.NumThreads()
	if err != nil {
		log.Global.WithField("err", err).Error("Failed to get threads")
	} else {
		cpuGaugeVec.WithLabelValues("threads").Set(float64(threads))
	}
}

func collectMemoryMetrics(memGaugeVec *prometheus.GaugeVec, proc *process.Process) {
	if memGaugeVec == nil {
		return
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		log.Global.WithField("err", err).Error("Error while getting memory info")
		return
	}
	memGaugeVec.WithLabelValues("rss").Set(float64(memInfo.RSS))
	memGaugeVec.WithLabelValues("swap").Set(float64(memInfo.Swap))
	memGaugeVec.WithLabelValues("stack").Set(float64(memInfo.Stack))
}
