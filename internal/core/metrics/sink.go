package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

const namespace = "dep2p"

// Sink 将事件转为 Prometheus 指标
type Sink struct {
	registry *prometheus.Registry

	established   *prometheus.CounterVec
	closed        *prometheus.CounterVec
	open          prometheus.Gauge
	establishTime prometheus.Histogram
	pingRTT       prometheus.Histogram
	pingFailures  *prometheus.CounterVec
	dialErrors    prometheus.Counter
	incomingErrs  prometheus.Counter
	listenAddrs   prometheus.Gauge
	listenerErrs  prometheus.Counter
}

var _ dispatcher.Sink = (*Sink)(nil)

// NewSink 创建指标 Sink，并在 bw 非空时一并注册流量计数器
func NewSink(bw *BandwidthCounter) *Sink {
	reg := prometheus.NewRegistry()
	s := &Sink{
		registry: reg,
		established: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "established_total",
			Help:      "Connections that completed the security and muxer upgrade.",
		}, []string{"direction"}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "closed_total",
			Help:      "Closed connections by cause.",
		}, []string{"cause"}),
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "open",
			Help:      "Currently established connections.",
		}),
		establishTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "establish_seconds",
			Help:      "Time from dial or accept to an established connection.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		pingRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ping",
			Name:      "rtt_seconds",
			Help:      "Round-trip time of successful pings.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		pingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ping",
			Name:      "failures_total",
			Help:      "Failed pings by kind.",
		}, []string{"kind"}),
		dialErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dial_errors_total",
			Help:      "Outbound dials that failed.",
		}),
		incomingErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incoming_connection_errors_total",
			Help:      "Inbound connections that failed during the upgrade.",
		}),
		listenAddrs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listen_addresses",
			Help:      "Currently reported listen addresses.",
		}),
		listenerErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_errors_total",
			Help:      "Listener runtime errors.",
		}),
	}

	reg.MustRegister(
		s.established, s.closed, s.open, s.establishTime,
		s.pingRTT, s.pingFailures,
		s.dialErrors, s.incomingErrs, s.listenAddrs, s.listenerErrs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if bw != nil {
		reg.MustRegister(bw)
	}
	return s
}

// Registry 返回指标注册表
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Sink) ListenAddressReported(types.ListenAddressReported) error {
	s.listenAddrs.Inc()
	return nil
}

func (s *Sink) ListenerClosed(ev types.ListenerClosed) error {
	s.listenAddrs.Sub(float64(len(ev.Addrs)))
	return nil
}

func (s *Sink) ConnectionEstablished(ev types.ConnectionEstablished) error {
	s.established.WithLabelValues(ev.Endpoint.Direction.String()).Inc()
	s.open.Inc()
	s.establishTime.Observe(ev.EstablishedIn.Seconds())
	return nil
}

func (s *Sink) ConnectionClosed(ev types.ConnectionClosed) error {
	s.closed.WithLabelValues(ev.Cause.Reason.String()).Inc()
	s.open.Dec()
	return nil
}

func (s *Sink) ProtocolEvent(ev types.ProtocolEvent) error {
	if ev.Ping.OK() {
		s.pingRTT.Observe(ev.Ping.RTT.Seconds())
		return nil
	}
	s.pingFailures.WithLabelValues(ev.Ping.Failure.String()).Inc()
	return nil
}

func (s *Sink) DialError(types.DialError) error {
	s.dialErrors.Inc()
	return nil
}

func (s *Sink) IncomingConnectionError(types.IncomingConnectionError) error {
	s.incomingErrs.Inc()
	return nil
}

func (s *Sink) ListenError(types.ListenError) error {
	s.listenerErrs.Inc()
	return nil
}
