package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// unknownProtocol 协议协商完成前的流量标签
const unknownProtocol = "unknown"

// Stats 流量统计
type Stats struct {
	TotalIn  int64
	TotalOut int64
}

type protoCounters struct {
	in  atomic.Int64
	out atomic.Int64
}

// BandwidthCounter 按协议统计流上的字节数
//
// 并发安全；同时实现 prometheus.Collector。
type BandwidthCounter struct {
	totalIn  atomic.Int64
	totalOut atomic.Int64

	mu     sync.RWMutex
	protos map[types.ProtocolID]*protoCounters

	desc *prometheus.Desc
}

var (
	_ swarm.BandwidthReporter = (*BandwidthCounter)(nil)
	_ prometheus.Collector    = (*BandwidthCounter)(nil)
)

// NewBandwidthCounter 创建流量计数器
func NewBandwidthCounter() *BandwidthCounter {
	return &BandwidthCounter{
		protos: make(map[types.ProtocolID]*protoCounters),
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "stream", "bytes_total"),
			"Bytes transferred on streams, by direction and protocol.",
			[]string{"direction", "protocol"}, nil,
		),
	}
}

// LogSentStream 记录流上发送的字节数
func (bwc *BandwidthCounter) LogSentStream(size int64, proto types.ProtocolID) {
	bwc.totalOut.Add(size)
	bwc.counters(proto).out.Add(size)
}

// LogRecvStream 记录流上接收的字节数
func (bwc *BandwidthCounter) LogRecvStream(size int64, proto types.ProtocolID) {
	bwc.totalIn.Add(size)
	bwc.counters(proto).in.Add(size)
}

// Totals 返回总流量
func (bwc *BandwidthCounter) Totals() Stats {
	return Stats{TotalIn: bwc.totalIn.Load(), TotalOut: bwc.totalOut.Load()}
}

// ForProtocol 返回单个协议的流量，协商前的流量记在空协议下
func (bwc *BandwidthCounter) ForProtocol(proto types.ProtocolID) Stats {
	bwc.mu.RLock()
	c := bwc.protos[proto]
	bwc.mu.RUnlock()
	if c == nil {
		return Stats{}
	}
	return Stats{TotalIn: c.in.Load(), TotalOut: c.out.Load()}
}

// Describe 实现 prometheus.Collector
func (bwc *BandwidthCounter) Describe(ch chan<- *prometheus.Desc) {
	ch <- bwc.desc
}

// Collect 实现 prometheus.Collector
func (bwc *BandwidthCounter) Collect(ch chan<- prometheus.Metric) {
	bwc.mu.RLock()
	defer bwc.mu.RUnlock()
	for proto, c := range bwc.protos {
		label := string(proto)
		if label == "" {
			label = unknownProtocol
		}
		ch <- prometheus.MustNewConstMetric(bwc.desc, prometheus.CounterValue, float64(c.in.Load()), "in", label)
		ch <- prometheus.MustNewConstMetric(bwc.desc, prometheus.CounterValue, float64(c.out.Load()), "out", label)
	}
}

func (bwc *BandwidthCounter) counters(proto types.ProtocolID) *protoCounters {
	bwc.mu.RLock()
	c := bwc.protos[proto]
	bwc.mu.RUnlock()
	if c != nil {
		return c
	}

	bwc.mu.Lock()
	defer bwc.mu.Unlock()
	if c = bwc.protos[proto]; c == nil {
		c = &protoCounters{}
		bwc.protos[proto] = c
	}
	return c
}
