// Package metrics 将节点事件与流量导出为 Prometheus 指标
//
// Sink 作为分发器的事件接收端维护连接、拨号与 ping 相关指标；
// BandwidthCounter 由 Swarm 在流读写时调用，按协议累计字节数。
// 两者注册在同一个独立的 prometheus.Registry 上，
// 启用 HTTP 端点时由 Server 通过 promhttp 暴露。
//
// # 指标
//
//	dep2p_connections_established_total{direction}
//	dep2p_connections_closed_total{cause}
//	dep2p_connections_open
//	dep2p_connection_establish_seconds
//	dep2p_ping_rtt_seconds
//	dep2p_ping_failures_total{kind}
//	dep2p_dial_errors_total
//	dep2p_incoming_connection_errors_total
//	dep2p_listen_addresses
//	dep2p_listener_errors_total
//	dep2p_stream_bytes_total{direction,protocol}
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module(),
//	    // ...
//	)
package metrics
