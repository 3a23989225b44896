// Package introspect 提供本地自省 HTTP 服务
//
// 服务默认绑定 127.0.0.1，以 JSON 输出节点诊断信息，并挂载 pprof。
//
// # 端点
//
//	GET /debug/introspect             - 完整诊断报告
//	GET /debug/introspect/node        - 本节点 PeerID、监听地址与协议
//	GET /debug/introspect/connections - 连接列表（含最近一次 ping RTT）
//	GET /debug/introspect/bandwidth   - 流量统计
//	GET /debug/introspect/runtime     - Go 运行时信息
//	GET /debug/pprof/*                - Go pprof 端点
//	GET /health                       - 健康检查
//
// Server 同时实现事件 Sink，从 ProtocolEvent 记录每条连接最近一次的探测结果。
// 通过 config.Diagnostics.EnableIntrospect 启用。
package introspect
