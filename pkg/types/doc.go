// Package types 定义 dep2p-ping 的基础类型
//
// 这是最底层的共享包，只依赖 pkg/lib/multiaddr。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go     - PeerID, ConnID, ListenerID, ProtocolID
//   - enums.go   - Direction, ConnState
//   - events.go  - SwarmEvent 及其各变体
//   - ping.go    - PingOutcome, PingFailure
//   - errors.go  - 公共错误定义
package types
