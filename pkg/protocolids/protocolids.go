// Package protocolids 是 dep2p-ping 协议 ID 的唯一注册表
//
// 其他包引用本包常量，不在别处定义协议字面量。
package protocolids

import "github.com/dep2p/go-dep2p-ping/pkg/types"

// ============================================================================
//                              协商协议
// ============================================================================

// Multistream 协议协商（multistream-select）
const Multistream = "/multistream/1.0.0"

// ============================================================================
//                              安全与多路复用
// ============================================================================

// SecurityTLS TLS 1.3 安全握手
const SecurityTLS = "/tls/1.0.0"

// SecurityNoise Noise XX 安全握手
const SecurityNoise = "/noise"

// MuxerYamux yamux 多路复用
const MuxerYamux = "/yamux/1.0.0"

// ============================================================================
//                              流协议
// ============================================================================

// Ping 存活探测
const Ping types.ProtocolID = "/ipfs/ping/1.0.0"
