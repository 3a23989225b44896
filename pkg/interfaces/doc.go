// Package interfaces 定义传输栈的公共接口
//
// 分层（自下而上）：
//
//	Transport (tcp/ws/memory)  →  RawConn
//	SecureTransport (tls/noise) →  SecureConn
//	StreamMuxer (yamux)        →  MuxedConn
//	Upgrader                   →  CapableConn
//
// QUIC 传输直接产出 CapableConn，不经过 Upgrader。
package interfaces
