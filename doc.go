// Package dep2p 提供最小化的 P2P 存活探测节点
//
// 节点建立加密、多路复用的连接，并在每条连接上周期性地交换 ping 探测。
// 连接与协议的全部状态变化以 SwarmEvent 的形式进入同一个有序队列，
// 由分发器交给日志、指标与事件记录等 Sink。
//
// # 快速开始
//
//	node, err := dep2p.New(
//	    dep2p.WithListenAddrs("/ip4/0.0.0.0/tcp/0"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	id, err := node.Dial(ctx, multiaddr.StringCast("/ip4/127.0.0.1/tcp/4001"))
//
// # 组件
//
//   - identity: 节点密钥与 PeerID
//   - transport: TCP / WebSocket / QUIC / 进程内传输
//   - security, muxer, upgrader: multistream-select 协商 TLS/Noise 与 yamux
//   - swarm: 连接表、空闲超时与连接状态机
//   - protocol, protocol/ping: 流协议路由与存活探测
//   - eventbus, dispatcher: 事件队列与分发
//   - metrics, recorder: Prometheus 指标与 CBOR 事件日志
//
// 组件通过 go.uber.org/fx 组装，见 fx.go。
package dep2p
