// Package swarm 实现连接管理
//
// Swarm 持有全部活跃连接（入站与出站），跟踪每个连接的状态，
// 执行空闲超时，并对外提供监听与拨号操作。所有状态变化都以
// types.SwarmEvent 的形式发往事件队列。
//
// # 连接状态机
//
//	Dialing/Accepting → Established → Closing → Closed
//
// 进入 Closing 的触发：
//   - 显式关闭（CloseConn）
//   - 空闲超时：无打开的流且无流活动达到 IdleTimeout
//   - 传输错误：多路复用会话失效
//   - 连续 ping 失败达到 MaxPingFailures（0 表示不启用）
//   - Swarm 关闭
//
// 每个连接恰好发出一次 ConnectionEstablished 与一次 ConnectionClosed，
// 两者之间是该连接的 ProtocolEvent。
//
// # 使用示例
//
//	s, err := swarm.New(id.PeerID(), transports, queue,
//	    swarm.WithConfig(cfg.Swarm))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if _, err := s.Listen(multiaddr.StringCast("/ip4/0.0.0.0/tcp/0")); err != nil {
//	    return err
//	}
//
// # 并发模型
//
// 每个监听器一个 accept 循环；每个连接一个流接受循环与一个空闲计时器；
// 附着在连接上的协议任务通过 Conn.Go 启动，随连接关闭而取消。
// 连接表只由 Swarm 在其互斥锁下修改。
package swarm
