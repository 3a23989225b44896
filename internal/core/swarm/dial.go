package swarm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// Dial 拨号到 addr
//
// addr 末尾带 /p2p/<id> 时握手会校验对端身份。dns 地址先解析，
// 解析出的多个地址并发拨号（受 MaxConcurrentDials 限制），第一个成功者胜出。
// 成功时发出 ConnectionEstablished，失败时发出 DialError；
// 返回值与事件携带相同结果，失败时为 *DialError。
func (s *Swarm) Dial(ctx context.Context, addr multiaddr.Multiaddr) (types.ConnID, error) {
	id := types.ConnID(s.nextConnID.Add(1))
	start := s.clock.Now()

	peer, cc, dialErrs, err := s.dial(ctx, addr)
	if err == nil {
		_, err = s.addConn(cc, id, types.DirOutbound, dialErrs, s.clock.Since(start))
	}
	if err != nil {
		derr, ok := err.(*DialError)
		if !ok {
			derr = &DialError{Peer: peer, Addr: addr, Errors: []error{err}}
		}
		logger.Debug("拨号失败",
			"conn", id,
			"addr", addr,
			"peer", peer.ShortString(),
			"error", derr)
		s.emitter.Emit(types.DialError{
			ConnID: id,
			Peer:   peer,
			Addr:   addr,
			Err:    derr,
		})
		return id, derr
	}
	return id, nil
}

func (s *Swarm) dial(ctx context.Context, addr multiaddr.Multiaddr) (types.PeerID, pkgif.CapableConn, []types.AddrError, error) {
	if s.isClosed() {
		return "", nil, nil, ErrSwarmClosed
	}
	if addr == nil {
		return "", nil, nil, ErrNoAddresses
	}

	raddr, idStr := multiaddr.SplitP2P(addr)
	var peer types.PeerID
	if idStr != "" {
		p, err := types.ParsePeerID(idStr)
		if err != nil {
			return "", nil, nil, err
		}
		peer = p
	}
	if peer == s.local {
		return peer, nil, nil, ErrDialToSelf
	}
	if raddr == nil {
		return peer, nil, nil, ErrNoAddresses
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DialTimeout.Duration())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	addrs, err := s.resolve(ctx, raddr)
	if err != nil {
		return peer, nil, nil, err
	}

	cc, dialErrs, errs := s.dialAddrs(ctx, peer, addrs)
	if errs != nil {
		return peer, nil, nil, &DialError{Peer: peer, Addr: addr, Errors: errs}
	}
	return peer, cc, dialErrs, nil
}

// resolve 将 dns/dns4/dns6 地址解析为具体 IP 地址
func (s *Swarm) resolve(ctx context.Context, addr multiaddr.Multiaddr) ([]multiaddr.Multiaddr, error) {
	if !multiaddr.IsDNS(addr) {
		return []multiaddr.Multiaddr{addr}, nil
	}

	head := addr.Components()[0]
	host := head.ValueString()
	ips, err := s.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}

	var out []multiaddr.Multiaddr
	for _, ip := range ips {
		is4 := ip.IP.To4() != nil
		if (head.Protocol.Code == multiaddr.P_DNS4 && !is4) ||
			(head.Protocol.Code == multiaddr.P_DNS6 && is4) {
			continue
		}
		m, err := multiaddr.ReplaceIP(addr, ip.IP)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s resolved to no usable address", ErrNoAddresses, host)
	}
	logger.Debug("地址解析完成", "host", host, "count", len(out))
	return out, nil
}

type dialJob struct {
	addr      multiaddr.Multiaddr
	transport pkgif.Transport
}

// dialAddrs 并发拨号，返回胜出连接与在其之前失败的尝试
//
// 全部失败时返回每个地址的错误。
func (s *Swarm) dialAddrs(ctx context.Context, peer types.PeerID, addrs []multiaddr.Multiaddr) (pkgif.CapableConn, []types.AddrError, []error) {
	var (
		jobs []dialJob
		errs []error
	)
	for _, a := range addrs {
		t := s.transportFor(a)
		if t == nil {
			errs = append(errs, types.AddrError{Addr: a, Err: ErrNoTransport})
			continue
		}
		jobs = append(jobs, dialJob{addr: a, transport: t})
	}
	if len(jobs) == 0 {
		return nil, nil, errs
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		winner pkgif.CapableConn
		failed []types.AddrError
	)

	var g errgroup.Group
	g.SetLimit(s.config.MaxConcurrentDials)
	for _, job := range jobs {
		g.Go(func() error {
			var (
				cc  pkgif.CapableConn
				err = ctx.Err()
			)
			if err == nil {
				cc, err = job.transport.Dial(ctx, job.addr, peer)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if winner == nil {
					failed = append(failed, types.AddrError{Addr: job.addr, Err: err})
				}
				return nil
			}
			if winner != nil {
				cc.Close()
				return nil
			}
			winner = cc
			cancel()
			return nil
		})
	}
	_ = g.Wait()

	if winner == nil {
		for _, f := range failed {
			errs = append(errs, f)
		}
		return nil, nil, errs
	}
	return winner, failed, nil
}
