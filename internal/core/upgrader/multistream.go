package upgrader

import (
	"fmt"
	"net"

	mss "github.com/multiformats/go-multistream"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
)

// negotiateSecurity 协商安全协议
//
// 客户端按优先顺序提议，服务端接受本地支持的任一协议。
func (u *Upgrader) negotiateSecurity(conn net.Conn, isServer bool) (pkgif.SecureTransport, error) {
	ids := make([]string, len(u.security))
	for i, st := range u.security {
		ids[i] = st.ID()
	}

	selected, err := negotiate(conn, ids, isServer)
	if err != nil {
		return nil, err
	}
	for _, st := range u.security {
		if st.ID() == selected {
			return st, nil
		}
	}
	return nil, fmt.Errorf("negotiated protocol %s not found", selected)
}

// negotiateMuxer 协商多路复用器
func (u *Upgrader) negotiateMuxer(conn net.Conn, isServer bool) error {
	_, err := negotiate(conn, []string{u.muxer.ID()}, isServer)
	return err
}

func negotiate(conn net.Conn, protos []string, isServer bool) (string, error) {
	if !isServer {
		return mss.SelectOneOf(protos, conn)
	}
	m := mss.NewMultistreamMuxer[string]()
	for _, p := range protos {
		m.AddHandler(p, nil)
	}
	selected, _, err := m.Negotiate(conn)
	return selected, err
}
