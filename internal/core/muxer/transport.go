// Package muxer 基于 yamux 的流多路复用
package muxer

import (
	"io"
	"math"
	"net"

	"github.com/libp2p/go-yamux/v5"

	"github.com/dep2p/go-dep2p-ping/config"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
)

var logger = log.Logger("core/muxer")

// Transport yamux 多路复用器
type Transport struct {
	config *yamux.Config
}

var _ pkgif.StreamMuxer = (*Transport)(nil)

// NewTransport 使用配置创建 Transport
func NewTransport(cfg config.MuxerConfig) *Transport {
	yc := yamux.DefaultConfig()
	if cfg.MaxStreamWindowSize > 0 {
		yc.MaxStreamWindowSize = cfg.MaxStreamWindowSize
	}
	yc.EnableKeepAlive = cfg.EnableKeepAlive
	if cfg.KeepAliveInterval > 0 {
		yc.KeepAliveInterval = cfg.KeepAliveInterval.Duration()
	}
	yc.LogOutput = io.Discard
	// 安全层已有缓冲
	yc.ReadBufSize = 0
	yc.MaxIncomingStreams = math.MaxUint32
	return &Transport{config: yc}
}

// ID 返回多路复用协议标识
func (t *Transport) ID() string {
	return protocolids.MuxerYamux
}

// NewConn 在安全连接上创建多路复用会话
func (t *Transport) NewConn(conn net.Conn, isServer bool) (pkgif.MuxedConn, error) {
	var (
		sess *yamux.Session
		err  error
	)
	if isServer {
		sess, err = yamux.Server(conn, t.config, nil)
	} else {
		sess, err = yamux.Client(conn, t.config, nil)
	}
	if err != nil {
		return nil, err
	}
	return &muxedConn{session: sess}, nil
}

// Config 返回 yamux 配置
func (t *Transport) Config() *yamux.Config {
	return t.config
}
