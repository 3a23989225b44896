package interfaces

import (
	"context"
	"net"
	"time"
)

// StreamMuxer 定义流多路复用器接口
type StreamMuxer interface {
	// ID 返回多路复用协议标识
	ID() string

	// NewConn 在安全连接上创建多路复用连接
	NewConn(conn net.Conn, isServer bool) (MuxedConn, error)
}

// MuxedConn 定义多路复用连接接口
type MuxedConn interface {
	// OpenStream 打开新流
	OpenStream(ctx context.Context) (MuxedStream, error)

	// AcceptStream 接受新流，连接关闭时返回错误
	AcceptStream() (MuxedStream, error)

	// Close 关闭连接
	Close() error

	// IsClosed 检查连接是否已关闭
	IsClosed() bool
}

// MuxedStream 定义多路复用流接口
type MuxedStream interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)

	// Close 关闭流（正常关闭）
	Close() error

	// CloseWrite 关闭写端
	CloseWrite() error

	// CloseRead 关闭读端
	CloseRead() error

	// Reset 重置流（异常关闭）
	Reset() error

	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}
