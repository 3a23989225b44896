package swarm

import (
	"sync"
	"sync/atomic"
	"time"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// Stream 连接上的一条流
//
// 打开、读写与关闭都会刷新所属连接的空闲计时。
type Stream struct {
	conn   *Conn
	stream pkgif.MuxedStream
	dir    types.Direction

	protocol atomic.Value // types.ProtocolID

	closeOnce sync.Once
}

var _ pkgif.Stream = (*Stream)(nil)

func newStream(c *Conn, ms pkgif.MuxedStream, dir types.Direction) *Stream {
	return &Stream{
		conn:   c,
		stream: ms,
		dir:    dir,
	}
}

// Read 读取数据
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.stream.Read(p)
	if n > 0 {
		s.conn.touch()
		if bw := s.conn.swarm.bandwidth; bw != nil {
			bw.LogRecvStream(int64(n), s.Protocol())
		}
	}
	return n, err
}

// Write 写入数据
func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.stream.Write(p)
	if n > 0 {
		s.conn.touch()
		if bw := s.conn.swarm.bandwidth; bw != nil {
			bw.LogSentStream(int64(n), s.Protocol())
		}
	}
	return n, err
}

// Close 关闭流
func (s *Stream) Close() error {
	s.release()
	return s.stream.Close()
}

// Reset 重置流
func (s *Stream) Reset() error {
	s.release()
	return s.stream.Reset()
}

// CloseWrite 关闭写端（半关闭）
func (s *Stream) CloseWrite() error {
	return s.stream.CloseWrite()
}

// CloseRead 关闭读端（半关闭）
func (s *Stream) CloseRead() error {
	return s.stream.CloseRead()
}

func (s *Stream) SetDeadline(t time.Time) error {
	return s.stream.SetDeadline(t)
}

func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.stream.SetReadDeadline(t)
}

func (s *Stream) SetWriteDeadline(t time.Time) error {
	return s.stream.SetWriteDeadline(t)
}

// Protocol 返回已协商的协议
func (s *Stream) Protocol() types.ProtocolID {
	p, _ := s.protocol.Load().(types.ProtocolID)
	return p
}

// SetProtocol 记录协商结果
func (s *Stream) SetProtocol(p types.ProtocolID) {
	s.protocol.Store(p)
}

// Direction 返回流方向
func (s *Stream) Direction() types.Direction {
	return s.dir
}

// Conn 返回所属连接
func (s *Stream) Conn() *Conn {
	return s.conn
}

// ConnID 返回所属连接标识
func (s *Stream) ConnID() types.ConnID {
	return s.conn.id
}

// RemotePeer 返回对端
func (s *Stream) RemotePeer() types.PeerID {
	return s.conn.remote
}

func (s *Stream) release() {
	s.closeOnce.Do(func() {
		s.conn.removeStream(s)
	})
}
