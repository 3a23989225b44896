package websocket

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// conn 将消息式的 websocket 连接适配为字节流 net.Conn
//
// 写入以二进制消息发送，读取跨消息拼接；文本消息被忽略。
type conn struct {
	*ws.Conn

	readMu sync.Mutex
	reader io.Reader

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

var _ net.Conn = (*conn)(nil)

func newConn(c *ws.Conn) *conn {
	return &conn{Conn: c}
}

func (c *conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if c.reader == nil {
			mt, r, err := c.NextReader()
			if err != nil {
				return 0, mapCloseError(err)
			}
			if mt != ws.BinaryMessage {
				continue
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.WriteMessage(ws.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close 发送关闭帧后关闭底层连接
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}

func (c *conn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}

func mapCloseError(err error) error {
	if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
		return io.EOF
	}
	return err
}
