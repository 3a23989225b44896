// Package multiaddr 实现自描述多地址
//
// 文本形式: /ip4/127.0.0.1/tcp/4001/p2p/<PeerID>
// 二进制形式: 每个组件为 varint(协议代码) || 值，变长值带 varint 长度前缀。
//
// 支持的协议: ip4 ip6 dns dns4 dns6 tcp udp quic-v1 ws memory p2p
package multiaddr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Multiaddr 是自描述的网络地址
type Multiaddr interface {
	// Bytes 返回二进制表示（不要修改返回的字节）
	Bytes() []byte

	// String 返回文本表示
	String() string

	// Equal 判断两个地址是否相等
	Equal(Multiaddr) bool

	// Protocols 返回地址包含的协议列表
	Protocols() []Protocol

	// Components 返回地址组件
	Components() []Component

	// Encapsulate 在末尾追加另一个地址
	Encapsulate(Multiaddr) Multiaddr

	// Decapsulate 移除最后一次出现的 other 及其后的所有组件
	Decapsulate(Multiaddr) Multiaddr

	// ValueForProtocol 返回第一次出现的指定协议的值
	ValueForProtocol(code int) (string, error)
}

type multiaddr struct {
	bytes []byte
	comps []Component
}

// NewMultiaddr 从文本创建多地址
//
// 未知协议或值格式错误时返回错误。
func NewMultiaddr(s string) (Multiaddr, error) {
	b, err := stringToBytes(s)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return NewMultiaddrBytes(b)
}

// NewMultiaddrBytes 从二进制创建多地址
func NewMultiaddrBytes(b []byte) (Multiaddr, error) {
	if len(b) == 0 {
		return nil, ErrEmptyAddress
	}
	comps, err := splitBytes(b)
	if err != nil {
		return nil, err
	}
	return &multiaddr{bytes: append([]byte(nil), b...), comps: comps}, nil
}

// StringCast 从已知有效的文本创建多地址，无效时 panic
func StringCast(s string) Multiaddr {
	m, err := NewMultiaddr(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Join 依次拼接多个地址
func Join(ms ...Multiaddr) Multiaddr {
	var b []byte
	for _, m := range ms {
		if m != nil {
			b = append(b, m.Bytes()...)
		}
	}
	if len(b) == 0 {
		return nil
	}
	out, err := NewMultiaddrBytes(b)
	if err != nil {
		panic(err)
	}
	return out
}

func (m *multiaddr) Bytes() []byte {
	return m.bytes
}

func (m *multiaddr) String() string {
	var sb strings.Builder
	for _, c := range m.comps {
		sb.WriteString(c.String())
	}
	return sb.String()
}

func (m *multiaddr) Equal(other Multiaddr) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(m.bytes, other.Bytes())
}

func (m *multiaddr) Protocols() []Protocol {
	ps := make([]Protocol, 0, len(m.comps))
	for _, c := range m.comps {
		ps = append(ps, c.Protocol)
	}
	return ps
}

func (m *multiaddr) Components() []Component {
	return append([]Component(nil), m.comps...)
}

func (m *multiaddr) Encapsulate(other Multiaddr) Multiaddr {
	return Join(m, other)
}

func (m *multiaddr) Decapsulate(other Multiaddr) Multiaddr {
	if other == nil {
		return m
	}
	oc := other.Components()
	if len(oc) == 0 || len(oc) > len(m.comps) {
		return m
	}
	for i := len(m.comps) - len(oc); i >= 0; i-- {
		if componentsHavePrefix(m.comps[i:], oc) {
			if i == 0 {
				return nil
			}
			return fromComponents(m.comps[:i])
		}
	}
	return m
}

func (m *multiaddr) ValueForProtocol(code int) (string, error) {
	for _, c := range m.comps {
		if c.Protocol.Code == code {
			return c.ValueString(), nil
		}
	}
	return "", ErrProtocolNotFound
}

// MarshalJSON 以文本形式序列化
func (m *multiaddr) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func componentsHavePrefix(comps, prefix []Component) bool {
	for i, p := range prefix {
		if comps[i].Protocol.Code != p.Protocol.Code || !bytes.Equal(comps[i].Value, p.Value) {
			return false
		}
	}
	return true
}

func fromComponents(comps []Component) Multiaddr {
	var b []byte
	for _, c := range comps {
		b = append(b, componentBytes(c)...)
	}
	return &multiaddr{bytes: b, comps: append([]Component(nil), comps...)}
}
