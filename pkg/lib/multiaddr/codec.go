package multiaddr

import (
	"fmt"
	"strings"

	"github.com/multiformats/go-varint"
)

// Component 多地址中的一个协议段
type Component struct {
	Protocol Protocol
	// Value 二进制值（不含长度前缀）
	Value []byte
}

// String 返回文本形式，如 "/tcp/4001"
func (c Component) String() string {
	if c.Protocol.Size == 0 {
		return "/" + c.Protocol.Name
	}
	v, err := c.Protocol.Transcoder.BytesToString(c.Value)
	if err != nil {
		return "/" + c.Protocol.Name + "/<invalid>"
	}
	return "/" + c.Protocol.Name + "/" + v
}

// ValueString 返回值的文本形式
func (c Component) ValueString() string {
	if c.Protocol.Size == 0 {
		return ""
	}
	v, _ := c.Protocol.Transcoder.BytesToString(c.Value)
	return v
}

// ============================================================================
//                              文本 -> 二进制
// ============================================================================

func stringToBytes(s string) ([]byte, error) {
	s = strings.TrimRight(s, "/")
	if s == "" {
		return nil, ErrEmptyAddress
	}
	if s[0] != '/' {
		return nil, fmt.Errorf("%w: must begin with /", ErrInvalidMultiaddr)
	}

	parts := strings.Split(s[1:], "/")
	var out []byte
	for len(parts) > 0 {
		name := parts[0]
		parts = parts[1:]
		p, ok := ProtocolWithName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, name)
		}
		out = append(out, varint.ToUvarint(uint64(p.Code))...)
		if p.Size == 0 {
			continue
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("%w: protocol %s requires a value", ErrInvalidMultiaddr, name)
		}
		value, err := p.Transcoder.StringToBytes(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
		}
		parts = parts[1:]
		if p.Size == LengthPrefixedVarSize {
			out = append(out, varint.ToUvarint(uint64(len(value)))...)
		}
		out = append(out, value...)
	}
	return out, nil
}

// ============================================================================
//                              二进制 -> 组件
// ============================================================================

// readComponent 读取一个组件，返回组件与消耗的字节数
func readComponent(b []byte) (Component, int, error) {
	code, n, err := varint.FromUvarint(b)
	if err != nil {
		return Component{}, 0, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
	}
	p, ok := ProtocolWithCode(int(code))
	if !ok {
		return Component{}, 0, fmt.Errorf("%w: code %d", ErrUnknownProtocol, code)
	}
	b = b[n:]

	size := 0
	switch {
	case p.Size == LengthPrefixedVarSize:
		l, ln, err := varint.FromUvarint(b)
		if err != nil {
			return Component{}, 0, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
		}
		n += ln
		b = b[ln:]
		size = int(l)
	case p.Size > 0:
		size = p.Size / 8
	}
	if len(b) < size || size < 0 {
		return Component{}, 0, fmt.Errorf("%w: truncated %s value", ErrInvalidMultiaddr, p.Name)
	}
	c := Component{Protocol: p}
	if size > 0 {
		c.Value = append([]byte(nil), b[:size]...)
		if _, err := p.Transcoder.BytesToString(c.Value); err != nil {
			return Component{}, 0, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
		}
	}
	return c, n + size, nil
}

func splitBytes(b []byte) ([]Component, error) {
	var comps []Component
	for len(b) > 0 {
		c, n, err := readComponent(b)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
		b = b[n:]
	}
	return comps, nil
}
