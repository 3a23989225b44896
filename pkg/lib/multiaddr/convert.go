package multiaddr

import (
	"fmt"
	"net"
	"strconv"

	"github.com/multiformats/go-varint"
)

func componentBytes(c Component) []byte {
	b := varint.ToUvarint(uint64(c.Protocol.Code))
	if c.Protocol.Size == LengthPrefixedVarSize {
		b = append(b, varint.ToUvarint(uint64(len(c.Value)))...)
	}
	return append(b, c.Value...)
}

// NewComponent 创建单组件地址，如 NewComponent("tcp", "4001")
func NewComponent(name, value string) (Multiaddr, error) {
	if value == "" {
		return NewMultiaddr("/" + name)
	}
	return NewMultiaddr("/" + name + "/" + value)
}

// ============================================================================
//                              net.Addr 互转
// ============================================================================

// FromNetAddr 将 *net.TCPAddr / *net.UDPAddr 转换为多地址
//
// UDP 地址会附加 /quic-v1。
func FromNetAddr(addr net.Addr) (Multiaddr, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return fromIPPort(a.IP, a.Port, "tcp", "")
	case *net.UDPAddr:
		return fromIPPort(a.IP, a.Port, "udp", "/quic-v1")
	default:
		return nil, fmt.Errorf("unsupported net.Addr type %T", addr)
	}
}

func fromIPPort(ip net.IP, port int, proto, suffix string) (Multiaddr, error) {
	family := "ip6"
	if ip4 := ip.To4(); ip4 != nil {
		family = "ip4"
		ip = ip4
	}
	if ip == nil {
		ip = net.IPv4zero
		family = "ip4"
	}
	return NewMultiaddr(fmt.Sprintf("/%s/%s/%s/%d%s", family, ip.String(), proto, port, suffix))
}

// ToNetAddr 将 /ip{4,6}/.../{tcp,udp}/port 形式转换为 (network, host:port)
//
// dns 地址保留主机名，network 由 dns4/dns6 决定。
func ToNetAddr(m Multiaddr) (network, address string, err error) {
	comps := m.Components()
	if len(comps) < 2 {
		return "", "", ErrNotThinWaist
	}
	host, port := comps[0], comps[1]

	var transport string
	switch port.Protocol.Code {
	case P_TCP:
		transport = "tcp"
	case P_UDP:
		transport = "udp"
	default:
		return "", "", ErrNotThinWaist
	}

	switch host.Protocol.Code {
	case P_IP4, P_DNS4:
		network = transport + "4"
	case P_IP6, P_DNS6:
		network = transport + "6"
	case P_DNS:
		network = transport
	default:
		return "", "", ErrNotThinWaist
	}
	return network, net.JoinHostPort(host.ValueString(), port.ValueString()), nil
}

// ============================================================================
//                              辅助函数
// ============================================================================

// SplitP2P 拆分出末尾的 /p2p/<id>，返回传输地址与 PeerID 文本
//
// 地址不含 /p2p 时 id 为空。
func SplitP2P(m Multiaddr) (transport Multiaddr, id string) {
	comps := m.Components()
	if len(comps) == 0 || comps[len(comps)-1].Protocol.Code != P_P2P {
		return m, ""
	}
	last := comps[len(comps)-1]
	if len(comps) == 1 {
		return nil, last.ValueString()
	}
	return fromComponents(comps[:len(comps)-1]), last.ValueString()
}

// HasProtocol 判断地址是否包含指定协议
func HasProtocol(m Multiaddr, code int) bool {
	_, err := m.ValueForProtocol(code)
	return err == nil
}

// IsDNS 判断首组件是否为 dns/dns4/dns6
func IsDNS(m Multiaddr) bool {
	comps := m.Components()
	if len(comps) == 0 {
		return false
	}
	switch comps[0].Protocol.Code {
	case P_DNS, P_DNS4, P_DNS6:
		return true
	}
	return false
}

// IsIPUnspecified 判断首组件是否为 0.0.0.0 或 ::
func IsIPUnspecified(m Multiaddr) bool {
	comps := m.Components()
	if len(comps) == 0 {
		return false
	}
	switch comps[0].Protocol.Code {
	case P_IP4, P_IP6:
		return net.IP(comps[0].Value).IsUnspecified()
	}
	return false
}

// ReplaceIP 用 ip 替换首组件，保留其余组件
func ReplaceIP(m Multiaddr, ip net.IP) (Multiaddr, error) {
	comps := m.Components()
	if len(comps) == 0 {
		return nil, ErrEmptyAddress
	}
	family := "ip6"
	if ip4 := ip.To4(); ip4 != nil {
		family, ip = "ip4", ip4
	}
	head, err := NewComponent(family, ip.String())
	if err != nil {
		return nil, err
	}
	if len(comps) == 1 {
		return head, nil
	}
	return Join(head, fromComponents(comps[1:])), nil
}

// ReplacePort 替换第一个 tcp/udp 组件的端口
func ReplacePort(m Multiaddr, port int) (Multiaddr, error) {
	comps := m.Components()
	for i, c := range comps {
		if c.Protocol.Code == P_TCP || c.Protocol.Code == P_UDP {
			v, err := c.Protocol.Transcoder.StringToBytes(strconv.Itoa(port))
			if err != nil {
				return nil, err
			}
			comps[i].Value = v
			return fromComponents(comps), nil
		}
	}
	return nil, ErrNotThinWaist
}
