package multiaddr

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// ============================================================================
//                              协议代码
// ============================================================================

// 协议代码，与 multicodec 表一致
const (
	P_IP4     = 0x0004
	P_TCP     = 0x0006
	P_DNS     = 0x0035
	P_DNS4    = 0x0036
	P_DNS6    = 0x0037
	P_IP6     = 0x0029
	P_UDP     = 0x0111
	P_P2P     = 0x01a5
	P_QUIC_V1 = 0x01cc
	P_WS      = 0x01dd
	P_MEMORY  = 0x0309
)

// LengthPrefixedVarSize 表示变长值，二进制形式带 varint 长度前缀
const LengthPrefixedVarSize = -1

// Protocol 描述一个多地址协议
type Protocol struct {
	// Name 文本名，如 "tcp"
	Name string

	// Code 协议代码
	Code int

	// Size 值的位数；0 表示无值，LengthPrefixedVarSize 表示变长
	Size int

	// Transcoder 值编解码器，Size 为 0 时为 nil
	Transcoder Transcoder
}

// Transcoder 协议值的文本/二进制互转
type Transcoder interface {
	StringToBytes(string) ([]byte, error)
	BytesToString([]byte) (string, error)
}

type transcoder struct {
	s2b func(string) ([]byte, error)
	b2s func([]byte) (string, error)
}

func (t transcoder) StringToBytes(s string) ([]byte, error) { return t.s2b(s) }
func (t transcoder) BytesToString(b []byte) (string, error) { return t.b2s(b) }

var protocols = []Protocol{
	{Name: "ip4", Code: P_IP4, Size: 32, Transcoder: transcoder{ip4StringToBytes, ipBytesToString}},
	{Name: "tcp", Code: P_TCP, Size: 16, Transcoder: transcoder{portStringToBytes, portBytesToString}},
	{Name: "dns", Code: P_DNS, Size: LengthPrefixedVarSize, Transcoder: transcoder{dnsStringToBytes, dnsBytesToString}},
	{Name: "dns4", Code: P_DNS4, Size: LengthPrefixedVarSize, Transcoder: transcoder{dnsStringToBytes, dnsBytesToString}},
	{Name: "dns6", Code: P_DNS6, Size: LengthPrefixedVarSize, Transcoder: transcoder{dnsStringToBytes, dnsBytesToString}},
	{Name: "ip6", Code: P_IP6, Size: 128, Transcoder: transcoder{ip6StringToBytes, ipBytesToString}},
	{Name: "udp", Code: P_UDP, Size: 16, Transcoder: transcoder{portStringToBytes, portBytesToString}},
	{Name: "p2p", Code: P_P2P, Size: LengthPrefixedVarSize, Transcoder: transcoder{p2pStringToBytes, p2pBytesToString}},
	{Name: "quic-v1", Code: P_QUIC_V1},
	{Name: "ws", Code: P_WS},
	{Name: "memory", Code: P_MEMORY, Size: 64, Transcoder: transcoder{memoryStringToBytes, memoryBytesToString}},
}

var (
	protocolsByName = make(map[string]Protocol, len(protocols))
	protocolsByCode = make(map[int]Protocol, len(protocols))
)

func init() {
	for _, p := range protocols {
		protocolsByName[p.Name] = p
		protocolsByCode[p.Code] = p
	}
	// ipfs 是 p2p 的历史别名
	protocolsByName["ipfs"] = protocolsByCode[P_P2P]
}

// ProtocolWithName 按名称查找协议
func ProtocolWithName(name string) (Protocol, bool) {
	p, ok := protocolsByName[name]
	return p, ok
}

// ProtocolWithCode 按代码查找协议
func ProtocolWithCode(code int) (Protocol, bool) {
	p, ok := protocolsByCode[code]
	return p, ok
}

// ============================================================================
//                              值编解码
// ============================================================================

func ip4StringToBytes(s string) ([]byte, error) {
	ip := net.ParseIP(s).To4()
	if ip == nil {
		return nil, fmt.Errorf("failed to parse ip4 addr: %s", s)
	}
	return ip, nil
}

func ip6StringToBytes(s string) ([]byte, error) {
	if strings.Contains(s, ".") && !strings.Contains(s, ":") {
		return nil, fmt.Errorf("failed to parse ip6 addr: %s", s)
	}
	ip := net.ParseIP(s).To16()
	if ip == nil {
		return nil, fmt.Errorf("failed to parse ip6 addr: %s", s)
	}
	return ip, nil
}

func ipBytesToString(b []byte) (string, error) {
	if len(b) != net.IPv4len && len(b) != net.IPv6len {
		return "", fmt.Errorf("invalid ip length: %d", len(b))
	}
	return net.IP(b).String(), nil
}

func portStringToBytes(s string) ([]byte, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse port %q: %w", s, err)
	}
	return binary.BigEndian.AppendUint16(nil, uint16(port)), nil
}

func portBytesToString(b []byte) (string, error) {
	if len(b) != 2 {
		return "", fmt.Errorf("invalid port length: %d", len(b))
	}
	return strconv.FormatUint(uint64(binary.BigEndian.Uint16(b)), 10), nil
}

func dnsStringToBytes(s string) ([]byte, error) {
	if s == "" || strings.Contains(s, "/") {
		return nil, fmt.Errorf("invalid dns name: %q", s)
	}
	return []byte(s), nil
}

func dnsBytesToString(b []byte) (string, error) {
	if len(b) == 0 || strings.Contains(string(b), "/") {
		return "", fmt.Errorf("invalid dns name: %q", b)
	}
	return string(b), nil
}

// p2p 值为 PeerID 的 Base58 解码字节
func p2pStringToBytes(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil || len(b) == 0 {
		return nil, fmt.Errorf("failed to parse p2p addr %q: invalid base58", s)
	}
	return b, nil
}

func p2pBytesToString(b []byte) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("empty p2p value")
	}
	return base58.Encode(b), nil
}

func memoryStringToBytes(s string) ([]byte, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse memory id %q: %w", s, err)
	}
	return binary.BigEndian.AppendUint64(nil, id), nil
}

func memoryBytesToString(b []byte) (string, error) {
	if len(b) != 8 {
		return "", fmt.Errorf("invalid memory id length: %d", len(b))
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(b), 10), nil
}
