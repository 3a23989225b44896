package types

import (
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// PeerID 节点唯一标识符
//
// 由公钥派生：Base58(SHA256(序列化公钥))。
type PeerID string

// EmptyPeerID 空 PeerID
const EmptyPeerID PeerID = ""

// peerIDDigestLen SHA256 摘要长度
const peerIDDigestLen = 32

// PeerIDFromBytes 从 32 字节摘要创建 PeerID
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) != peerIDDigestLen {
		return EmptyPeerID, fmt.Errorf("%w: digest length %d", ErrInvalidPeerID, len(b))
	}
	return PeerID(base58.Encode(b)), nil
}

// ParsePeerID 解析 Base58 文本形式的 PeerID
func ParsePeerID(s string) (PeerID, error) {
	id := PeerID(s)
	if err := id.Validate(); err != nil {
		return EmptyPeerID, err
	}
	return id, nil
}

// String 返回 Base58 字符串
func (id PeerID) String() string {
	return string(id)
}

// ShortString 返回前 8 个字符，用于日志
func (id PeerID) ShortString() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// IsEmpty 检查是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// Bytes 返回 Base58 解码后的摘要
func (id PeerID) Bytes() ([]byte, error) {
	b, err := base58.Decode(string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	return b, nil
}

// Validate 校验格式
func (id PeerID) Validate() error {
	if id.IsEmpty() {
		return ErrEmptyPeerID
	}
	b, err := id.Bytes()
	if err != nil {
		return err
	}
	if len(b) != peerIDDigestLen {
		return fmt.Errorf("%w: digest length %d", ErrInvalidPeerID, len(b))
	}
	return nil
}

// ============================================================================
//                              运行时标识
// ============================================================================

// ConnID 连接标识，进程内从 1 开始单调递增
type ConnID uint64

func (id ConnID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ListenerID 监听器标识，进程内从 1 开始单调递增
type ListenerID uint64

func (id ListenerID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ProtocolID 流协议标识，如 /ipfs/ping/1.0.0
type ProtocolID string

func (p ProtocolID) String() string {
	return string(p)
}
