// Package crypto 提供 dep2p-ping 的密钥与签名工具
//
// 支持 Ed25519（默认）与 Secp256k1 两种身份密钥。
// 公钥序列化采用 protobuf PublicKey{Type=1, Data=2} 格式，
// PeerID = Base58(SHA256(序列化公钥))。
package crypto

import (
	"fmt"
	"strings"
)

// ============================================================================
//                              密钥类型定义
// ============================================================================

// KeyType 密钥类型，取值与 protobuf KeyType 枚举一致
type KeyType int

const (
	// KeyTypeEd25519 Ed25519 密钥（默认推荐）
	KeyTypeEd25519 KeyType = 1
	// KeyTypeSecp256k1 Secp256k1 密钥
	KeyTypeSecp256k1 KeyType = 2
)

// String 返回密钥类型名称
func (kt KeyType) String() string {
	switch kt {
	case KeyTypeEd25519:
		return "Ed25519"
	case KeyTypeSecp256k1:
		return "Secp256k1"
	default:
		return "Unknown"
	}
}

// ParseKeyType 解析密钥类型名称（不区分大小写）
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(s) {
	case "", "ed25519":
		return KeyTypeEd25519, nil
	case "secp256k1":
		return KeyTypeSecp256k1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadKeyType, s)
	}
}

// ============================================================================
//                              密钥接口
// ============================================================================

// Key 密钥公共接口
type Key interface {
	// Type 返回密钥类型
	Type() KeyType

	// Raw 返回原始密钥字节
	Raw() ([]byte, error)

	// Equals 比较两个密钥
	Equals(Key) bool
}

// PublicKey 公钥
type PublicKey interface {
	Key

	// Verify 验证签名
	Verify(data, sig []byte) (bool, error)
}

// PrivateKey 私钥
type PrivateKey interface {
	Key

	// Sign 对数据签名
	Sign(data []byte) ([]byte, error)

	// GetPublic 返回对应公钥
	GetPublic() PublicKey
}

// GenerateKeyPair 使用系统随机源生成密钥对
func GenerateKeyPair(kt KeyType) (PrivateKey, PublicKey, error) {
	switch kt {
	case KeyTypeEd25519:
		return GenerateEd25519Key()
	case KeyTypeSecp256k1:
		return GenerateSecp256k1Key()
	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrBadKeyType, kt)
	}
}

// KeyEqual 按类型与原始字节比较两个密钥
func KeyEqual(a, b Key) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	ra, err1 := a.Raw()
	rb, err2 := b.Raw()
	if err1 != nil || err2 != nil {
		return false
	}
	return string(ra) == string(rb)
}
