package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Ed25519PrivateKey Ed25519 私钥
type Ed25519PrivateKey struct {
	k ed25519.PrivateKey
}

// Ed25519PublicKey Ed25519 公钥
type Ed25519PublicKey struct {
	k ed25519.PublicKey
}

// GenerateEd25519Key 生成 Ed25519 密钥对
func GenerateEd25519Key() (PrivateKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &Ed25519PrivateKey{k: priv}, &Ed25519PublicKey{k: pub}, nil
}

// UnmarshalEd25519PrivateKey 从 64 字节（seed||pub）或 32 字节 seed 恢复私钥
func UnmarshalEd25519PrivateKey(data []byte) (PrivateKey, error) {
	switch len(data) {
	case ed25519.SeedSize:
		return &Ed25519PrivateKey{k: ed25519.NewKeyFromSeed(data)}, nil
	case ed25519.PrivateKeySize:
		k := make([]byte, ed25519.PrivateKeySize)
		copy(k, data)
		return &Ed25519PrivateKey{k: k}, nil
	default:
		return nil, fmt.Errorf("%w: ed25519 private key length %d", ErrInvalidKeySize, len(data))
	}
}

// UnmarshalEd25519PublicKey 从 32 字节恢复公钥
func UnmarshalEd25519PublicKey(data []byte) (PublicKey, error) {
	if len(data) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 public key length %d", ErrInvalidKeySize, len(data))
	}
	k := make([]byte, ed25519.PublicKeySize)
	copy(k, data)
	return &Ed25519PublicKey{k: k}, nil
}

func (k *Ed25519PrivateKey) Type() KeyType { return KeyTypeEd25519 }

func (k *Ed25519PrivateKey) Raw() ([]byte, error) {
	out := make([]byte, len(k.k))
	copy(out, k.k)
	return out, nil
}

func (k *Ed25519PrivateKey) Equals(o Key) bool { return KeyEqual(k, o) }

func (k *Ed25519PrivateKey) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(k.k, data), nil
}

func (k *Ed25519PrivateKey) GetPublic() PublicKey {
	return &Ed25519PublicKey{k: k.k.Public().(ed25519.PublicKey)}
}

// Seed 返回 32 字节种子
func (k *Ed25519PrivateKey) Seed() []byte {
	return k.k.Seed()
}

func (k *Ed25519PublicKey) Type() KeyType { return KeyTypeEd25519 }

func (k *Ed25519PublicKey) Raw() ([]byte, error) {
	out := make([]byte, len(k.k))
	copy(out, k.k)
	return out, nil
}

func (k *Ed25519PublicKey) Equals(o Key) bool { return KeyEqual(k, o) }

func (k *Ed25519PublicKey) Verify(data, sig []byte) (bool, error) {
	if len(sig) != ed25519.SignatureSize {
		return false, ErrInvalidSignature
	}
	return ed25519.Verify(k.k, data, sig), nil
}
