package crypto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// 序列化格式（protobuf）：
//
//	message PublicKey  { KeyType Type = 1; bytes Data = 2; }
//	message PrivateKey { KeyType Type = 1; bytes Data = 2; }
const (
	fieldKeyType protowire.Number = 1
	fieldKeyData protowire.Number = 2
)

// MarshalPublicKey 序列化公钥
func MarshalPublicKey(key PublicKey) ([]byte, error) {
	if key == nil {
		return nil, ErrNilPublicKey
	}
	return marshalKey(key)
}

// MarshalPrivateKey 序列化私钥
func MarshalPrivateKey(key PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, ErrNilPrivateKey
	}
	return marshalKey(key)
}

func marshalKey(key Key) ([]byte, error) {
	raw, err := key.Raw()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarshalFailed, err)
	}
	var b []byte
	b = protowire.AppendTag(b, fieldKeyType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(key.Type()))
	b = protowire.AppendTag(b, fieldKeyData, protowire.BytesType)
	b = protowire.AppendBytes(b, raw)
	return b, nil
}

// UnmarshalPublicKey 反序列化公钥
func UnmarshalPublicKey(data []byte) (PublicKey, error) {
	kt, raw, err := unmarshalKey(data)
	if err != nil {
		return nil, err
	}
	switch kt {
	case KeyTypeEd25519:
		return UnmarshalEd25519PublicKey(raw)
	case KeyTypeSecp256k1:
		return UnmarshalSecp256k1PublicKey(raw)
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadKeyType, kt)
	}
}

// UnmarshalPrivateKey 反序列化私钥
func UnmarshalPrivateKey(data []byte) (PrivateKey, error) {
	kt, raw, err := unmarshalKey(data)
	if err != nil {
		return nil, err
	}
	switch kt {
	case KeyTypeEd25519:
		return UnmarshalEd25519PrivateKey(raw)
	case KeyTypeSecp256k1:
		return UnmarshalSecp256k1PrivateKey(raw)
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadKeyType, kt)
	}
}

func unmarshalKey(b []byte) (KeyType, []byte, error) {
	var (
		kt      KeyType
		raw     []byte
		hasType bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldKeyType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, protowire.ParseError(n))
			}
			kt, hasType = KeyType(v), true
			b = b[n:]
		case num == fieldKeyData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, protowire.ParseError(n))
			}
			raw = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !hasType || raw == nil {
		return 0, nil, fmt.Errorf("%w: missing type or data", ErrUnmarshalFailed)
	}
	return kt, raw, nil
}
