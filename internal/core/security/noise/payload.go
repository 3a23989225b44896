package noise

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// NoiseHandshakePayload 字段
//
//	message NoiseHandshakePayload {
//	  bytes identity_key = 1;
//	  bytes identity_sig = 2;
//	}
const (
	fieldIdentityKey protowire.Number = 1
	fieldIdentitySig protowire.Number = 2
)

// encodePayload 生成握手 payload
func encodePayload(priv crypto.PrivateKey, staticPub []byte) ([]byte, error) {
	key, err := crypto.MarshalPublicKey(priv.GetPublic())
	if err != nil {
		return nil, fmt.Errorf("marshal identity key: %w", err)
	}
	sig, err := priv.Sign(append([]byte(payloadSigPrefix), staticPub...))
	if err != nil {
		return nil, fmt.Errorf("sign static key: %w", err)
	}

	var b []byte
	b = protowire.AppendTag(b, fieldIdentityKey, protowire.BytesType)
	b = protowire.AppendBytes(b, key)
	b = protowire.AppendTag(b, fieldIdentitySig, protowire.BytesType)
	b = protowire.AppendBytes(b, sig)
	return b, nil
}

// verifyPayload 校验对端 payload 的签名并派生 PeerID
func verifyPayload(payload, remoteStatic []byte) (crypto.PublicKey, types.PeerID, error) {
	if len(remoteStatic) != 32 {
		return nil, "", fmt.Errorf("%w: remote static key length %d", ErrHandshakeFailed, len(remoteStatic))
	}
	keyBytes, sig, err := decodePayload(payload)
	if err != nil {
		return nil, "", err
	}
	pub, err := crypto.UnmarshalPublicKey(keyBytes)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	ok, err := pub.Verify(append([]byte(payloadSigPrefix), remoteStatic...), sig)
	if err != nil || !ok {
		return nil, "", ErrInvalidSignature
	}
	id, err := crypto.PeerIDFromPublicKey(pub)
	if err != nil {
		return nil, "", err
	}
	return pub, id, nil
}

func decodePayload(b []byte) (key, sig []byte, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType || (num != fieldIdentityKey && num != fieldIdentitySig) {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, protowire.ParseError(n))
		}
		if num == fieldIdentityKey {
			key = v
		} else {
			sig = v
		}
		b = b[n:]
	}
	if len(key) == 0 || len(sig) == 0 {
		return nil, nil, fmt.Errorf("%w: missing identity key or signature", ErrInvalidPayload)
	}
	return key, sig, nil
}
