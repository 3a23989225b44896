package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeyTypes = []KeyType{KeyTypeEd25519, KeyTypeSecp256k1}

// TestSignVerify 测试签名与验证
func TestSignVerify(t *testing.T) {
	for _, kt := range allKeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			priv, pub, err := GenerateKeyPair(kt)
			require.NoError(t, err)
			assert.Equal(t, kt, priv.Type())
			assert.True(t, pub.Equals(priv.GetPublic()))

			msg := []byte("noise-libp2p-static-key:")
			sig, err := priv.Sign(msg)
			require.NoError(t, err)

			ok, err := pub.Verify(msg, sig)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, _ = pub.Verify([]byte("tampered"), sig)
			assert.False(t, ok)
		})
	}
}

// TestMarshalRoundTrip 测试公私钥序列化
func TestMarshalRoundTrip(t *testing.T) {
	for _, kt := range allKeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			priv, pub, err := GenerateKeyPair(kt)
			require.NoError(t, err)

			pb, err := MarshalPublicKey(pub)
			require.NoError(t, err)
			pub2, err := UnmarshalPublicKey(pb)
			require.NoError(t, err)
			assert.True(t, pub.Equals(pub2))

			sk, err := MarshalPrivateKey(priv)
			require.NoError(t, err)
			priv2, err := UnmarshalPrivateKey(sk)
			require.NoError(t, err)
			assert.True(t, priv.Equals(priv2))
		})
	}
}

func TestMarshalPublicKey_Format(t *testing.T) {
	_, pub, err := GenerateEd25519Key()
	require.NoError(t, err)
	b, err := MarshalPublicKey(pub)
	require.NoError(t, err)

	// 08 01 (Type=Ed25519) 12 20 (Data, 32 bytes)
	require.Len(t, b, 36)
	assert.Equal(t, []byte{0x08, 0x01, 0x12, 0x20}, b[:4])
}

func TestUnmarshalPublicKey_Invalid(t *testing.T) {
	_, err := UnmarshalPublicKey([]byte{0x08})
	assert.ErrorIs(t, err, ErrUnmarshalFailed)

	_, err = UnmarshalPublicKey([]byte{0x08, 0x07, 0x12, 0x01, 0x00})
	assert.ErrorIs(t, err, ErrBadKeyType)

	_, err = UnmarshalPublicKey([]byte{0x08, 0x01, 0x12, 0x01, 0x00})
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

// TestPeerID_Deterministic 测试 PeerID 派生的确定性
func TestPeerID_Deterministic(t *testing.T) {
	priv, pub, err := GenerateKeyPair(KeyTypeEd25519)
	require.NoError(t, err)

	id1, err := PeerIDFromPublicKey(pub)
	require.NoError(t, err)
	id2, err := PeerIDFromPrivateKey(priv)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	require.NoError(t, id1.Validate())

	ok, err := VerifyPeerID(pub, id1)
	require.NoError(t, err)
	assert.True(t, ok)

	_, other, err := GenerateKeyPair(KeyTypeEd25519)
	require.NoError(t, err)
	ok, err = VerifyPeerID(other, id1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseKeyType(t *testing.T) {
	kt, err := ParseKeyType("SECP256K1")
	require.NoError(t, err)
	assert.Equal(t, KeyTypeSecp256k1, kt)

	kt, err = ParseKeyType("")
	require.NoError(t, err)
	assert.Equal(t, KeyTypeEd25519, kt)

	_, err = ParseKeyType("rsa")
	assert.ErrorIs(t, err, ErrBadKeyType)
}
