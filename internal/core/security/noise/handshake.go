package noise

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"filippo.io/edwards25519"
	"github.com/flynn/noise"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// payloadSigPrefix 签名 payload 的前缀
const payloadSigPrefix = "noise-libp2p-static-key:"

// maxFrameSize 单帧最大长度（2 字节长度前缀）
const maxFrameSize = 65535

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

// ============================================================================
// Noise XX 握手
// ============================================================================

// performHandshake 执行 Noise XX 握手
//
//	-> e
//	<- e, ee, s, es, payload
//	-> s, se, payload
//
// payload 携带身份公钥与对静态 DH 公钥的签名，把静态密钥绑定到 PeerID。
func performHandshake(conn net.Conn, priv crypto.PrivateKey, remotePeer types.PeerID, initiator bool) (*secureConn, error) {
	static, err := staticKeypair(priv)
	if err != nil {
		return nil, err
	}

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Pattern:       noise.HandshakeXX,
		Initiator:     initiator,
		StaticKeypair: static,
	})
	if err != nil {
		return nil, fmt.Errorf("create handshake state: %w", err)
	}

	payload, err := encodePayload(priv, static.Public)
	if err != nil {
		return nil, err
	}

	var (
		sendCS, recvCS *noise.CipherState
		remotePayload  []byte
	)
	if initiator {
		sendCS, recvCS, remotePayload, err = clientHandshake(conn, hs, payload)
	} else {
		sendCS, recvCS, remotePayload, err = serverHandshake(conn, hs, payload)
	}
	if err != nil {
		return nil, err
	}

	remotePub, actual, err := verifyPayload(remotePayload, hs.PeerStatic())
	if err != nil {
		return nil, err
	}
	if remotePeer != "" && actual != remotePeer {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrPeerIDMismatch, remotePeer, actual)
	}

	localPeer, err := crypto.PeerIDFromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return &secureConn{
		Conn:       conn,
		sendCS:     sendCS,
		recvCS:     recvCS,
		localPeer:  localPeer,
		remotePeer: actual,
		remotePub:  remotePub,
	}, nil
}

func clientHandshake(conn net.Conn, hs *noise.HandshakeState, payload []byte) (*noise.CipherState, *noise.CipherState, []byte, error) {
	msg1, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("write message 1: %w", err)
	}
	if err := writeFrame(conn, msg1); err != nil {
		return nil, nil, nil, fmt.Errorf("send message 1: %w", err)
	}

	msg2, err := readFrame(conn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("receive message 2: %w", err)
	}
	remotePayload, _, _, err := hs.ReadMessage(nil, msg2)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: read message 2: %v", ErrHandshakeFailed, err)
	}

	msg3, cs1, cs2, err := hs.WriteMessage(nil, payload)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("write message 3: %w", err)
	}
	if err := writeFrame(conn, msg3); err != nil {
		return nil, nil, nil, fmt.Errorf("send message 3: %w", err)
	}

	// 发起方：cs1 发送，cs2 接收
	return cs1, cs2, remotePayload, nil
}

func serverHandshake(conn net.Conn, hs *noise.HandshakeState, payload []byte) (*noise.CipherState, *noise.CipherState, []byte, error) {
	msg1, err := readFrame(conn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("receive message 1: %w", err)
	}
	if _, _, _, err := hs.ReadMessage(nil, msg1); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: read message 1: %v", ErrHandshakeFailed, err)
	}

	msg2, _, _, err := hs.WriteMessage(nil, payload)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("write message 2: %w", err)
	}
	if err := writeFrame(conn, msg2); err != nil {
		return nil, nil, nil, fmt.Errorf("send message 2: %w", err)
	}

	msg3, err := readFrame(conn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("receive message 3: %w", err)
	}
	remotePayload, cs1, cs2, err := hs.ReadMessage(nil, msg3)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: read message 3: %v", ErrHandshakeFailed, err)
	}

	// 响应方方向相反
	return cs2, cs1, remotePayload, nil
}

// ============================================================================
// 静态密钥
// ============================================================================

// staticKeypair 返回握手用的 X25519 静态密钥
//
// Ed25519 身份直接转换为 X25519；其他密钥类型每次生成新的静态密钥，
// 两种情况都由 payload 签名绑定到身份。
func staticKeypair(priv crypto.PrivateKey) (noise.DHKey, error) {
	edPriv, ok := priv.(*crypto.Ed25519PrivateKey)
	if !ok {
		kp, err := noise.DH25519.GenerateKeypair(rand.Reader)
		if err != nil {
			return noise.DHKey{}, fmt.Errorf("generate static key: %w", err)
		}
		return kp, nil
	}
	pubRaw, err := edPriv.GetPublic().Raw()
	if err != nil {
		return noise.DHKey{}, err
	}
	pub, err := ed25519PublicToX25519(pubRaw)
	if err != nil {
		return noise.DHKey{}, err
	}
	return noise.DHKey{Private: ed25519SeedToX25519(edPriv.Seed()), Public: pub}, nil
}

// ed25519SeedToX25519 SHA-512(seed) 前 32 字节并做 clamping（RFC 7748）
func ed25519SeedToX25519(seed []byte) []byte {
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	return h[:32]
}

// ed25519PublicToX25519 Edwards 点转换为 Montgomery u 坐标
func ed25519PublicToX25519(pub []byte) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return nil, fmt.Errorf("invalid ed25519 public key: %w", err)
	}
	return p.BytesMontgomery(), nil
}

// ============================================================================
// 帧
// ============================================================================

// writeFrame 写入帧（2 字节大端长度 + 数据）
func writeFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(buf, uint16(len(data)))
	copy(buf[2:], data)
	_, err := w.Write(buf)
	return err
}

// readFrame 读取帧
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	data := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
