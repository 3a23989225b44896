package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"

	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// certificatePrefix 签名前缀
const certificatePrefix = "libp2p-tls-handshake:"

// certValidity 证书有效期
const certValidity = 100 * 365 * 24 * time.Hour

// ALPN 协议名
const ALPN = "libp2p"

// extensionOID 证书扩展 OID，内容为 SignedKey
var extensionOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 53594, 1, 1}

// signedKey 证书扩展内容
//
//	SignedKey ::= SEQUENCE {
//	   publicKey OCTET STRING,  -- protobuf 序列化的身份公钥
//	   signature OCTET STRING   -- Sign(prefix || SPKI(证书公钥))
//	}
type signedKey struct {
	PubKey    []byte
	Signature []byte
}

// Identity 携带身份证书的 TLS 配置源
//
// 证书密钥是每个进程新生成的 P-256 密钥，身份密钥只用于在扩展中签名，
// 因此任意身份密钥类型都可用于 TLS。
type Identity struct {
	config tls.Config
}

// NewIdentity 为节点身份生成证书
func NewIdentity(id *identity.Identity) (*Identity, error) {
	cert, err := keyToCertificate(id.PrivateKey())
	if err != nil {
		return nil, err
	}
	return &Identity{
		config: tls.Config{
			MinVersion: tls.VersionTLS13,
			// 证书链由 VerifyPeerCertificate 按身份扩展校验
			InsecureSkipVerify:     true,
			ClientAuth:             tls.RequireAnyClientCert,
			Certificates:           []tls.Certificate{*cert},
			NextProtos:             []string{ALPN},
			SessionTicketsDisabled: true,
		},
	}, nil
}

// ConfigForPeer 返回用于与 remote 握手的配置，remote 为空时接受任意身份
func (i *Identity) ConfigForPeer(remote types.PeerID) *tls.Config {
	cfg := i.config.Clone()
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		chain := make([]*x509.Certificate, len(rawCerts))
		for i, raw := range rawCerts {
			c, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			chain[i] = c
		}
		pub, err := PubKeyFromCertChain(chain)
		if err != nil {
			return err
		}
		if remote != "" {
			ok, err := crypto.VerifyPeerID(pub, remote)
			if err != nil {
				return err
			}
			if !ok {
				actual, _ := crypto.PeerIDFromPublicKey(pub)
				return fmt.Errorf("%w: expected %s, got %s", ErrPeerIDMismatch, remote, actual)
			}
		}
		return nil
	}
	return cfg
}

// PubKeyFromCertChain 校验证书链并返回其中绑定的身份公钥
func PubKeyFromCertChain(chain []*x509.Certificate) (crypto.PublicKey, error) {
	if len(chain) != 1 {
		return nil, fmt.Errorf("%w: expected one certificate, got %d", ErrInvalidCertificate, len(chain))
	}
	cert := chain[0]

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return nil, fmt.Errorf("%w: certificate expired or not yet valid", ErrInvalidCertificate)
	}
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		return nil, fmt.Errorf("%w: self signature: %v", ErrInvalidCertificate, err)
	}

	var value []byte
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(extensionOID) {
			value = ext.Value
			break
		}
	}
	if value == nil {
		return nil, ErrNoPublicKeyExtension
	}

	var sk signedKey
	if rest, err := asn1.Unmarshal(value, &sk); err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: malformed signed key", ErrInvalidCertificate)
	}
	pub, err := crypto.UnmarshalPublicKey(sk.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	certKeyPub, err := x509.MarshalPKIXPublicKey(cert.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	ok, err := pub.Verify(append([]byte(certificatePrefix), certKeyPub...), sk.Signature)
	if err != nil || !ok {
		return nil, ErrInvalidSignature
	}
	return pub, nil
}

func keyToCertificate(sk crypto.PrivateKey) (*tls.Certificate, error) {
	certKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate certificate key: %w", err)
	}

	keyBytes, err := crypto.MarshalPublicKey(sk.GetPublic())
	if err != nil {
		return nil, err
	}
	certKeyPub, err := x509.MarshalPKIXPublicKey(certKey.Public())
	if err != nil {
		return nil, err
	}
	sig, err := sk.Sign(append([]byte(certificatePrefix), certKeyPub...))
	if err != nil {
		return nil, fmt.Errorf("sign certificate key: %w", err)
	}
	value, err := asn1.Marshal(signedKey{PubKey: keyBytes, Signature: sig})
	if err != nil {
		return nil, err
	}

	sn, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber:    sn,
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(certValidity),
		ExtraExtensions: []pkix.Extension{{Id: extensionOID, Value: value}},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, certKey.Public(), certKey)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	return &tls.Certificate{Certificate: [][]byte{der}, PrivateKey: certKey}, nil
}
