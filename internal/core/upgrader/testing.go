package upgrader

import (
	"testing"
	"time"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	"github.com/dep2p/go-dep2p-ping/internal/core/security/noise"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
)

// NewForTest 创建使用 Noise + yamux 的升级器及其身份，供传输层测试使用
func NewForTest(tb testing.TB) (*Upgrader, *identity.Identity) {
	tb.Helper()
	id, err := identity.Generate(crypto.KeyTypeEd25519)
	if err != nil {
		tb.Fatalf("generate identity: %v", err)
	}
	n, err := noise.New(id)
	if err != nil {
		tb.Fatalf("noise: %v", err)
	}
	u, err := New([]pkgif.SecureTransport{n}, muxer.NewTransport(config.DefaultMuxerConfig()), 5*time.Second)
	if err != nil {
		tb.Fatalf("upgrader: %v", err)
	}
	return u, id
}
