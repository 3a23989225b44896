package recorder

import (
	"time"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// Record 事件日志中的一条记录
//
// CBOR 使用整数键。零值字段省略，NumEstablished 除外。
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Session   string    `cbor:"2,keyasint"`
	Seq       uint64    `cbor:"3,keyasint"`
	Kind      string    `cbor:"4,keyasint"`

	Peer       string   `cbor:"5,keyasint,omitempty"`
	ConnID     uint64   `cbor:"6,keyasint,omitempty"`
	ListenerID uint64   `cbor:"7,keyasint,omitempty"`
	Direction  string   `cbor:"8,keyasint,omitempty"`
	Local      string   `cbor:"9,keyasint,omitempty"`
	Remote     string   `cbor:"10,keyasint,omitempty"`
	Addrs      []string `cbor:"11,keyasint,omitempty"`

	NumEstablished int      `cbor:"12,keyasint"`
	EstablishedIn  int64    `cbor:"13,keyasint,omitempty"` // 纳秒
	DialErrors     []string `cbor:"14,keyasint,omitempty"`
	Cause          string   `cbor:"15,keyasint,omitempty"`

	Protocol string `cbor:"16,keyasint,omitempty"`
	RTT      int64  `cbor:"17,keyasint,omitempty"` // 纳秒
	Failure  string `cbor:"18,keyasint,omitempty"`

	Error string `cbor:"19,keyasint,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func addrString(a multiaddr.Multiaddr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func addrStrings(as []multiaddr.Multiaddr) []string {
	if len(as) == 0 {
		return nil
	}
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = addrString(a)
	}
	return out
}

func (r *Record) setEndpoint(ep types.Endpoint) {
	r.Direction = ep.Direction.String()
	r.Local = addrString(ep.Local)
	r.Remote = addrString(ep.Remote)
}
